package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/roach88/todoracle/internal/surface"
)

var _ surface.Session = (*Rod)(nil)

// Rod is one application session in an incognito context of a shared
// browser.
type Rod struct {
	reader
	incognito *rod.Browser
	page      *rod.Page
}

// RodOpener launches one browser on first use and opens every session in a
// fresh incognito context of it.
type RodOpener struct {
	opts Options

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewRodOpener returns an opener for go-rod sessions.
func NewRodOpener(opts Options) *RodOpener {
	return &RodOpener{opts: opts.withDefaults()}
}

// connect launches and connects to the browser once.
func (o *RodOpener) connect() (*rod.Browser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.browser != nil {
		return o.browser, nil
	}

	l := launcher.New().Headless(o.opts.Headless)
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	o.launcher = l
	o.browser = b
	o.opts.Logger.Debug("browser launched", "engine", "rod")
	return b, nil
}

// Open creates an incognito context, navigates to the application and waits
// for the primary input.
func (o *RodOpener) Open(ctx context.Context) (surface.Session, error) {
	b, err := o.connect()
	if err != nil {
		return nil, err
	}

	inc, err := b.Incognito()
	if err != nil {
		return nil, fmt.Errorf("create incognito context: %w", err)
	}

	page, err := inc.Page(proto.TargetCreateTarget{URL: o.opts.URL})
	if err != nil {
		inc.Close()
		return nil, fmt.Errorf("open %s: %w", o.opts.URL, err)
	}

	newItem, err := o.opts.Profile.Selector(surface.First(surface.HookNewItem))
	if err != nil {
		inc.Close()
		return nil, err
	}

	loadCtx, cancel := context.WithTimeout(ctx, o.opts.LoadWait)
	defer cancel()
	if _, err := page.Context(loadCtx).Element(newItem); err != nil {
		inc.Close()
		return nil, fmt.Errorf("wait for %s: %w", newItem, err)
	}

	r := &Rod{incognito: inc, page: page}
	r.reader = reader{prof: o.opts.Profile, storageKey: o.opts.StorageKey, eval: r.eval}

	o.opts.Logger.Debug("session opened", "engine", "rod", "url", o.opts.URL)
	return r, nil
}

// Close shuts the shared browser down.
func (o *RodOpener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.browser == nil {
		return nil
	}
	err := o.browser.Close()
	o.launcher.Cleanup()
	o.browser = nil
	o.launcher = nil
	return err
}

// Close disposes the session's incognito context and its page.
func (r *Rod) Close() error {
	return r.incognito.Close()
}

func (r *Rod) eval(ctx context.Context, expr string, out any) error {
	res, err := r.page.Context(ctx).Eval(`() => ` + expr)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return res.Value.Unmarshal(out)
}

// element resolves loc to the element an action targets.
func (r *Rod) element(ctx context.Context, loc surface.Locator) (*rod.Element, error) {
	if err := r.actionable(ctx, loc); err != nil {
		return nil, err
	}
	sel, err := r.prof.Selector(loc)
	if err != nil {
		return nil, err
	}

	els, err := r.page.Context(ctx).Elements(sel)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", loc, err)
	}
	if err := surface.ResolveIndex(loc, len(els)); err != nil {
		return nil, err
	}
	return els[loc.Index], nil
}

// Fill replaces the value of a text input by selecting it and typing.
func (r *Rod) Fill(ctx context.Context, loc surface.Locator, text string) error {
	el, err := r.element(ctx, loc)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("select %s: %w", loc, err)
	}
	if text == "" {
		err = el.Type(input.Backspace)
	} else {
		err = el.Input(text)
	}
	if err != nil {
		return fmt.Errorf("type into %s: %w", loc, err)
	}
	return nil
}

// Press sends key to the element.
func (r *Rod) Press(ctx context.Context, loc surface.Locator, key surface.Key) error {
	el, err := r.element(ctx, loc)
	if err != nil {
		return err
	}

	var k input.Key
	switch key {
	case surface.KeyEnter:
		k = input.Enter
	case surface.KeyEscape:
		k = input.Escape
	default:
		return fmt.Errorf("unsupported key %q", key)
	}

	if err := el.Type(k); err != nil {
		return fmt.Errorf("press %s on %s: %w", key, loc, err)
	}
	return nil
}

// Click sends a left click to the element.
func (r *Rod) Click(ctx context.Context, loc surface.Locator) error {
	return r.click(ctx, loc, 1)
}

// DoubleClick sends a left double click to the element.
func (r *Rod) DoubleClick(ctx context.Context, loc surface.Locator) error {
	return r.click(ctx, loc, 2)
}

func (r *Rod) click(ctx context.Context, loc surface.Locator, count int) error {
	el, err := r.element(ctx, loc)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, count); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	return nil
}

// Hover moves the pointer over the element.
func (r *Rod) Hover(ctx context.Context, loc surface.Locator) error {
	el, err := r.element(ctx, loc)
	if err != nil {
		return err
	}
	if err := el.Hover(); err != nil {
		return fmt.Errorf("hover %s: %w", loc, err)
	}
	return nil
}
