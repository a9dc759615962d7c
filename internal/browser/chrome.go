package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/roach88/todoracle/internal/surface"
)

var _ surface.Session = (*Chrome)(nil)

// Chrome is one application session in its own Chrome process.
type Chrome struct {
	reader
	tab    context.Context
	cancel context.CancelFunc
}

// ChromeOpener launches a fresh headless Chrome per session.
type ChromeOpener struct {
	opts      Options
	allocOpts []chromedp.ExecAllocatorOption
}

// NewChromeOpener returns an opener for chromedp sessions.
func NewChromeOpener(opts Options) *ChromeOpener {
	opts = opts.withDefaults()
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.Flag("headless", opts.Headless))
	return &ChromeOpener{opts: opts, allocOpts: allocOpts}
}

// Open launches a browser, navigates to the application and waits for the
// primary input. Without a user data dir the allocator gives every browser a
// temporary profile, so sessions never share localStorage.
func (o *ChromeOpener) Open(ctx context.Context) (surface.Session, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), o.allocOpts...)
	tab, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			o.opts.Logger.Debug(fmt.Sprintf(format, args...), "engine", "chromedp")
		}),
	)

	c := &Chrome{
		tab: tab,
		cancel: func() {
			cancelTab()
			cancelAlloc()
		},
	}
	c.reader = reader{prof: o.opts.Profile, storageKey: o.opts.StorageKey, eval: c.eval}

	// The first Run allocates the browser and binds it to tab's lifetime, so
	// it must not run under a shorter context.
	if err := chromedp.Run(tab); err != nil {
		c.cancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	newItem, err := o.opts.Profile.Selector(surface.First(surface.HookNewItem))
	if err != nil {
		c.cancel()
		return nil, err
	}

	loadCtx, cancel := context.WithTimeout(ctx, o.opts.LoadWait)
	defer cancel()
	if err := c.run(loadCtx,
		chromedp.Navigate(o.opts.URL),
		chromedp.WaitVisible(newItem, chromedp.ByQuery),
	); err != nil {
		c.cancel()
		return nil, fmt.Errorf("navigate to %s: %w", o.opts.URL, err)
	}

	o.opts.Logger.Debug("session opened", "engine", "chromedp", "url", o.opts.URL)
	return c, nil
}

// Close shuts the tab and its browser down.
func (c *Chrome) Close() error {
	c.cancel()
	return nil
}

// run executes actions on the tab, bounded by ctx.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(c.tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (c *Chrome) eval(ctx context.Context, expr string, out any) error {
	return c.run(ctx, chromedp.Evaluate(expr, out))
}

// node resolves loc to the DOM node an action targets.
func (c *Chrome) node(ctx context.Context, loc surface.Locator) (*cdp.Node, error) {
	if err := c.actionable(ctx, loc); err != nil {
		return nil, err
	}
	sel, err := c.prof.Selector(loc)
	if err != nil {
		return nil, err
	}

	var nodes []*cdp.Node
	if err := c.run(ctx, chromedp.Nodes(sel, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("query %s: %w", loc, err)
	}
	// The page may have re-rendered between the check and the query.
	if err := surface.ResolveIndex(loc, len(nodes)); err != nil {
		return nil, err
	}
	return nodes[loc.Index], nil
}

// Fill replaces the value of a text input by selecting it and typing.
func (c *Chrome) Fill(ctx context.Context, loc surface.Locator, text string) error {
	n, err := c.node(ctx, loc)
	if err != nil {
		return err
	}
	if err := c.run(ctx, chromedp.Focus([]cdp.NodeID{n.NodeID}, chromedp.ByNodeID)); err != nil {
		return fmt.Errorf("focus %s: %w", loc, err)
	}
	if err := c.selectText(ctx, loc); err != nil {
		return err
	}

	keys := text
	if keys == "" {
		keys = kb.Backspace
	}
	if err := c.run(ctx, chromedp.KeyEvent(keys)); err != nil {
		return fmt.Errorf("type into %s: %w", loc, err)
	}
	return nil
}

// Press focuses the element and sends key.
func (c *Chrome) Press(ctx context.Context, loc surface.Locator, key surface.Key) error {
	n, err := c.node(ctx, loc)
	if err != nil {
		return err
	}

	var keys string
	switch key {
	case surface.KeyEnter:
		keys = kb.Enter
	case surface.KeyEscape:
		keys = kb.Escape
	default:
		return fmt.Errorf("unsupported key %q", key)
	}

	if err := c.run(ctx,
		chromedp.Focus([]cdp.NodeID{n.NodeID}, chromedp.ByNodeID),
		chromedp.KeyEvent(keys),
	); err != nil {
		return fmt.Errorf("press %s on %s: %w", key, loc, err)
	}
	return nil
}

// Click sends a left click to the element's center.
func (c *Chrome) Click(ctx context.Context, loc surface.Locator) error {
	return c.click(ctx, loc, 1)
}

// DoubleClick sends a left double click to the element's center.
func (c *Chrome) DoubleClick(ctx context.Context, loc surface.Locator) error {
	return c.click(ctx, loc, 2)
}

func (c *Chrome) click(ctx context.Context, loc surface.Locator, count int) error {
	n, err := c.node(ctx, loc)
	if err != nil {
		return err
	}
	if err := c.run(ctx, chromedp.MouseClickNode(n, chromedp.ClickCount(count))); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	return nil
}

// Hover moves the pointer to the element's center.
func (c *Chrome) Hover(ctx context.Context, loc surface.Locator) error {
	n, err := c.node(ctx, loc)
	if err != nil {
		return err
	}

	err = c.run(ctx,
		chromedp.ScrollIntoView([]cdp.NodeID{n.NodeID}, chromedp.ByNodeID),
		chromedp.ActionFunc(func(ctx context.Context) error {
			box, err := dom.GetBoxModel().WithNodeID(n.NodeID).Do(ctx)
			if err != nil {
				return err
			}
			x, y := quadCenter(box.Border)
			return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
		}),
	)
	if err != nil {
		return fmt.Errorf("hover %s: %w", loc, err)
	}
	return nil
}

// quadCenter returns the centroid of a quad of four x,y points.
func quadCenter(q dom.Quad) (float64, float64) {
	if len(q) < 8 {
		return 0, 0
	}
	var x, y float64
	for i := 0; i < 8; i += 2 {
		x += q[i]
		y += q[i+1]
	}
	return x / 4, y / 4
}
