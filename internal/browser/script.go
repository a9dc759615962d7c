package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/todoracle/internal/item"
	"github.com/roach88/todoracle/internal/profile"
	"github.com/roach88/todoracle/internal/surface"
)

// Script fragments evaluated with the element bound to el.
const (
	jsText    = `(el.tagName === "INPUT" ? el.value : el.textContent.trim())`
	jsVisible = `(el.getClientRects().length > 0 && getComputedStyle(el).visibility !== "hidden")`
	jsChecked = `!!el.checked`
	jsSelect  = `(el.focus(), el.select(), true)`
)

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		// Marshalling a string cannot fail.
		panic(err)
	}
	return string(b)
}

// jsCount evaluates to the number of elements matching sel.
func jsCount(sel string) string {
	return fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(sel))
}

// jsAt evaluates body on the idx-th element matching sel, or fallback when
// there is none.
func jsAt(sel string, idx int, body, fallback string) string {
	return fmt.Sprintf(`(() => { const el = document.querySelectorAll(%s)[%d]; return el ? %s : %s; })()`,
		jsString(sel), idx, body, fallback)
}

// jsMap evaluates body on every element matching sel.
func jsMap(sel, body string) string {
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%s), el => %s)`, jsString(sel), body)
}

// jsStorage evaluates to the raw localStorage entry, "" when unset.
func jsStorage(key string) string {
	return fmt.Sprintf(`localStorage.getItem(%s) || ""`, jsString(key))
}

// evalFunc evaluates a script expression and decodes its result into out.
type evalFunc func(ctx context.Context, expr string, out any) error

// reader answers every read of surface.Driver and surface.SnapshotReader by
// evaluating scripts. Both engines embed it.
type reader struct {
	prof       *profile.Profile
	storageKey string
	eval       evalFunc
}

// Count returns the number of elements the hook matches.
func (r *reader) Count(ctx context.Context, loc surface.Locator) (int, error) {
	sel, err := r.prof.Selector(loc)
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.eval(ctx, jsCount(sel), &n); err != nil {
		return 0, fmt.Errorf("count %s: %w", loc, err)
	}
	return n, nil
}

// Texts returns the text of the addressed element, or of all matches.
func (r *reader) Texts(ctx context.Context, loc surface.Locator) ([]string, error) {
	sel, err := r.prof.Selector(loc)
	if err != nil {
		return nil, err
	}
	expr := jsMap(sel, jsText)
	if loc.Index != surface.All {
		expr = jsAt(sel, loc.Index, "["+jsText+"]", "[]")
	}
	var texts []string
	if err := r.eval(ctx, expr, &texts); err != nil {
		return nil, fmt.Errorf("read text %s: %w", loc, err)
	}
	if texts == nil {
		texts = []string{}
	}
	return texts, nil
}

// HasClass reports whether the addressed element carries class.
func (r *reader) HasClass(ctx context.Context, loc surface.Locator, class string) (bool, error) {
	return r.probe(ctx, loc, fmt.Sprintf(`el.classList.contains(%s)`, jsString(class)))
}

// Checked reads the checked property of the addressed element.
func (r *reader) Checked(ctx context.Context, loc surface.Locator) (bool, error) {
	return r.probe(ctx, loc, jsChecked)
}

// Visible reports whether the addressed element is rendered.
func (r *reader) Visible(ctx context.Context, loc surface.Locator) (bool, error) {
	return r.probe(ctx, loc, jsVisible)
}

// probe evaluates a boolean body on one element; absent elements read false.
func (r *reader) probe(ctx context.Context, loc surface.Locator, body string) (bool, error) {
	if loc.Index < 0 {
		return false, nil
	}
	sel, err := r.prof.Selector(loc)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := r.eval(ctx, jsAt(sel, loc.Index, body, "false"), &ok); err != nil {
		return false, fmt.Errorf("read %s: %w", loc, err)
	}
	return ok, nil
}

// ReadPersistedItems decodes the application's localStorage entry.
func (r *reader) ReadPersistedItems(ctx context.Context) (item.Snapshot, error) {
	var raw string
	if err := r.eval(ctx, jsStorage(r.storageKey), &raw); err != nil {
		return nil, fmt.Errorf("read localStorage %q: %w", r.storageKey, err)
	}
	return item.DecodeSnapshot([]byte(raw))
}

// actionable checks loc resolves to one visible element.
func (r *reader) actionable(ctx context.Context, loc surface.Locator) error {
	n, err := r.Count(ctx, loc)
	if err != nil {
		return err
	}
	if err := surface.ResolveIndex(loc, n); err != nil {
		return err
	}
	visible, err := r.Visible(ctx, loc)
	if err != nil {
		return err
	}
	if !visible {
		return fmt.Errorf("%s: %w", loc, surface.ErrNotVisible)
	}
	return nil
}

// selectText focuses the addressed input and selects its content so the
// next keystrokes replace it.
func (r *reader) selectText(ctx context.Context, loc surface.Locator) error {
	sel, err := r.prof.Selector(loc)
	if err != nil {
		return err
	}
	var ok bool
	if err := r.eval(ctx, jsAt(sel, loc.Index, jsSelect, "false"), &ok); err != nil {
		return fmt.Errorf("select %s: %w", loc, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", loc, surface.ErrNoElement)
	}
	return nil
}
