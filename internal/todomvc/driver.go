package todomvc

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/todoracle/internal/item"
	"github.com/roach88/todoracle/internal/surface"
)

var _ surface.Session = (*App)(nil)

// Fill replaces the value of the primary input or of the inline editor.
func (a *App) Fill(ctx context.Context, loc surface.Locator, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.actionable(loc); err != nil {
		return err
	}
	if err := a.blur(ctx, loc); err != nil {
		return err
	}

	switch loc.Hook {
	case surface.HookNewItem:
		a.input = text
	case surface.HookEditInput:
		a.draft = text
	default:
		return fmt.Errorf("%s: element is not a text input", loc)
	}
	return nil
}

// Press sends a key to the primary input or the inline editor. Enter submits,
// Escape cancels an edit.
func (a *App) Press(ctx context.Context, loc surface.Locator, key surface.Key) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.actionable(loc); err != nil {
		return err
	}

	switch loc.Hook {
	case surface.HookNewItem:
		if key != surface.KeyEnter {
			return nil
		}
		text := strings.TrimSpace(a.input)
		a.input = ""
		if text == "" {
			return nil
		}
		a.items = append(a.items, item.Item{Text: text})
		return a.commit(ctx)
	case surface.HookEditInput:
		switch key {
		case surface.KeyEnter:
			return a.finishEdit(ctx, true)
		case surface.KeyEscape:
			return a.finishEdit(ctx, false)
		}
		return nil
	}
	return fmt.Errorf("%s: element does not accept key %q", loc, key)
}

// Click activates the addressed control.
func (a *App) Click(ctx context.Context, loc surface.Locator) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.actionable(loc); err != nil {
		return err
	}
	if err := a.blur(ctx, loc); err != nil {
		return err
	}
	// The edit may have changed the rows the locator was resolved against.
	if err := a.actionable(loc); err != nil {
		return err
	}

	switch loc.Hook {
	case surface.HookToggle:
		pos := a.view.rows[loc.Index].pos
		a.items[pos].Completed = !a.items[pos].Completed
		return a.commit(ctx)

	case surface.HookDestroy:
		pos := a.view.rows[loc.Index].pos
		a.items = append(a.items[:pos], a.items[pos+1:]...)
		a.hovered = -1
		return a.commit(ctx)

	case surface.HookFilter:
		f, err := routeFilter(loc.Param)
		if err != nil {
			return err
		}
		a.filter = f
		a.hovered = -1
		a.render()
		return nil

	case surface.HookClearCompleted:
		kept := a.items[:0]
		for _, it := range a.items {
			if !it.Completed {
				kept = append(kept, it)
			}
		}
		a.items = kept
		return a.commit(ctx)

	case surface.HookToggleAll:
		allDone := a.view.completed == a.view.total
		for i := range a.items {
			a.items[i].Completed = !allDone
		}
		return a.commit(ctx)
	}
	return nil
}

// DoubleClick on an item's title or row opens its inline editor. On any other
// control it acts as two clicks.
func (a *App) DoubleClick(ctx context.Context, loc surface.Locator) error {
	switch loc.Hook {
	case surface.HookItemTitle, surface.HookItemRow:
	default:
		if err := a.Click(ctx, loc); err != nil {
			return err
		}
		return a.Click(ctx, loc)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.actionable(loc); err != nil {
		return err
	}
	if err := a.blur(ctx, loc); err != nil {
		return err
	}
	if err := a.actionable(loc); err != nil {
		return err
	}

	r := a.view.rows[loc.Index]
	a.editing = r.pos
	a.draft = r.text
	return nil
}

// Hover moves the pointer over the addressed element. Hovering a row (or any
// of its parts) reveals that row's destroy control.
func (a *App) Hover(ctx context.Context, loc surface.Locator) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.resolve(loc); err != nil {
		return err
	}

	switch loc.Hook {
	case surface.HookItemRow, surface.HookItemTitle, surface.HookToggle, surface.HookDestroy:
		a.hovered = loc.Index
	default:
		a.hovered = -1
	}
	return nil
}

// Count returns the number of elements the hook matches. The locator index is
// ignored.
func (a *App) Count(ctx context.Context, loc surface.Locator) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count(loc), nil
}

// Texts returns the rendered text of the addressed element, or of every
// matched element when loc.Index is surface.All.
func (a *App) Texts(ctx context.Context, loc surface.Locator) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	all := a.textsOf(loc)
	if loc.Index == surface.All {
		return all, nil
	}
	if loc.Index < 0 || loc.Index >= len(all) {
		return []string{}, nil
	}
	return []string{all[loc.Index]}, nil
}

func (a *App) textsOf(loc surface.Locator) []string {
	n := a.count(loc)
	out := make([]string, 0, n)
	switch loc.Hook {
	case surface.HookItemRow, surface.HookItemTitle:
		for _, r := range a.view.rows {
			out = append(out, r.text)
		}
	case surface.HookNewItem:
		out = append(out, a.input)
	case surface.HookEditInput:
		if n > 0 {
			out = append(out, a.draft)
		}
	case surface.HookCounter:
		if n > 0 {
			out = append(out, counterText(a.view.total-a.view.completed))
		}
	case surface.HookClearCompleted:
		if n > 0 {
			out = append(out, "Clear completed")
		}
	case surface.HookFilter:
		if n > 0 {
			f, _ := routeFilter(loc.Param)
			out = append(out, strings.ToUpper(string(f[:1]))+string(f[1:]))
		}
	default:
		for i := 0; i < n; i++ {
			out = append(out, "")
		}
	}
	return out
}

// HasClass reports whether the addressed element carries class.
func (a *App) HasClass(ctx context.Context, loc surface.Locator, class string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.resolve(loc) != nil {
		return false, nil
	}

	switch loc.Hook {
	case surface.HookItemRow:
		r := a.view.rows[loc.Index]
		switch class {
		case classCompleted:
			return r.marked, nil
		case classEditing:
			return r.pos == a.editing, nil
		}
	case surface.HookFilter:
		f, _ := routeFilter(loc.Param)
		return class == classSelected && f == a.filter, nil
	}
	return false, nil
}

// Checked reads the checked state of a toggle control.
func (a *App) Checked(ctx context.Context, loc surface.Locator) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.resolve(loc) != nil {
		return false, nil
	}

	switch loc.Hook {
	case surface.HookToggle:
		return a.view.rows[loc.Index].completed, nil
	case surface.HookToggleAll:
		return a.view.completed == a.view.total, nil
	}
	return false, nil
}

// Visible reports whether the addressed element exists and is displayed.
func (a *App) Visible(ctx context.Context, loc surface.Locator) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.visible(loc), nil
}
