// Package page is the interaction façade over the todo application.
//
// A Page exposes one method per user-meaningful action and translates it into
// primitive surface interactions. Tests talk to the Page, never to selectors,
// so incidental markup changes are absorbed by the selector profile.
//
// Reads degrade to negative answers (false, "", 0) when their target is
// absent. Actions that need a target (edit, toggle, delete, filter) fail with
// ErrPrecondition when none qualifies.
package page

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/todoracle/internal/item"
	"github.com/roach88/todoracle/internal/surface"
)

// ErrPrecondition marks an action that could not run because its target does
// not exist in the current view.
var ErrPrecondition = errors.New("precondition violated")

// DefaultCompletedClass is the row class TodoMVC renders for completed items.
const DefaultCompletedClass = "completed"

// Page is the façade for one scenario's application instance.
// It is not safe for concurrent use; scenarios drive it sequentially.
type Page struct {
	driver         surface.Driver
	filter         item.Filter
	completedClass string
}

// Option configures a Page.
type Option func(*Page)

// WithCompletedClass sets the row class that visually marks completion.
func WithCompletedClass(class string) Option {
	return func(p *Page) {
		if class != "" {
			p.completedClass = class
		}
	}
}

// New creates a Page over driver. The page starts on the "all" filter,
// matching a freshly navigated application.
func New(driver surface.Driver, opts ...Option) *Page {
	p := &Page{
		driver:         driver,
		filter:         item.FilterAll,
		completedClass: DefaultCompletedClass,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Filter returns the filter last selected through SetFilter.
func (p *Page) Filter() item.Filter {
	return p.filter
}

// AddItem submits text as a new item through the primary input.
func (p *Page) AddItem(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("add item: %w: text must not be empty", ErrPrecondition)
	}

	input := surface.First(surface.HookNewItem)
	if err := p.driver.Fill(ctx, input, text); err != nil {
		return actionError("add item", err)
	}
	if err := p.driver.Press(ctx, input, surface.KeyEnter); err != nil {
		return actionError("add item", err)
	}
	return nil
}

// ItemTexts returns the texts of the rendered items in display order.
func (p *Page) ItemTexts(ctx context.Context) ([]string, error) {
	texts, err := p.driver.Texts(ctx, surface.Every(surface.HookItemTitle))
	if err != nil {
		return nil, fmt.Errorf("read item texts: %w", err)
	}
	if texts == nil {
		texts = []string{}
	}
	return texts, nil
}

// LastItemText returns the text of the last rendered item, or "" when the
// view is empty.
func (p *Page) LastItemText(ctx context.Context) (string, error) {
	texts, err := p.ItemTexts(ctx)
	if err != nil {
		return "", err
	}
	if len(texts) == 0 {
		return "", nil
	}
	return texts[len(texts)-1], nil
}

// IsItemVisible reports whether any rendered item with exactly the given
// text is visible. Duplicates are all considered.
func (p *Page) IsItemVisible(ctx context.Context, text string) (bool, error) {
	texts, err := p.ItemTexts(ctx)
	if err != nil {
		return false, err
	}
	for i, t := range texts {
		if !item.SameText(t, text) {
			continue
		}
		visible, err := p.driver.Visible(ctx, surface.At(surface.HookItemTitle, i))
		if err != nil {
			return false, fmt.Errorf("read visibility: %w", err)
		}
		if visible {
			return true, nil
		}
	}
	return false, nil
}

// EditFirstItem replaces the text of the first rendered item.
func (p *Page) EditFirstItem(ctx context.Context, newText string) error {
	return p.EditItem(ctx, 0, newText)
}

// EditItem opens the inline editor of the item at index with a double
// click, replaces its text and commits with Enter. Completion state and
// position are left untouched.
func (p *Page) EditItem(ctx context.Context, index int, newText string) error {
	if strings.TrimSpace(newText) == "" {
		return fmt.Errorf("edit item: %w: text must not be empty", ErrPrecondition)
	}

	if err := p.driver.DoubleClick(ctx, surface.At(surface.HookItemTitle, index)); err != nil {
		return actionError("edit item", err)
	}

	editor := surface.First(surface.HookEditInput)
	if err := p.driver.Fill(ctx, editor, newText); err != nil {
		return actionError("edit item", err)
	}
	if err := p.driver.Press(ctx, editor, surface.KeyEnter); err != nil {
		return actionError("edit item", err)
	}
	return nil
}

// ToggleCompletion flips the completed flag of the item at index within the
// current view.
func (p *Page) ToggleCompletion(ctx context.Context, index int) error {
	if err := p.driver.Click(ctx, surface.At(surface.HookToggle, index)); err != nil {
		return actionError("toggle completion", err)
	}
	return nil
}

// ToggleAll marks every item completed, or every item active when all are
// already completed.
func (p *Page) ToggleAll(ctx context.Context) error {
	if err := p.driver.Click(ctx, surface.First(surface.HookToggleAll)); err != nil {
		return actionError("toggle all", err)
	}
	return nil
}

// DeleteItem removes the item at index within the current view. The destroy
// control only appears while its row is hovered.
func (p *Page) DeleteItem(ctx context.Context, index int) error {
	if err := p.driver.Hover(ctx, surface.At(surface.HookItemRow, index)); err != nil {
		return actionError("delete item", err)
	}
	if err := p.driver.Click(ctx, surface.At(surface.HookDestroy, index)); err != nil {
		return actionError("delete item", err)
	}
	return nil
}

// DeleteItemByText removes the first rendered item with exactly text.
func (p *Page) DeleteItemByText(ctx context.Context, text string) error {
	idx, err := p.indexOf(ctx, text)
	if err != nil {
		return err
	}
	if idx < 0 {
		return fmt.Errorf("delete item: %w: no rendered item %q", ErrPrecondition, text)
	}
	return p.DeleteItem(ctx, idx)
}

// ClearCompleted removes every completed item. When no item is completed the
// application hides the control and the call is a no-op.
func (p *Page) ClearCompleted(ctx context.Context) error {
	n, err := p.driver.Count(ctx, surface.Every(surface.HookClearCompleted))
	if err != nil {
		return fmt.Errorf("clear completed: %w", err)
	}
	if n == 0 {
		return nil
	}
	if err := p.driver.Click(ctx, surface.First(surface.HookClearCompleted)); err != nil {
		return actionError("clear completed", err)
	}
	return nil
}

// SetFilter selects which subsequence of items is rendered.
func (p *Page) SetFilter(ctx context.Context, f item.Filter) error {
	f, err := item.ParseFilter(string(f))
	if err != nil {
		return fmt.Errorf("set filter: %w", err)
	}
	if err := p.driver.Click(ctx, surface.FilterLink(f.Route())); err != nil {
		return actionError("set filter", err)
	}
	p.filter = f
	return nil
}

// CountVisible returns the number of items in the current view.
func (p *Page) CountVisible(ctx context.Context) (int, error) {
	n, err := p.driver.Count(ctx, surface.Every(surface.HookItemTitle))
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// IsCompleted reads the completed flag of the item at index from its toggle
// control. Out-of-range indexes read as false.
func (p *Page) IsCompleted(ctx context.Context, index int) (bool, error) {
	if index < 0 {
		return false, nil
	}
	checked, err := p.driver.Checked(ctx, surface.At(surface.HookToggle, index))
	if err != nil {
		return false, fmt.Errorf("read completed flag: %w", err)
	}
	return checked, nil
}

// IsVisuallyMarkedCompleted reports whether the row at index carries the
// completed style marker. It is read independently of IsCompleted so that a
// set flag with a missing style is detectable.
func (p *Page) IsVisuallyMarkedCompleted(ctx context.Context, index int) (bool, error) {
	if index < 0 {
		return false, nil
	}
	marked, err := p.driver.HasClass(ctx, surface.At(surface.HookItemRow, index), p.completedClass)
	if err != nil {
		return false, fmt.Errorf("read completed marker: %w", err)
	}
	return marked, nil
}

// View returns the rendered items with their completed flags, in order.
func (p *Page) View(ctx context.Context) ([]item.Item, error) {
	texts, err := p.ItemTexts(ctx)
	if err != nil {
		return nil, err
	}
	view := make([]item.Item, len(texts))
	for i, text := range texts {
		completed, err := p.IsCompleted(ctx, i)
		if err != nil {
			return nil, err
		}
		view[i] = item.Item{Text: text, Completed: completed}
	}
	return view, nil
}

// ItemsLeft parses the footer counter ("3 items left"). It returns 0 when
// the counter is not rendered.
func (p *Page) ItemsLeft(ctx context.Context) (int, error) {
	texts, err := p.driver.Texts(ctx, surface.Every(surface.HookCounter))
	if err != nil {
		return 0, fmt.Errorf("read counter: %w", err)
	}
	if len(texts) == 0 {
		return 0, nil
	}
	fields := strings.Fields(texts[0])
	if len(fields) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("parse counter %q: %w", texts[0], err)
	}
	return n, nil
}

// indexOf returns the view index of the first item with exactly text, or -1.
func (p *Page) indexOf(ctx context.Context, text string) (int, error) {
	texts, err := p.ItemTexts(ctx)
	if err != nil {
		return -1, err
	}
	for i, t := range texts {
		if item.SameText(t, text) {
			return i, nil
		}
	}
	return -1, nil
}

// actionError classifies a driver failure. A missing or unreachable target is
// a precondition violation; anything else is passed through wrapped.
func actionError(op string, err error) error {
	if errors.Is(err, surface.ErrNoElement) ||
		errors.Is(err, surface.ErrOutOfRange) ||
		errors.Is(err, surface.ErrNotVisible) {
		return fmt.Errorf("%s: %w: %w", op, ErrPrecondition, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
