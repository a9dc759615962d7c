package oracle

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/todoracle/internal/item"
)

// Expectation is the outcome a scenario author expects after a step.
// Unset fields are not checked.
type Expectation struct {
	Total          *int         `yaml:"total,omitempty" json:"total,omitempty"`
	Completed      *int         `yaml:"completed,omitempty" json:"completed,omitempty"`
	Visible        *int         `yaml:"visible,omitempty" json:"visible,omitempty"`
	LastText       *string      `yaml:"last_text,omitempty" json:"last_text,omitempty"`
	Present        []string     `yaml:"present,omitempty" json:"present,omitempty"`
	Absent         []string     `yaml:"absent,omitempty" json:"absent,omitempty"`
	CompletedTexts []string     `yaml:"completed_texts,omitempty" json:"completed_texts,omitempty"`
	CompletedAt    map[int]bool `yaml:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// IsZero reports whether the expectation checks nothing.
func (e Expectation) IsZero() bool {
	return e.Total == nil && e.Completed == nil && e.Visible == nil &&
		e.LastText == nil && len(e.Present) == 0 && len(e.Absent) == 0 &&
		len(e.CompletedTexts) == 0 && len(e.CompletedAt) == 0
}

// Validate rejects expectations that can never hold.
func (e Expectation) Validate() error {
	if e.Total != nil && *e.Total < 0 {
		return fmt.Errorf("total must not be negative, got %d", *e.Total)
	}
	if e.Completed != nil && *e.Completed < 0 {
		return fmt.Errorf("completed must not be negative, got %d", *e.Completed)
	}
	if e.Visible != nil && *e.Visible < 0 {
		return fmt.Errorf("visible must not be negative, got %d", *e.Visible)
	}
	if e.Total != nil && e.Completed != nil && *e.Completed > *e.Total {
		return fmt.Errorf("completed (%d) exceeds total (%d)", *e.Completed, *e.Total)
	}
	for idx := range e.CompletedAt {
		if idx < 0 {
			return fmt.Errorf("completed_at index must not be negative, got %d", idx)
		}
	}
	for _, text := range e.Present {
		for _, other := range e.Absent {
			if item.SameText(text, other) {
				return fmt.Errorf("%q is expected both present and absent", text)
			}
		}
	}
	return nil
}

// Verify checks every field of exp on the persistence side and, where the
// view can show it, on the UI side, then cross-checks the two sides.
// All mismatches are returned joined; an error that is not a mismatch means
// a side could not be read and aborts verification.
func (o *Oracle) Verify(ctx context.Context, view ViewReader, exp Expectation) error {
	var mismatches []error
	run := func(err error) error {
		if err == nil {
			return nil
		}
		if len(Mismatches(err)) == 0 {
			return err
		}
		mismatches = append(mismatches, err)
		return nil
	}

	for _, err := range o.checks(ctx, view, exp) {
		if hard := run(err()); hard != nil {
			return hard
		}
	}
	if hard := run(o.CrossCheck(ctx, view)); hard != nil {
		return hard
	}
	return errors.Join(mismatches...)
}

// checks lists the expectation's checks in a stable order.
func (o *Oracle) checks(ctx context.Context, view ViewReader, exp Expectation) []func() error {
	var out []func() error
	unfiltered := view.Filter() == item.FilterAll

	if exp.Total != nil {
		n := *exp.Total
		out = append(out, func() error { return o.CheckCount(ctx, n) })
		if unfiltered {
			out = append(out, func() error { return o.checkVisible(ctx, view, "total", n) })
		}
	}
	if exp.Completed != nil {
		n := *exp.Completed
		out = append(out, func() error { return o.CheckCompletedCount(ctx, n) })
	}
	if exp.Visible != nil {
		n := *exp.Visible
		out = append(out, func() error { return o.checkVisible(ctx, view, "visible", n) })
	}
	if exp.LastText != nil {
		text := *exp.LastText
		out = append(out, func() error { return o.checkLastText(ctx, view, text) })
	}
	for _, text := range exp.Present {
		out = append(out, func() error { return o.CheckItemPresent(ctx, text) })
		if unfiltered {
			out = append(out, func() error { return o.checkRendered(ctx, view, text, true) })
		}
	}
	for _, text := range exp.Absent {
		out = append(out,
			func() error { return o.CheckItemAbsent(ctx, text) },
			func() error { return o.checkRendered(ctx, view, text, false) },
		)
	}
	for _, text := range exp.CompletedTexts {
		out = append(out, func() error { return o.CheckItemCompleted(ctx, text) })
	}

	indexes := make([]int, 0, len(exp.CompletedAt))
	for idx := range exp.CompletedAt {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		want := exp.CompletedAt[idx]
		out = append(out, func() error { return o.checkCompletedAt(ctx, view, idx, want) })
	}
	return out
}

func (o *Oracle) checkVisible(ctx context.Context, view ViewReader, check string, want int) error {
	check = "visible_" + check
	return o.await(ctx, check, func(ctx context.Context) (*MismatchError, error) {
		n, err := view.CountVisible(ctx)
		if err != nil {
			return nil, err
		}
		if n == want {
			return nil, nil
		}
		return &MismatchError{
			Check:    check,
			Left:     SideExpected,
			Right:    SideUI,
			Expected: fmt.Sprintf("%d rendered", want),
			Actual:   fmt.Sprintf("%d rendered", n),
		}, nil
	})
}

func (o *Oracle) checkLastText(ctx context.Context, view ViewReader, want string) error {
	return o.await(ctx, "last_text", func(ctx context.Context) (*MismatchError, error) {
		got, err := view.LastItemText(ctx)
		if err != nil {
			return nil, err
		}
		if item.SameText(got, want) {
			return nil, nil
		}
		return &MismatchError{
			Check:    "last_text",
			Left:     SideExpected,
			Right:    SideUI,
			Expected: fmt.Sprintf("%q", want),
			Actual:   fmt.Sprintf("%q", got),
		}, nil
	})
}

func (o *Oracle) checkRendered(ctx context.Context, view ViewReader, text string, want bool) error {
	check := fmt.Sprintf("rendered(%q)", text)
	return o.await(ctx, check, func(ctx context.Context) (*MismatchError, error) {
		got, err := view.IsItemVisible(ctx, text)
		if err != nil {
			return nil, err
		}
		if got == want {
			return nil, nil
		}
		return &MismatchError{
			Check:    check,
			Left:     SideExpected,
			Right:    SideUI,
			Expected: presence(want),
			Actual:   presence(got),
		}, nil
	})
}

// checkCompletedAt verifies the flag at a view index and that its visual
// marker agrees.
func (o *Oracle) checkCompletedAt(ctx context.Context, view ViewReader, idx int, want bool) error {
	check := fmt.Sprintf("completed_at[%d]", idx)
	return o.await(ctx, check, func(ctx context.Context) (*MismatchError, error) {
		flag, err := view.IsCompleted(ctx, idx)
		if err != nil {
			return nil, err
		}
		if flag != want {
			return &MismatchError{
				Check:    check,
				Left:     SideExpected,
				Right:    SideUI,
				Expected: "flag " + completion(want),
				Actual:   "flag " + completion(flag),
			}, nil
		}
		marked, err := view.IsVisuallyMarkedCompleted(ctx, idx)
		if err != nil {
			return nil, err
		}
		if marked != want {
			return &MismatchError{
				Check:    check,
				Left:     SideExpected,
				Right:    SideUI,
				Expected: "marker " + completion(want),
				Actual:   "marker " + completion(marked),
			}, nil
		}
		return nil, nil
	})
}
