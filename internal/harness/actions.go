package harness

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/todoracle/internal/item"
	"github.com/roach88/todoracle/internal/page"
)

// args are a step's YAML arguments.
type args map[string]any

// text returns a required non-empty string argument.
func (a args) text(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", fmt.Errorf("missing argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", key, v)
	}
	if s == "" {
		return "", fmt.Errorf("argument %q must not be empty", key)
	}
	return s, nil
}

// index returns a required non-negative integer argument.
func (a args) index(key string) (int, error) {
	v, ok := a[key]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", key)
	}
	var n int
	switch x := v.(type) {
	case int:
		n = x
	case int64:
		n = int(x)
	case float64:
		// JSON-sourced arguments arrive as float64.
		if x != float64(int(x)) {
			return 0, fmt.Errorf("argument %q must be an integer, got %v", key, x)
		}
		n = int(x)
	default:
		return 0, fmt.Errorf("argument %q must be an integer, got %T", key, v)
	}
	if n < 0 {
		return 0, fmt.Errorf("argument %q must not be negative, got %d", key, n)
	}
	return n, nil
}

// only rejects arguments outside keys.
func (a args) only(keys ...string) error {
	for k := range a {
		known := false
		for _, want := range keys {
			known = known || k == want
		}
		if !known {
			return fmt.Errorf("unexpected argument %q", k)
		}
	}
	return nil
}

// action is one scenario operation mapped onto the page façade.
type action struct {
	validate func(a args) error
	run      func(ctx context.Context, p *page.Page, a args) error
}

var actions = map[string]action{
	"add_item": {
		validate: func(a args) error {
			if _, err := a.text("text"); err != nil {
				return err
			}
			return a.only("text")
		},
		run: func(ctx context.Context, p *page.Page, a args) error {
			text, _ := a.text("text")
			return p.AddItem(ctx, text)
		},
	},
	"edit_first": {
		validate: func(a args) error {
			if _, err := a.text("text"); err != nil {
				return err
			}
			return a.only("text")
		},
		run: func(ctx context.Context, p *page.Page, a args) error {
			text, _ := a.text("text")
			return p.EditFirstItem(ctx, text)
		},
	},
	"edit": {
		validate: func(a args) error {
			if _, err := a.index("index"); err != nil {
				return err
			}
			if _, err := a.text("text"); err != nil {
				return err
			}
			return a.only("index", "text")
		},
		run: func(ctx context.Context, p *page.Page, a args) error {
			idx, _ := a.index("index")
			text, _ := a.text("text")
			return p.EditItem(ctx, idx, text)
		},
	},
	"toggle": {
		validate: func(a args) error {
			if _, ok := a["index"]; ok {
				if _, err := a.index("index"); err != nil {
					return err
				}
			}
			return a.only("index")
		},
		run: func(ctx context.Context, p *page.Page, a args) error {
			// The index defaults to the first item.
			idx, _ := a.index("index")
			return p.ToggleCompletion(ctx, idx)
		},
	},
	"toggle_all": {
		validate: func(a args) error { return a.only() },
		run: func(ctx context.Context, p *page.Page, a args) error {
			return p.ToggleAll(ctx)
		},
	},
	"delete": {
		validate: func(a args) error {
			_, hasIndex := a["index"]
			_, hasText := a["text"]
			switch {
			case hasIndex == hasText:
				return fmt.Errorf("exactly one of \"index\" or \"text\" is required")
			case hasIndex:
				if _, err := a.index("index"); err != nil {
					return err
				}
			default:
				if _, err := a.text("text"); err != nil {
					return err
				}
			}
			return a.only("index", "text")
		},
		run: func(ctx context.Context, p *page.Page, a args) error {
			if text, err := a.text("text"); err == nil {
				return p.DeleteItemByText(ctx, text)
			}
			idx, _ := a.index("index")
			return p.DeleteItem(ctx, idx)
		},
	},
	"clear_completed": {
		validate: func(a args) error { return a.only() },
		run: func(ctx context.Context, p *page.Page, a args) error {
			return p.ClearCompleted(ctx)
		},
	},
	"filter": {
		validate: func(a args) error {
			status, err := a.text("status")
			if err != nil {
				return err
			}
			if _, err := item.ParseFilter(status); err != nil {
				return err
			}
			return a.only("status")
		},
		run: func(ctx context.Context, p *page.Page, a args) error {
			status, _ := a.text("status")
			f, _ := item.ParseFilter(status)
			return p.SetFilter(ctx, f)
		},
	},
}

// ActionNames lists the supported scenario actions, sorted.
func ActionNames() []string {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
