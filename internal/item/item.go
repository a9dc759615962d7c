// Package item defines the todo list data model shared by the page façade,
// the state oracle and the persistence readers.
//
// An Item has no identity beyond its text and its position in the list.
// Editing replaces text in place; it never creates a new item.
package item

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Item is a single list entry.
type Item struct {
	Text      string `json:"title"`
	Completed bool   `json:"completed"`
}

// String renders the item the way diagnostics print it: [x] text or [ ] text.
func (i Item) String() string {
	if i.Completed {
		return "[x] " + i.Text
	}
	return "[ ] " + i.Text
}

// SameText reports whether two item texts are equal after NFC normalization.
// Rendered text and stored text may differ only in normalization form.
func SameText(a, b string) bool {
	return norm.NFC.String(a) == norm.NFC.String(b)
}

// Filter selects which subsequence of the list is rendered.
type Filter string

// Filter values.
const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Filters lists every valid filter in display order.
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

// ParseFilter converts a status name into a Filter.
// The empty string is treated as FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterActive:
		return FilterActive, nil
	case FilterCompleted:
		return FilterCompleted, nil
	}
	return "", fmt.Errorf("unknown filter %q: must be one of %v", s, Filters)
}

// Route returns the hash route the application uses for the filter.
func (f Filter) Route() string {
	switch f {
	case FilterActive:
		return "active"
	case FilterCompleted:
		return "completed"
	}
	return ""
}

// Match reports whether an item is rendered under the filter.
func (f Filter) Match(it Item) bool {
	switch f {
	case FilterActive:
		return !it.Completed
	case FilterCompleted:
		return it.Completed
	}
	return true
}

// Apply returns the subsequence of items matching the filter.
// Relative order is preserved and the input is never modified.
func (f Filter) Apply(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if f.Match(it) {
			out = append(out, it)
		}
	}
	return out
}
