package item

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Snapshot is a point-in-time copy of the full, unfiltered item set as held
// by durable storage.
type Snapshot []Item

// Total returns the number of persisted items.
func (s Snapshot) Total() int {
	return len(s)
}

// CompletedCount returns the number of persisted items with Completed set.
func (s Snapshot) CompletedCount() int {
	n := 0
	for _, it := range s {
		if it.Completed {
			n++
		}
	}
	return n
}

// ActiveCount returns the number of persisted items not yet completed.
func (s Snapshot) ActiveCount() int {
	return len(s) - s.CompletedCount()
}

// Find returns the first item whose text equals text.
func (s Snapshot) Find(text string) (Item, bool) {
	for _, it := range s {
		if SameText(it.Text, text) {
			return it, true
		}
	}
	return Item{}, false
}

// Contains reports whether an item with exactly the given text is persisted.
func (s Snapshot) Contains(text string) bool {
	_, ok := s.Find(text)
	return ok
}

// Texts returns the item texts in order.
func (s Snapshot) Texts() []string {
	out := make([]string, len(s))
	for i, it := range s {
		out[i] = it.Text
	}
	return out
}

// String renders the snapshot on one line for diagnostics.
func (s Snapshot) String() string {
	if len(s) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(s))
	for i, it := range s {
		parts[i] = it.String()
	}
	return strings.Join(parts, ", ")
}

// storedItem mirrors the JSON the application writes to storage.
// Extra fields such as id are ignored.
type storedItem struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// DecodeSnapshot parses the JSON array an application keeps in storage.
// An empty or "null" payload is an empty snapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return Snapshot{}, nil
	}

	var stored []storedItem
	if err := json.Unmarshal([]byte(trimmed), &stored); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	snap := make(Snapshot, len(stored))
	for i, st := range stored {
		snap[i] = Item{Text: st.Title, Completed: st.Completed}
	}
	return snap, nil
}
