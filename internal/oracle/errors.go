package oracle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/todoracle/internal/item"
)

// Side names one of the observations a check compares.
type Side string

// Sides.
const (
	SideUI          Side = "ui"
	SidePersistence Side = "persistence"
	SideExpected    Side = "expected"
)

// MismatchError reports two observations that disagree.
// Expected is the value seen on the Left side, Actual the value on the Right.
type MismatchError struct {
	Check    string        // e.g. "count", "cross_check", "marker[0]"
	Left     Side          // side holding Expected
	Right    Side          // side holding Actual
	Expected string        // human-readable value on the left side
	Actual   string        // human-readable value on the right side
	Snapshot item.Snapshot // persisted items when the check gave up
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "mismatch: %s (%s vs %s)\n", e.Check, e.Left, e.Right)
	fmt.Fprintf(&buf, "  %s: %s\n", e.Left, e.Expected)
	fmt.Fprintf(&buf, "  %s: %s\n", e.Right, e.Actual)
	fmt.Fprintf(&buf, "  snapshot: %s", e.Snapshot)

	return buf.String()
}

// Mismatches extracts every *MismatchError from err, including those joined
// by Verify.
func Mismatches(err error) []*MismatchError {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*MismatchError
		for _, e := range joined.Unwrap() {
			out = append(out, Mismatches(e)...)
		}
		return out
	}

	var mm *MismatchError
	if errors.As(err, &mm) {
		return []*MismatchError{mm}
	}
	return nil
}
