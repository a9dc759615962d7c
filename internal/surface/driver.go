package surface

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/todoracle/internal/item"
)

var (
	// ErrNoElement is returned when an action targets a locator that matches
	// nothing.
	ErrNoElement = errors.New("no matching element")

	// ErrOutOfRange is returned when a locator index exceeds the number of
	// matched elements.
	ErrOutOfRange = errors.New("element index out of range")

	// ErrNotVisible is returned when an action targets an element that exists
	// but cannot currently receive input.
	ErrNotVisible = errors.New("element not visible")
)

// ResolveIndex checks idx against the number of matched elements n.
// It returns ErrNoElement when nothing matched and ErrOutOfRange when idx is
// outside [0, n).
func ResolveIndex(loc Locator, n int) error {
	if n == 0 {
		return fmt.Errorf("%s: %w", loc, ErrNoElement)
	}
	if loc.Index < 0 || loc.Index >= n {
		return fmt.Errorf("%s: %w (have %d)", loc, ErrOutOfRange, n)
	}
	return nil
}

// Driver performs primitive interactions against the surface.
//
// Actions (Fill, Press, Click, DoubleClick, Hover) require their locator to
// resolve to exactly one element and fail with ErrNoElement or ErrOutOfRange
// otherwise. Reads never fail for a missing element: Count returns 0, Texts
// returns an empty slice, and HasClass, Checked and Visible return false.
// Errors from reads signal a broken transport, never an absent target.
type Driver interface {
	Fill(ctx context.Context, loc Locator, text string) error
	Press(ctx context.Context, loc Locator, key Key) error
	Click(ctx context.Context, loc Locator) error
	DoubleClick(ctx context.Context, loc Locator) error
	Hover(ctx context.Context, loc Locator) error

	Count(ctx context.Context, loc Locator) (int, error)
	Texts(ctx context.Context, loc Locator) ([]string, error)
	HasClass(ctx context.Context, loc Locator, class string) (bool, error)
	Checked(ctx context.Context, loc Locator) (bool, error)
	Visible(ctx context.Context, loc Locator) (bool, error)
}

// SnapshotReader reads the durable item set of the application.
// It must only be called when no interaction is in flight.
type SnapshotReader interface {
	ReadPersistedItems(ctx context.Context) (item.Snapshot, error)
}

// Session is one isolated instance of the application surface together with
// a reader for its persisted state. A session belongs to one scenario.
type Session interface {
	Driver
	SnapshotReader
	Close() error
}

// Opener creates a fresh Session, navigated to a pristine application.
type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context) (Session, error)

// Open calls f(ctx).
func (f OpenerFunc) Open(ctx context.Context) (Session, error) {
	return f(ctx)
}
