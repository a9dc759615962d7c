package todomvc

import (
	"context"

	"github.com/roach88/todoracle/internal/surface"
)

// Opener creates a fresh App per session, all sharing one Storage.
// Apps never see each other's items because each persists under its own ID.
type Opener struct {
	storage Storage
	opts    []Option
}

// NewOpener returns an Opener whose apps persist to storage.
func NewOpener(storage Storage, opts ...Option) *Opener {
	return &Opener{storage: storage, opts: opts}
}

// Open returns a new, empty application instance.
func (o *Opener) Open(ctx context.Context) (surface.Session, error) {
	return New(o.storage, o.opts...), nil
}
