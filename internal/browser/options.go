package browser

import (
	"io"
	"log/slog"
	"time"

	"github.com/roach88/todoracle/internal/profile"
)

// Defaults for Options.
const (
	DefaultURL        = "https://demo.playwright.dev/todomvc"
	DefaultStorageKey = "react-todos"
	DefaultLoadWait   = 30 * time.Second
)

// Options configure a browser opener.
type Options struct {
	URL        string           // application entry point
	Headless   bool             // run without a window
	StorageKey string           // localStorage key holding the item list
	Profile    *profile.Profile // hook to selector mapping
	LoadWait   time.Duration    // bound on navigation in Open
	Logger     *slog.Logger
}

// withDefaults fills unset fields.
func (o Options) withDefaults() Options {
	if o.URL == "" {
		o.URL = DefaultURL
	}
	if o.StorageKey == "" {
		o.StorageKey = DefaultStorageKey
	}
	if o.Profile == nil {
		o.Profile = profile.Default()
	}
	if o.LoadWait <= 0 {
		o.LoadWait = DefaultLoadWait
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
