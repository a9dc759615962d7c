package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/todoracle/internal/browser"
	"github.com/roach88/todoracle/internal/config"
	"github.com/roach88/todoracle/internal/profile"
	"github.com/roach88/todoracle/internal/store"
	"github.com/roach88/todoracle/internal/surface"
	"github.com/roach88/todoracle/internal/todomvc"
)

// nopCloser is returned when an opener holds nothing to release.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// loadProfile returns the configured selector profile or the built-in one.
func loadProfile(path string) (*profile.Profile, error) {
	if path == "" {
		return profile.Default(), nil
	}
	return profile.Load(path)
}

// newOpener builds the session opener for the configured driver. The closer
// releases what the opener shares across sessions.
func newOpener(cfg *config.Config, prof *profile.Profile, logger *slog.Logger) (surface.Opener, io.Closer, error) {
	browserOpts := browser.Options{
		URL:        cfg.URL,
		Headless:   cfg.Headless,
		StorageKey: cfg.StorageKey,
		Profile:    prof,
		LoadWait:   cfg.Timeout,
		Logger:     logger,
	}

	switch cfg.Driver {
	case config.DriverMemory:
		// The in-process app keeps its items in a private in-memory store.
		st, err := store.Open(":memory:")
		if err != nil {
			return nil, nil, fmt.Errorf("open item store: %w", err)
		}
		return todomvc.NewOpener(st), st, nil
	case config.DriverChromedp:
		return browser.NewChromeOpener(browserOpts), nopCloser{}, nil
	case config.DriverRod:
		o := browser.NewRodOpener(browserOpts)
		return o, o, nil
	default:
		return nil, nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}
