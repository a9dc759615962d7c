package todomvc

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/todoracle/internal/item"
	"github.com/roach88/todoracle/internal/surface"
)

// Storage persists an application's item list.
type Storage interface {
	SaveItems(ctx context.Context, appID string, items []item.Item) error
	LoadItems(ctx context.Context, appID string) (item.Snapshot, error)
	DeleteItems(ctx context.Context, appID string) error
}

// Fault names an injectable defect.
type Fault string

// Injectable faults.
const (
	FaultDropWrite     Fault = "drop_write"
	FaultMissingMarker Fault = "missing_marker"
	FaultStaleRender   Fault = "stale_render"
)

// ParseFault converts a fault name into a Fault.
func ParseFault(s string) (Fault, error) {
	switch f := Fault(s); f {
	case FaultDropWrite, FaultMissingMarker, FaultStaleRender:
		return f, nil
	}
	return "", fmt.Errorf("unknown fault %q", s)
}

// Classes rendered on item rows and filter links.
const (
	classCompleted = "completed"
	classEditing   = "editing"
	classSelected  = "selected"
)

// row is one rendered item.
type row struct {
	pos       int // index into App.items
	text      string
	completed bool
	marked    bool
}

// frame is the rendered state of the page.
type frame struct {
	rows      []row
	total     int
	completed int
}

// App is one application instance. Create it with New or through an Opener.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex,
// but a scenario drives an App sequentially.
type App struct {
	mu      sync.Mutex
	id      string
	storage Storage
	faults  map[Fault]bool

	items   []item.Item
	filter  item.Filter
	input   string
	editing int // position being edited, -1 when none
	draft   string
	hovered int // rendered row index under the pointer, -1 when none

	view frame
}

// Option configures an App.
type Option func(*App)

// WithFaults enables faults from the start.
func WithFaults(faults ...Fault) Option {
	return func(a *App) {
		for _, f := range faults {
			a.faults[f] = true
		}
	}
}

// WithID fixes the instance ID instead of generating a UUIDv7.
func WithID(id string) Option {
	return func(a *App) {
		a.id = id
	}
}

// New creates an empty application instance persisting to storage.
func New(storage Storage, opts ...Option) *App {
	a := &App{
		id:      uuid.Must(uuid.NewV7()).String(),
		storage: storage,
		faults:  make(map[Fault]bool),
		filter:  item.FilterAll,
		editing: -1,
		hovered: -1,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.render()
	return a
}

// ID returns the instance ID the application persists under.
func (a *App) ID() string {
	return a.id
}

// SetFault turns a fault on or off for subsequent interactions.
func (a *App) SetFault(f Fault, on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.faults[f] = on
}

// Reload discards in-memory state and re-reads the list from storage, like a
// page reload. The filter survives, as the route does in a browser.
func (a *App) Reload(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap, err := a.storage.LoadItems(ctx, a.id)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	a.items = append([]item.Item(nil), snap...)
	a.input = ""
	a.editing = -1
	a.draft = ""
	a.hovered = -1
	a.render()
	return nil
}

// ReadPersistedItems returns the list as stored, independent of rendering.
func (a *App) ReadPersistedItems(ctx context.Context) (item.Snapshot, error) {
	snap, err := a.storage.LoadItems(ctx, a.id)
	if err != nil {
		return nil, fmt.Errorf("read persisted items: %w", err)
	}
	return snap, nil
}

// Close discards the instance's persisted items, as closing a browser
// context discards its localStorage. The storage itself is owned by the
// caller.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.storage.DeleteItems(context.Background(), a.id); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// render rebuilds the rendered frame from the item list.
func (a *App) render() {
	f := frame{total: len(a.items)}
	for pos, it := range a.items {
		if it.Completed {
			f.completed++
		}
		if !a.filter.Match(it) {
			continue
		}
		f.rows = append(f.rows, row{
			pos:       pos,
			text:      it.Text,
			completed: it.Completed,
			marked:    it.Completed && !a.faults[FaultMissingMarker],
		})
	}
	a.view = f
}

// commit persists the item list and re-renders, subject to faults.
func (a *App) commit(ctx context.Context) error {
	if !a.faults[FaultStaleRender] {
		a.render()
	}
	if a.faults[FaultDropWrite] {
		return nil
	}
	if err := a.storage.SaveItems(ctx, a.id, a.items); err != nil {
		return fmt.Errorf("persist items: %w", err)
	}
	return nil
}

// count returns how many elements a hook currently matches.
func (a *App) count(loc surface.Locator) int {
	footer := a.view.total > 0
	switch loc.Hook {
	case surface.HookNewItem:
		return 1
	case surface.HookItemRow, surface.HookItemTitle, surface.HookToggle, surface.HookDestroy:
		return len(a.view.rows)
	case surface.HookEditInput:
		if a.editing >= 0 {
			return 1
		}
	case surface.HookFilter:
		if _, err := routeFilter(loc.Param); err == nil && footer {
			return 1
		}
	case surface.HookClearCompleted:
		if a.view.completed > 0 {
			return 1
		}
	case surface.HookToggleAll, surface.HookCounter:
		if footer {
			return 1
		}
	}
	return 0
}

// resolve checks that loc addresses exactly one existing element.
func (a *App) resolve(loc surface.Locator) error {
	return surface.ResolveIndex(loc, a.count(loc))
}

// visible reports whether the resolved element can receive input.
func (a *App) visible(loc surface.Locator) bool {
	if a.resolve(loc) != nil {
		return false
	}
	switch loc.Hook {
	case surface.HookDestroy:
		return a.hovered == loc.Index
	case surface.HookItemTitle, surface.HookToggle:
		return a.view.rows[loc.Index].pos != a.editing
	}
	return true
}

// actionable resolves loc and checks it is visible.
func (a *App) actionable(loc surface.Locator) error {
	if err := a.resolve(loc); err != nil {
		return err
	}
	if !a.visible(loc) {
		return fmt.Errorf("%s: %w", loc, surface.ErrNotVisible)
	}
	return nil
}

// blur commits a pending edit when focus moves to another element, as
// TodoMVC does on the editor's blur event.
func (a *App) blur(ctx context.Context, loc surface.Locator) error {
	if a.editing < 0 || loc.Hook == surface.HookEditInput {
		return nil
	}
	return a.finishEdit(ctx, true)
}

func (a *App) finishEdit(ctx context.Context, save bool) error {
	pos := a.editing
	a.editing = -1
	if !save {
		a.draft = ""
		a.render()
		return nil
	}

	text := strings.TrimSpace(a.draft)
	a.draft = ""
	if text == "" {
		a.items = append(a.items[:pos], a.items[pos+1:]...)
	} else {
		a.items[pos].Text = text
	}
	return a.commit(ctx)
}

func routeFilter(route string) (item.Filter, error) {
	switch route {
	case "":
		return item.FilterAll, nil
	case "active":
		return item.FilterActive, nil
	case "completed":
		return item.FilterCompleted, nil
	}
	return "", fmt.Errorf("unknown route %q", route)
}

func counterText(active int) string {
	if active == 1 {
		return "1 item left"
	}
	return strconv.Itoa(active) + " items left"
}
