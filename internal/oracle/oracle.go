package oracle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/todoracle/internal/item"
)

// Default settling parameters.
const (
	DefaultSettleTimeout = 5 * time.Second
	DefaultPollInterval  = 50 * time.Millisecond
)

// SnapshotReader reads the durable item set of the application under test.
type SnapshotReader interface {
	ReadPersistedItems(ctx context.Context) (item.Snapshot, error)
}

// ViewReader reads the rendered list. *page.Page implements it.
type ViewReader interface {
	Filter() item.Filter
	View(ctx context.Context) ([]item.Item, error)
	CountVisible(ctx context.Context) (int, error)
	LastItemText(ctx context.Context) (string, error)
	IsItemVisible(ctx context.Context, text string) (bool, error)
	IsCompleted(ctx context.Context, index int) (bool, error)
	IsVisuallyMarkedCompleted(ctx context.Context, index int) (bool, error)
}

// Oracle checks persisted state, and its agreement with the rendered view,
// against expectations.
type Oracle struct {
	reader SnapshotReader
	settle time.Duration
	poll   time.Duration
	logger *slog.Logger
}

// Option configures an Oracle.
type Option func(*Oracle)

// WithSettleTimeout bounds how long a check waits for state to converge.
// Zero makes every check a single observation.
func WithSettleTimeout(d time.Duration) Option {
	return func(o *Oracle) {
		if d >= 0 {
			o.settle = d
		}
	}
}

// WithPollInterval sets the delay between observations while settling.
func WithPollInterval(d time.Duration) Option {
	return func(o *Oracle) {
		if d > 0 {
			o.poll = d
		}
	}
}

// WithLogger sets the logger for settle diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Oracle) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an Oracle reading persisted state through reader.
func New(reader SnapshotReader, opts ...Option) *Oracle {
	o := &Oracle{
		reader: reader,
		settle: DefaultSettleTimeout,
		poll:   DefaultPollInterval,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// probe makes one observation. It returns nil, nil when the check holds and
// an error only when an observation could not be made at all.
type probe func(ctx context.Context) (*MismatchError, error)

// await runs p until it holds or the settle window closes.
func (o *Oracle) await(ctx context.Context, check string, p probe) error {
	if o.settle > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.settle)
		defer cancel()
	}

	var last *MismatchError
	for attempt := 1; ; attempt++ {
		mm, err := p(ctx)
		if err != nil {
			// An observation cut short by the deadline still settles as the
			// last mismatch seen.
			if last != nil && ctx.Err() != nil {
				return o.finish(ctx, last, attempt)
			}
			return fmt.Errorf("%s: %w", check, err)
		}
		if mm == nil {
			if attempt > 1 {
				o.logger.Debug("check settled", "check", check, "attempts", attempt)
			}
			return nil
		}
		last = mm

		if o.settle <= 0 {
			return o.finish(ctx, last, attempt)
		}

		timer := time.NewTimer(o.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return o.finish(ctx, last, attempt)
		case <-timer.C:
		}
	}
}

// finish attaches a snapshot to mm when the probe did not read one.
func (o *Oracle) finish(ctx context.Context, mm *MismatchError, attempts int) error {
	o.logger.Debug("check gave up", "check", mm.Check, "attempts", attempts)

	if mm.Snapshot == nil {
		// The settle deadline may have passed; the diagnostic read gets its
		// own short window.
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		snap, err := o.reader.ReadPersistedItems(readCtx)
		if err != nil {
			return errors.Join(mm, fmt.Errorf("read snapshot for diagnostics: %w", err))
		}
		mm.Snapshot = snap
	}
	return mm
}

// snapshot reads the persisted items.
func (o *Oracle) snapshot(ctx context.Context) (item.Snapshot, error) {
	snap, err := o.reader.ReadPersistedItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("read persisted items: %w", err)
	}
	if snap == nil {
		snap = item.Snapshot{}
	}
	return snap, nil
}

// CheckCount verifies the persisted item count, regardless of any filter.
func (o *Oracle) CheckCount(ctx context.Context, expectedTotal int) error {
	return o.await(ctx, "count", func(ctx context.Context) (*MismatchError, error) {
		snap, err := o.snapshot(ctx)
		if err != nil {
			return nil, err
		}
		if snap.Total() == expectedTotal {
			return nil, nil
		}
		return &MismatchError{
			Check:    "count",
			Left:     SideExpected,
			Right:    SidePersistence,
			Expected: fmt.Sprintf("%d items", expectedTotal),
			Actual:   fmt.Sprintf("%d items", snap.Total()),
			Snapshot: snap,
		}, nil
	})
}

// CheckCompletedCount verifies how many persisted items are completed.
func (o *Oracle) CheckCompletedCount(ctx context.Context, expectedCompleted int) error {
	return o.await(ctx, "completed_count", func(ctx context.Context) (*MismatchError, error) {
		snap, err := o.snapshot(ctx)
		if err != nil {
			return nil, err
		}
		if snap.CompletedCount() == expectedCompleted {
			return nil, nil
		}
		return &MismatchError{
			Check:    "completed_count",
			Left:     SideExpected,
			Right:    SidePersistence,
			Expected: fmt.Sprintf("%d completed", expectedCompleted),
			Actual:   fmt.Sprintf("%d completed", snap.CompletedCount()),
			Snapshot: snap,
		}, nil
	})
}

// CheckItemPresent verifies an item with exactly text is persisted.
func (o *Oracle) CheckItemPresent(ctx context.Context, text string) error {
	return o.checkPresence(ctx, text, true)
}

// CheckItemAbsent verifies no item with exactly text is persisted.
func (o *Oracle) CheckItemAbsent(ctx context.Context, text string) error {
	return o.checkPresence(ctx, text, false)
}

func (o *Oracle) checkPresence(ctx context.Context, text string, want bool) error {
	check := fmt.Sprintf("item_absent(%q)", text)
	if want {
		check = fmt.Sprintf("item_present(%q)", text)
	}

	return o.await(ctx, check, func(ctx context.Context) (*MismatchError, error) {
		snap, err := o.snapshot(ctx)
		if err != nil {
			return nil, err
		}
		got := snap.Contains(text)
		if got == want {
			return nil, nil
		}
		return &MismatchError{
			Check:    check,
			Left:     SideExpected,
			Right:    SidePersistence,
			Expected: presence(want),
			Actual:   presence(got),
			Snapshot: snap,
		}, nil
	})
}

// CheckItemCompleted verifies the persisted item with text is completed.
func (o *Oracle) CheckItemCompleted(ctx context.Context, text string) error {
	check := fmt.Sprintf("item_completed(%q)", text)

	return o.await(ctx, check, func(ctx context.Context) (*MismatchError, error) {
		snap, err := o.snapshot(ctx)
		if err != nil {
			return nil, err
		}
		it, ok := snap.Find(text)
		if ok && it.Completed {
			return nil, nil
		}
		actual := "absent"
		if ok {
			actual = "active"
		}
		return &MismatchError{
			Check:    check,
			Left:     SideExpected,
			Right:    SidePersistence,
			Expected: "completed",
			Actual:   actual,
			Snapshot: snap,
		}, nil
	})
}

// CrossCheck verifies the rendered view is exactly the persisted snapshot
// under the view's filter: same texts in the same order with the same
// completed flags, and every row's visual marker agreeing with its flag.
func (o *Oracle) CrossCheck(ctx context.Context, view ViewReader) error {
	return o.await(ctx, "cross_check", func(ctx context.Context) (*MismatchError, error) {
		snap, err := o.snapshot(ctx)
		if err != nil {
			return nil, err
		}
		rendered, err := view.View(ctx)
		if err != nil {
			return nil, err
		}

		want := view.Filter().Apply(snap)
		if mm := compareRows(want, rendered); mm != nil {
			mm.Snapshot = snap
			return mm, nil
		}

		for i, it := range rendered {
			marked, err := view.IsVisuallyMarkedCompleted(ctx, i)
			if err != nil {
				return nil, err
			}
			if marked != it.Completed {
				return &MismatchError{
					Check:    fmt.Sprintf("marker[%d]", i),
					Left:     SideUI,
					Right:    SideUI,
					Expected: "flag " + completion(it.Completed),
					Actual:   "marker " + completion(marked),
					Snapshot: snap,
				}, nil
			}
		}
		return nil, nil
	})
}

// compareRows reports the first difference between the persisted rows a view
// should render and the rows it does render.
func compareRows(want, got []item.Item) *MismatchError {
	same := len(want) == len(got)
	for i := 0; same && i < len(want); i++ {
		same = item.SameText(want[i].Text, got[i].Text) && want[i].Completed == got[i].Completed
	}
	if same {
		return nil
	}
	return &MismatchError{
		Check:    "cross_check",
		Left:     SidePersistence,
		Right:    SideUI,
		Expected: item.Snapshot(want).String(),
		Actual:   item.Snapshot(got).String(),
	}
}

func presence(present bool) string {
	if present {
		return "present"
	}
	return "absent"
}

func completion(completed bool) string {
	if completed {
		return "completed"
	}
	return "active"
}
