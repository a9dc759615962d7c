package oracle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/todoracle/internal/item"
	"github.com/roach88/todoracle/internal/page"
	"github.com/roach88/todoracle/internal/store"
	"github.com/roach88/todoracle/internal/todomvc"
)

// fixture is one reference app with a page over it and an oracle reading
// its storage.
type fixture struct {
	app  *todomvc.App
	page *page.Page
	orc  *Oracle
}

func newFixture(t *testing.T, faults ...todomvc.Fault) *fixture {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	app := todomvc.New(st, todomvc.WithFaults(faults...))
	return &fixture{
		app:  app,
		page: page.New(app),
		// Faults never heal, so failing checks need not wait.
		orc: New(app, WithSettleTimeout(0)),
	}
}

func (f *fixture) add(t *testing.T, texts ...string) {
	t.Helper()
	for _, text := range texts {
		require.NoError(t, f.page.AddItem(context.Background(), text))
	}
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func TestCrossCheckScenario_CompleteMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "Complete me")
	require.NoError(t, f.page.ToggleCompletion(ctx, 0))

	require.NoError(t, f.orc.CheckCompletedCount(ctx, 1))

	flag, err := f.page.IsCompleted(ctx, 0)
	require.NoError(t, err)
	marked, err := f.page.IsVisuallyMarkedCompleted(ctx, 0)
	require.NoError(t, err)
	assert.True(t, flag)
	assert.True(t, marked)

	require.NoError(t, f.orc.CheckItemCompleted(ctx, "Complete me"))
	require.NoError(t, f.orc.CrossCheck(ctx, f.page))
}

func TestDeletionScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "X")
	require.NoError(t, f.orc.CheckItemPresent(ctx, "X"))

	require.NoError(t, f.page.DeleteItemByText(ctx, "X"))

	visible, err := f.page.IsItemVisible(ctx, "X")
	require.NoError(t, err)
	assert.False(t, visible)
	require.NoError(t, f.orc.CheckItemAbsent(ctx, "X"))
	require.NoError(t, f.orc.CrossCheck(ctx, f.page))
}

func TestAddThirdItemScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "A", "B")
	require.NoError(t, f.page.AddItem(ctx, "C"))

	last, err := f.page.LastItemText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "C", last)
	require.NoError(t, f.orc.CheckCount(ctx, 3))
}

func TestClearCompletedInvariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "a", "b", "c", "d")
	require.NoError(t, f.page.ToggleCompletion(ctx, 1))
	require.NoError(t, f.page.ToggleCompletion(ctx, 3))

	before, err := f.app.ReadPersistedItems(ctx)
	require.NoError(t, err)
	activeBefore := before.ActiveCount()

	require.NoError(t, f.page.ClearCompleted(ctx))

	require.NoError(t, f.orc.CheckCompletedCount(ctx, 0))
	require.NoError(t, f.orc.CheckCount(ctx, activeBefore))
	require.NoError(t, f.orc.CrossCheck(ctx, f.page))
}

func TestFilterCorrectness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "a", "b", "c")
	require.NoError(t, f.page.ToggleCompletion(ctx, 0))

	for _, filter := range item.Filters {
		t.Run(string(filter), func(t *testing.T) {
			require.NoError(t, f.page.SetFilter(ctx, filter))

			view, err := f.page.View(ctx)
			require.NoError(t, err)
			for _, it := range view {
				switch filter {
				case item.FilterActive:
					assert.False(t, it.Completed)
				case item.FilterCompleted:
					assert.True(t, it.Completed)
				}
			}
			if filter == item.FilterAll {
				require.NoError(t, f.orc.CheckCount(ctx, len(view)))
			}
			require.NoError(t, f.orc.CrossCheck(ctx, f.page))
		})
	}
}

func TestEditKeepsPersistedFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "Original Todo")
	require.NoError(t, f.page.ToggleCompletion(ctx, 0))

	require.NoError(t, f.page.EditFirstItem(ctx, "Updated Todo"))

	require.NoError(t, f.orc.CheckItemAbsent(ctx, "Original Todo"))
	require.NoError(t, f.orc.CheckItemCompleted(ctx, "Updated Todo"))
	require.NoError(t, f.orc.CrossCheck(ctx, f.page))
}

func TestDetectsDroppedWrite(t *testing.T) {
	f := newFixture(t, todomvc.FaultDropWrite)
	ctx := context.Background()
	f.add(t, "lost")

	err := f.orc.CheckCount(ctx, 1)
	var mm *MismatchError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, "count", mm.Check)
	assert.Equal(t, SideExpected, mm.Left)
	assert.Equal(t, SidePersistence, mm.Right)
	assert.Equal(t, "1 items", mm.Expected)
	assert.Equal(t, "0 items", mm.Actual)

	err = f.orc.CrossCheck(ctx, f.page)
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, SidePersistence, mm.Left)
	assert.Equal(t, SideUI, mm.Right)
	assert.Equal(t, "(empty)", mm.Expected)
	assert.Equal(t, "[ ] lost", mm.Actual)
}

func TestDetectsMissingMarker(t *testing.T) {
	f := newFixture(t, todomvc.FaultMissingMarker)
	ctx := context.Background()
	f.add(t, "Complete me")
	require.NoError(t, f.page.ToggleCompletion(ctx, 0))

	// Persistence alone looks right.
	require.NoError(t, f.orc.CheckCompletedCount(ctx, 1))

	err := f.orc.CrossCheck(ctx, f.page)
	var mm *MismatchError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, "marker[0]", mm.Check)
	assert.Equal(t, "flag completed", mm.Expected)
	assert.Equal(t, "marker active", mm.Actual)
}

func TestDetectsStaleRender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "a")
	f.app.SetFault(todomvc.FaultStaleRender, true)
	f.add(t, "b")

	require.NoError(t, f.orc.CheckCount(ctx, 2))

	err := f.orc.CrossCheck(ctx, f.page)
	var mm *MismatchError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, "cross_check", mm.Check)
	assert.Equal(t, "[ ] a, [ ] b", mm.Expected)
	assert.Equal(t, "[ ] a", mm.Actual)
	assert.Len(t, mm.Snapshot, 2)
}

// flakyReader returns stale data for the first few reads.
type flakyReader struct {
	mu    sync.Mutex
	stale int
	reads int
	snap  item.Snapshot
	err   error
}

func (r *flakyReader) ReadPersistedItems(ctx context.Context) (item.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.err != nil {
		return nil, r.err
	}
	if r.reads <= r.stale {
		return item.Snapshot{}, nil
	}
	return r.snap, nil
}

func TestCheckSettles(t *testing.T) {
	r := &flakyReader{stale: 3, snap: item.Snapshot{{Text: "a"}}}
	o := New(r, WithSettleTimeout(time.Second), WithPollInterval(time.Millisecond))

	require.NoError(t, o.CheckCount(context.Background(), 1))
	assert.Equal(t, 4, r.reads)
}

func TestCheckGivesUpWithLastMismatch(t *testing.T) {
	r := &flakyReader{stale: 1 << 30}
	o := New(r, WithSettleTimeout(20*time.Millisecond), WithPollInterval(time.Millisecond))

	err := o.CheckItemPresent(context.Background(), "never")
	var mm *MismatchError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, `item_present("never")`, mm.Check)
	assert.Equal(t, "present", mm.Expected)
	assert.Equal(t, "absent", mm.Actual)
	assert.Greater(t, r.reads, 1)
}

func TestCheckReadErrorIsNotMismatch(t *testing.T) {
	boom := errors.New("storage unavailable")
	o := New(&flakyReader{err: boom}, WithSettleTimeout(0))

	err := o.CheckCount(context.Background(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, Mismatches(err))
}

func TestCheckItemCompleted_Absent(t *testing.T) {
	f := newFixture(t)
	f.add(t, "a")

	err := f.orc.CheckItemCompleted(context.Background(), "b")
	var mm *MismatchError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, "absent", mm.Actual)

	err = f.orc.CheckItemCompleted(context.Background(), "a")
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, "active", mm.Actual)
}

func TestVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "A", "B", "C")
	require.NoError(t, f.page.ToggleCompletion(ctx, 1))

	exp := Expectation{
		Total:          intPtr(3),
		Completed:      intPtr(1),
		Visible:        intPtr(3),
		LastText:       strPtr("C"),
		Present:        []string{"A"},
		Absent:         []string{"D"},
		CompletedTexts: []string{"B"},
		CompletedAt:    map[int]bool{0: false, 1: true},
	}
	require.NoError(t, f.orc.Verify(ctx, f.page, exp))
}

func TestVerify_JoinsMismatches(t *testing.T) {
	f := newFixture(t, todomvc.FaultDropWrite)
	ctx := context.Background()
	f.add(t, "A")

	err := f.orc.Verify(ctx, f.page, Expectation{
		Total:    intPtr(1),
		LastText: strPtr("Z"),
	})
	require.Error(t, err)

	var checks []string
	for _, mm := range Mismatches(err) {
		checks = append(checks, mm.Check)
	}
	assert.Equal(t, []string{"count", "last_text", "cross_check"}, checks)
}

func TestVerify_FilteredViewSkipsRenderedPresence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "A", "B")
	require.NoError(t, f.page.ToggleCompletion(ctx, 0))
	require.NoError(t, f.page.SetFilter(ctx, item.FilterActive))

	// A is persisted but not rendered under the active filter.
	require.NoError(t, f.orc.Verify(ctx, f.page, Expectation{
		Total:   intPtr(2),
		Visible: intPtr(1),
		Present: []string{"A"},
	}))
}

func TestMismatchError_Message(t *testing.T) {
	mm := &MismatchError{
		Check:    "count",
		Left:     SideExpected,
		Right:    SidePersistence,
		Expected: "3 items",
		Actual:   "2 items",
		Snapshot: item.Snapshot{{Text: "A"}, {Text: "B", Completed: true}},
	}

	want := "mismatch: count (expected vs persistence)\n" +
		"  expected: 3 items\n" +
		"  persistence: 2 items\n" +
		"  snapshot: [ ] A, [x] B"
	assert.Equal(t, want, mm.Error())
}
