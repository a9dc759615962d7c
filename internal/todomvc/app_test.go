package todomvc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/todoracle/internal/item"
	"github.com/roach88/todoracle/internal/store"
	"github.com/roach88/todoracle/internal/surface"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	return New(openStore(t), opts...)
}

func add(t *testing.T, a *App, texts ...string) {
	t.Helper()
	ctx := context.Background()
	input := surface.First(surface.HookNewItem)
	for _, text := range texts {
		require.NoError(t, a.Fill(ctx, input, text))
		require.NoError(t, a.Press(ctx, input, surface.KeyEnter))
	}
}

func titles(t *testing.T, a *App) []string {
	t.Helper()
	texts, err := a.Texts(context.Background(), surface.Every(surface.HookItemTitle))
	require.NoError(t, err)
	return texts
}

func TestParseFault(t *testing.T) {
	f, err := ParseFault("drop_write")
	require.NoError(t, err)
	assert.Equal(t, FaultDropWrite, f)

	_, err = ParseFault("flaky")
	assert.Error(t, err)
}

func TestApp_AddPersists(t *testing.T) {
	a := newApp(t)
	add(t, a, "a", "  b  ")

	assert.Equal(t, []string{"a", "b"}, titles(t, a), "input is trimmed")

	snap, err := a.ReadPersistedItems(context.Background())
	require.NoError(t, err)
	assert.Equal(t, item.Snapshot{{Text: "a"}, {Text: "b"}}, snap)
}

func TestApp_BlankInputIgnored(t *testing.T) {
	a := newApp(t)
	add(t, a, "   ")

	assert.Empty(t, titles(t, a))
}

func TestApp_FooterHiddenWhenEmpty(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	for _, loc := range []surface.Locator{
		surface.Every(surface.HookCounter),
		surface.Every(surface.HookToggleAll),
		surface.FilterLink("active"),
		surface.Every(surface.HookClearCompleted),
	} {
		n, err := a.Count(ctx, loc)
		require.NoError(t, err)
		assert.Zero(t, n, loc.String())
	}

	err := a.Click(ctx, surface.FilterLink("active"))
	assert.True(t, errors.Is(err, surface.ErrNoElement))
}

func TestApp_DestroyNeedsHover(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	add(t, a, "a", "b")

	err := a.Click(ctx, surface.At(surface.HookDestroy, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, surface.ErrNotVisible))

	require.NoError(t, a.Hover(ctx, surface.At(surface.HookItemRow, 1)))
	visible, err := a.Visible(ctx, surface.At(surface.HookDestroy, 1))
	require.NoError(t, err)
	assert.True(t, visible)

	require.NoError(t, a.Click(ctx, surface.At(surface.HookDestroy, 1)))
	assert.Equal(t, []string{"a"}, titles(t, a))
}

func TestApp_EditLifecycle(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	add(t, a, "a", "b")

	require.NoError(t, a.DoubleClick(ctx, surface.At(surface.HookItemTitle, 1)))

	editing, err := a.HasClass(ctx, surface.At(surface.HookItemRow, 1), "editing")
	require.NoError(t, err)
	assert.True(t, editing)

	draft, err := a.Texts(ctx, surface.First(surface.HookEditInput))
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, draft)

	editor := surface.First(surface.HookEditInput)
	require.NoError(t, a.Fill(ctx, editor, "changed"))
	require.NoError(t, a.Press(ctx, editor, surface.KeyEscape))
	assert.Equal(t, []string{"a", "b"}, titles(t, a), "escape discards the draft")

	require.NoError(t, a.DoubleClick(ctx, surface.At(surface.HookItemTitle, 1)))
	require.NoError(t, a.Fill(ctx, editor, "changed"))
	require.NoError(t, a.Press(ctx, editor, surface.KeyEnter))
	assert.Equal(t, []string{"a", "changed"}, titles(t, a))

	n, err := a.Count(ctx, surface.Every(surface.HookEditInput))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestApp_EditToEmptyDeletes(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	add(t, a, "a", "b")

	editor := surface.First(surface.HookEditInput)
	require.NoError(t, a.DoubleClick(ctx, surface.At(surface.HookItemTitle, 0)))
	require.NoError(t, a.Fill(ctx, editor, " "))
	require.NoError(t, a.Press(ctx, editor, surface.KeyEnter))

	assert.Equal(t, []string{"b"}, titles(t, a))
}

func TestApp_BlurCommitsEdit(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	add(t, a, "a", "b")

	require.NoError(t, a.DoubleClick(ctx, surface.At(surface.HookItemTitle, 0)))
	require.NoError(t, a.Fill(ctx, surface.First(surface.HookEditInput), "z"))
	require.NoError(t, a.Click(ctx, surface.At(surface.HookToggle, 1)))

	assert.Equal(t, []string{"z", "b"}, titles(t, a))
	done, err := a.Checked(ctx, surface.At(surface.HookToggle, 1))
	require.NoError(t, err)
	assert.True(t, done)
}

func TestApp_FilterRendersSubsequence(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	add(t, a, "a", "b", "c")
	require.NoError(t, a.Click(ctx, surface.At(surface.HookToggle, 1)))

	require.NoError(t, a.Click(ctx, surface.FilterLink("completed")))
	assert.Equal(t, []string{"b"}, titles(t, a))

	selected, err := a.HasClass(ctx, surface.FilterLink("completed"), "selected")
	require.NoError(t, err)
	assert.True(t, selected)

	// Toggling within a filtered view addresses the rendered row.
	require.NoError(t, a.Click(ctx, surface.At(surface.HookToggle, 0)))
	assert.Empty(t, titles(t, a))

	snap, err := a.ReadPersistedItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.CompletedCount())
}

func TestApp_CounterText(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	add(t, a, "a")

	texts, err := a.Texts(ctx, surface.Every(surface.HookCounter))
	require.NoError(t, err)
	assert.Equal(t, []string{"1 item left"}, texts)

	add(t, a, "b")
	texts, err = a.Texts(ctx, surface.Every(surface.HookCounter))
	require.NoError(t, err)
	assert.Equal(t, []string{"2 items left"}, texts)
}

func TestApp_FaultDropWrite(t *testing.T) {
	a := newApp(t, WithFaults(FaultDropWrite))
	add(t, a, "a")

	assert.Equal(t, []string{"a"}, titles(t, a))
	snap, err := a.ReadPersistedItems(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap)
}

func TestApp_FaultStaleRender(t *testing.T) {
	a := newApp(t)
	add(t, a, "a")
	a.SetFault(FaultStaleRender, true)
	add(t, a, "b")

	assert.Equal(t, []string{"a"}, titles(t, a))
	snap, err := a.ReadPersistedItems(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Total())
}

func TestApp_FaultMissingMarker(t *testing.T) {
	a := newApp(t, WithFaults(FaultMissingMarker))
	ctx := context.Background()
	add(t, a, "a")
	require.NoError(t, a.Click(ctx, surface.At(surface.HookToggle, 0)))

	checked, err := a.Checked(ctx, surface.At(surface.HookToggle, 0))
	require.NoError(t, err)
	marked, err := a.HasClass(ctx, surface.At(surface.HookItemRow, 0), "completed")
	require.NoError(t, err)

	assert.True(t, checked)
	assert.False(t, marked)
}

func TestApp_Reload(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	a := New(st, WithID("fixed"))
	add(t, a, "a", "b")
	require.NoError(t, a.Click(ctx, surface.At(surface.HookToggle, 0)))

	b := New(st, WithID("fixed"))
	require.NoError(t, b.Reload(ctx))
	assert.Equal(t, []string{"a", "b"}, titles(t, b))

	checked, err := b.Checked(ctx, surface.At(surface.HookToggle, 0))
	require.NoError(t, err)
	assert.True(t, checked)
}

func TestOpener_IsolatesSessions(t *testing.T) {
	ctx := context.Background()
	o := NewOpener(openStore(t))

	s1, err := o.Open(ctx)
	require.NoError(t, err)
	s2, err := o.Open(ctx)
	require.NoError(t, err)
	defer s1.Close()
	defer s2.Close()

	input := surface.First(surface.HookNewItem)
	require.NoError(t, s1.Fill(ctx, input, "only in s1"))
	require.NoError(t, s1.Press(ctx, input, surface.KeyEnter))

	snap, err := s2.ReadPersistedItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap)

	n, err := s2.Count(ctx, surface.Every(surface.HookItemRow))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClose_DiscardsOnlyOwnItems(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	a := New(st, WithID("closing"))
	add(t, a, "gone")
	b := New(st, WithID("staying"))
	add(t, b, "kept")

	require.NoError(t, a.Close())

	snap, err := st.LoadItems(ctx, "closing")
	require.NoError(t, err)
	assert.Empty(t, snap)

	snap, err = b.ReadPersistedItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, snap.Texts())
}
