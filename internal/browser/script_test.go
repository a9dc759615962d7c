package browser

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/chromedp/cdproto/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/todoracle/internal/item"
	"github.com/roach88/todoracle/internal/profile"
	"github.com/roach88/todoracle/internal/surface"
)

// scriptedEval records evaluated expressions and answers with a canned JSON
// result.
type scriptedEval struct {
	exprs  []string
	result string
	err    error
}

func (s *scriptedEval) eval(ctx context.Context, expr string, out any) error {
	s.exprs = append(s.exprs, expr)
	if s.err != nil {
		return s.err
	}
	return json.Unmarshal([]byte(s.result), out)
}

func newReader(s *scriptedEval) *reader {
	return &reader{prof: profile.Default(), storageKey: "react-todos", eval: s.eval}
}

func TestJSString(t *testing.T) {
	assert.Equal(t, `"a\"b"`, jsString(`a"b`))
	assert.Equal(t, `"li[data-testid=\"todo-item\"]"`, jsString(`li[data-testid="todo-item"]`))
}

func TestJSAt(t *testing.T) {
	got := jsAt("input.toggle", 2, jsChecked, "false")
	assert.Equal(t,
		`(() => { const el = document.querySelectorAll("input.toggle")[2]; return el ? !!el.checked : false; })()`,
		got)
}

func TestReader_Count(t *testing.T) {
	s := &scriptedEval{result: `3`}
	n, err := newReader(s).Count(context.Background(), surface.Every(surface.HookToggle))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{`document.querySelectorAll("ul.todo-list input.toggle").length`}, s.exprs)
}

func TestReader_TextsAllAndOne(t *testing.T) {
	s := &scriptedEval{result: `["a","b"]`}
	r := newReader(s)

	texts, err := r.Texts(context.Background(), surface.Every(surface.HookItemTitle))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, texts)
	assert.Contains(t, s.exprs[0], "Array.from(")

	s.result = `[]`
	texts, err = r.Texts(context.Background(), surface.At(surface.HookItemTitle, 7))
	require.NoError(t, err)
	assert.Equal(t, []string{}, texts)
	assert.Contains(t, s.exprs[1], "[7]")
}

func TestReader_NegativeIndexReadsFalse(t *testing.T) {
	s := &scriptedEval{result: `true`}
	ok, err := newReader(s).Checked(context.Background(), surface.At(surface.HookToggle, -1))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, s.exprs, "no script for an impossible index")
}

func TestReader_HasClassQuotesClass(t *testing.T) {
	s := &scriptedEval{result: `true`}
	ok, err := newReader(s).HasClass(context.Background(), surface.At(surface.HookItemRow, 0), "completed")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, s.exprs[0], `el.classList.contains("completed")`)
}

func TestReader_ReadPersistedItems(t *testing.T) {
	stored := `[{"id":"1","title":"a","completed":true},{"id":"2","title":"b","completed":false}]`
	s := &scriptedEval{result: jsString(stored)}

	snap, err := newReader(s).ReadPersistedItems(context.Background())
	require.NoError(t, err)
	assert.Equal(t, item.Snapshot{{Text: "a", Completed: true}, {Text: "b"}}, snap)
	assert.Equal(t, []string{`localStorage.getItem("react-todos") || ""`}, s.exprs)
}

func TestReader_ReadPersistedItemsUnset(t *testing.T) {
	s := &scriptedEval{result: `""`}
	snap, err := newReader(s).ReadPersistedItems(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap)
}

func TestReader_Actionable(t *testing.T) {
	ctx := context.Background()

	s := &scriptedEval{result: `0`}
	err := newReader(s).actionable(ctx, surface.First(surface.HookClearCompleted))
	assert.True(t, errors.Is(err, surface.ErrNoElement))

	s = &scriptedEval{result: `1`}
	err = newReader(s).actionable(ctx, surface.At(surface.HookDestroy, 3))
	assert.True(t, errors.Is(err, surface.ErrOutOfRange))
}

func TestReader_EvalErrorWrapped(t *testing.T) {
	boom := errors.New("target closed")
	s := &scriptedEval{err: boom}

	_, err := newReader(s).Count(context.Background(), surface.Every(surface.HookItemRow))
	assert.ErrorIs(t, err, boom)
}

func TestQuadCenter(t *testing.T) {
	x, y := quadCenter(dom.Quad{0, 0, 10, 0, 10, 20, 0, 20})
	assert.Equal(t, 5.0, x)
	assert.Equal(t, 10.0, y)

	x, y = quadCenter(dom.Quad{1, 2})
	assert.Zero(t, x)
	assert.Zero(t, y)
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, DefaultURL, o.URL)
	assert.Equal(t, DefaultStorageKey, o.StorageKey)
	assert.NotNil(t, o.Profile)
	assert.NotNil(t, o.Logger)
	assert.Equal(t, DefaultLoadWait, o.LoadWait)
}
