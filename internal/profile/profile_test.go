package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/todoracle/internal/surface"
)

const customProfile = `
profile: {
	new_item:        "#new"
	item_row:        "li.row"
	item_title:      "li.row span"
	toggle:          "li.row input[type=checkbox]"
	destroy:         "li.row .x"
	edit_input:      "li.row.editing input"
	filter:          "nav a[data-filter=%s]"
	clear_completed: "#clear"
	toggle_all:      "#all"
	counter:         "#left"
	completed_class: "done"
}
`

func TestDefault(t *testing.T) {
	p := Default()
	assert.Equal(t, "input.new-todo", p.NewItem)
	assert.Equal(t, "completed", p.CompletedClass)

	sel, err := p.Selector(surface.FilterLink("active"))
	require.NoError(t, err)
	assert.Equal(t, `ul.filters a[href="#/active"]`, sel)

	sel, err = p.Selector(surface.FilterLink(""))
	require.NoError(t, err)
	assert.Equal(t, `ul.filters a[href="#/"]`, sel)
}

func TestParse_Custom(t *testing.T) {
	p, err := Parse("custom.cue", []byte(customProfile))
	require.NoError(t, err)

	assert.Equal(t, "done", p.CompletedClass)
	sel, err := p.Selector(surface.At(surface.HookToggle, 3))
	require.NoError(t, err)
	assert.Equal(t, "li.row input[type=checkbox]", sel)
}

func TestParse_MissingHook(t *testing.T) {
	src := `profile: { new_item: "#new" }`
	_, err := Parse("partial.cue", []byte(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid profile")
}

func TestParse_EmptySelector(t *testing.T) {
	src := `
profile: {
	new_item:        ""
	item_row:        "li"
	item_title:      "li span"
	toggle:          "li input"
	destroy:         "li .x"
	edit_input:      "li input.edit"
	filter:          "a[href=%s]"
	clear_completed: "#clear"
	toggle_all:      "#all"
	counter:         "#left"
}
`
	_, err := Parse("empty.cue", []byte(src))
	require.Error(t, err)
}

func TestParse_FilterWithoutPlaceholder(t *testing.T) {
	src := `
profile: {
	new_item:        "#new"
	item_row:        "li"
	item_title:      "li span"
	toggle:          "li input"
	destroy:         "li .x"
	edit_input:      "li input.edit"
	filter:          "a.filter"
	clear_completed: "#clear"
	toggle_all:      "#all"
	counter:         "#left"
}
`
	_, err := Parse("nofmt.cue", []byte(src))
	require.Error(t, err)
}

func TestParse_UnknownField(t *testing.T) {
	src := customProfile[:len(customProfile)-2] + "\ttypo: \"x\"\n}\n"
	_, err := Parse("typo.cue", []byte(src))
	require.Error(t, err)
}

func TestParse_MissingProfileStruct(t *testing.T) {
	_, err := Parse("none.cue", []byte(`other: 1`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing top-level "profile"`)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.cue")
	require.NoError(t, os.WriteFile(path, []byte(customProfile), 0644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "#new", p.NewItem)

	_, err = Load(filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
}

func TestSelectors(t *testing.T) {
	sels := Default().Selectors()
	assert.Len(t, sels, len(surface.Hooks))
	assert.Equal(t, `ul.filters a[href="#/%s"]`, sels[surface.HookFilter])
}
