package item

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    Filter
		wantErr bool
	}{
		{"", FilterAll, false},
		{"all", FilterAll, false},
		{"Active", FilterActive, false},
		{" completed ", FilterCompleted, false},
		{"done", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFilter(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterApply_PreservesOrder(t *testing.T) {
	items := []Item{
		{Text: "a"},
		{Text: "b", Completed: true},
		{Text: "c"},
		{Text: "d", Completed: true},
	}

	assert.Equal(t, items, FilterAll.Apply(items))
	assert.Equal(t, []Item{{Text: "a"}, {Text: "c"}}, FilterActive.Apply(items))
	assert.Equal(t, []Item{{Text: "b", Completed: true}, {Text: "d", Completed: true}}, FilterCompleted.Apply(items))
}

func TestFilterApply_DoesNotModifyInput(t *testing.T) {
	items := []Item{{Text: "a"}, {Text: "b", Completed: true}}
	_ = FilterActive.Apply(items)
	assert.Len(t, items, 2)
	assert.Equal(t, "b", items[1].Text)
}

func TestFilterRoute(t *testing.T) {
	assert.Equal(t, "", FilterAll.Route())
	assert.Equal(t, "active", FilterActive.Route())
	assert.Equal(t, "completed", FilterCompleted.Route())
}

func TestSnapshotCounts(t *testing.T) {
	snap := Snapshot{{Text: "a"}, {Text: "b", Completed: true}, {Text: "c", Completed: true}}

	assert.Equal(t, 3, snap.Total())
	assert.Equal(t, 2, snap.CompletedCount())
	assert.Equal(t, 1, snap.ActiveCount())
	assert.True(t, snap.Contains("b"))
	assert.False(t, snap.Contains("B"))
	assert.Equal(t, []string{"a", "b", "c"}, snap.Texts())
}

func TestSnapshotFind_NormalizesText(t *testing.T) {
	// precomposed U+00E9 vs "e" followed by a combining acute accent
	snap := Snapshot{{Text: "caf\u00e9"}}
	it, ok := snap.Find("cafe\u0301")
	require.True(t, ok)
	assert.Equal(t, "caf\u00e9", it.Text)
}

func TestSnapshotString(t *testing.T) {
	assert.Equal(t, "(empty)", Snapshot{}.String())
	assert.Equal(t, "[ ] a, [x] b", Snapshot{{Text: "a"}, {Text: "b", Completed: true}}.String())
}

func TestDecodeSnapshot(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`[{"id":"1","title":"buy milk","completed":false},{"id":"2","title":"walk dog","completed":true}]`))
	require.NoError(t, err)
	assert.Equal(t, Snapshot{{Text: "buy milk"}, {Text: "walk dog", Completed: true}}, snap)
}

func TestDecodeSnapshot_Empty(t *testing.T) {
	for _, in := range []string{"", "null", "  ", "[]"} {
		snap, err := DecodeSnapshot([]byte(in))
		require.NoError(t, err, in)
		assert.Empty(t, snap, in)
	}
}

func TestDecodeSnapshot_Malformed(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`{"title":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode snapshot")
}
