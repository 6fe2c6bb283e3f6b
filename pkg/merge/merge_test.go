package merge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

type item struct {
	Index uint64
	Text  *string
}

func (i *item) ChunkIndex() uint64 { return i.Index }

func mergeItem(a, b *item) (*item, bool) {
	text, changed := Append(a.Text, b.Text)
	if !changed {
		return a, false
	}
	return &item{Index: a.Index, Text: text}, true
}

func TestReplace(t *testing.T) {
	t.Run("absent next keeps prev", func(t *testing.T) {
		prev := ptr("stop")
		got, changed := Replace(prev, nil)
		assert.False(t, changed)
		assert.Same(t, prev, got)
	})

	t.Run("equal value is no change", func(t *testing.T) {
		prev := ptr("stop")
		got, changed := Replace(prev, ptr("stop"))
		assert.False(t, changed)
		assert.Same(t, prev, got)
	})

	t.Run("different value replaces", func(t *testing.T) {
		next := ptr("length")
		got, changed := Replace(ptr("stop"), next)
		assert.True(t, changed)
		assert.Same(t, next, got)
	})

	t.Run("absent prev takes next", func(t *testing.T) {
		got, changed := Replace(nil, ptr(uint64(3)))
		assert.True(t, changed)
		assert.Equal(t, uint64(3), *got)
	})
}

func TestReplaceDeep(t *testing.T) {
	type pair struct{ A []int }
	prev := &pair{A: []int{1, 2}}

	got, changed := ReplaceDeep(prev, &pair{A: []int{1, 2}})
	assert.False(t, changed)
	assert.Same(t, prev, got)

	got, changed = ReplaceDeep(prev, &pair{A: []int{1, 3}})
	assert.True(t, changed)
	assert.Equal(t, []int{1, 3}, got.A)
}

func TestRaw(t *testing.T) {
	prev := json.RawMessage(`{"a":1}`)

	got, changed := Raw(prev, nil)
	assert.False(t, changed)
	assert.Equal(t, prev, got)

	got, changed = Raw(prev, json.RawMessage(`{"a":1}`))
	assert.False(t, changed)
	assert.Equal(t, prev, got)

	got, changed = Raw(prev, json.RawMessage(`null`))
	assert.True(t, changed)
	assert.Equal(t, json.RawMessage(`null`), got)
}

func TestAppend(t *testing.T) {
	tests := []struct {
		name    string
		prev    *string
		next    *string
		want    *string
		changed bool
	}{
		{"both absent", nil, nil, nil, false},
		{"next absent", ptr("He"), nil, ptr("He"), false},
		{"next empty", ptr("He"), ptr(""), ptr("He"), false},
		{"prev absent", nil, ptr("llo"), ptr("llo"), true},
		{"concatenate", ptr("He"), ptr("llo"), ptr("Hello"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := Append(tt.prev, tt.next)
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.want, got)
			if !changed {
				assert.Same(t, tt.prev, got)
			}
		})
	}
}

func TestObject(t *testing.T) {
	a := &item{Index: 0, Text: ptr("a")}

	got, changed := Object(a, nil, mergeItem)
	assert.False(t, changed)
	assert.Same(t, a, got)

	b := &item{Index: 0, Text: ptr("b")}
	got, changed = Object(nil, b, mergeItem)
	assert.True(t, changed)
	assert.Same(t, b, got)

	got, changed = Object(a, b, mergeItem)
	assert.True(t, changed)
	assert.Equal(t, "ab", *got.Text)
	assert.Equal(t, "a", *a.Text)
}

func TestIndexedList(t *testing.T) {
	t.Run("merge matching and append new", func(t *testing.T) {
		prev := []*item{{Index: 0, Text: ptr("He")}}
		next := []*item{{Index: 0, Text: ptr("llo")}, {Index: 1, Text: ptr("x")}}

		got, changed := IndexedList(prev, next, mergeItem)
		require.True(t, changed)
		require.Len(t, got, 2)
		assert.Equal(t, "Hello", *got[0].Text)
		assert.Equal(t, "x", *got[1].Text)

		// prev is untouched
		require.Len(t, prev, 1)
		assert.Equal(t, "He", *prev[0].Text)
	})

	t.Run("no-op sub-merge keeps list", func(t *testing.T) {
		prev := []*item{{Index: 0, Text: ptr("He")}}
		next := []*item{{Index: 0, Text: ptr("")}}

		got, changed := IndexedList(prev, next, mergeItem)
		assert.False(t, changed)
		assert.Same(t, &prev[0], &got[0])
	})

	t.Run("absent next", func(t *testing.T) {
		prev := []*item{{Index: 0}}
		got, changed := IndexedList(prev, nil, mergeItem)
		assert.False(t, changed)
		assert.Same(t, &prev[0], &got[0])
	})

	t.Run("absent prev", func(t *testing.T) {
		next := []*item{{Index: 2, Text: ptr("z")}}
		got, changed := IndexedList(nil, next, mergeItem)
		assert.True(t, changed)
		assert.Equal(t, next, got)
	})

	t.Run("out of order indices", func(t *testing.T) {
		prev := []*item{{Index: 3, Text: ptr("c")}, {Index: 1, Text: ptr("a")}}
		next := []*item{{Index: 1, Text: ptr("b")}}

		got, changed := IndexedList(prev, next, mergeItem)
		require.True(t, changed)
		assert.Equal(t, uint64(3), got[0].Index)
		assert.Equal(t, "ab", *got[1].Text)
	})

	t.Run("repeated index in next merges", func(t *testing.T) {
		next := []*item{{Index: 0, Text: ptr("a")}, {Index: 0, Text: ptr("b")}}
		got, changed := IndexedList(nil, next, mergeItem)
		require.True(t, changed)
		require.Len(t, got, 1)
		assert.Equal(t, "ab", *got[0].Text)
	})

	t.Run("append does not alias prev backing array", func(t *testing.T) {
		prev := make([]*item, 1, 4)
		prev[0] = &item{Index: 0}
		a, _ := IndexedList(prev, []*item{{Index: 1}}, mergeItem)
		b, _ := IndexedList(prev, []*item{{Index: 2}}, mergeItem)
		assert.Equal(t, uint64(1), a[1].Index)
		assert.Equal(t, uint64(2), b[1].Index)
	})
}

func TestSlice(t *testing.T) {
	prev := []float64{0.25, 0.75}

	got, changed := Slice(prev, nil)
	assert.False(t, changed)
	assert.Equal(t, prev, got)

	got, changed = Slice(prev, []float64{0.25, 0.75})
	assert.False(t, changed)
	assert.Same(t, &prev[0], &got[0])

	got, changed = Slice(prev, []float64{0.5, 0.5})
	assert.True(t, changed)
	assert.Equal(t, []float64{0.5, 0.5}, got)

	got, changed = Slice(prev, []float64{0.25})
	assert.True(t, changed)
	assert.Len(t, got, 1)
}

func TestConcat(t *testing.T) {
	prev := []string{"a"}

	got, changed := Concat(prev, nil)
	assert.False(t, changed)
	assert.Equal(t, prev, got)

	got, changed = Concat(prev, []string{"b", "c"})
	assert.True(t, changed)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, []string{"a"}, prev)
}
