package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, data string) *CompletionChunk {
	t.Helper()
	var c CompletionChunk
	require.NoError(t, json.Unmarshal([]byte(data), &c))
	return &c
}

func fold(t *testing.T, chunks ...string) *CompletionChunk {
	t.Helper()
	acc := decode(t, chunks[0])
	for _, c := range chunks[1:] {
		acc, _ = Merge(acc, decode(t, c))
	}
	return acc
}

func TestMerge_AppendContent(t *testing.T) {
	acc := fold(t,
		`{"id":"c1","choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"}}],"created":1,"model":"m","object":"chat.completion.chunk"}`,
		`{"id":"c1","choices":[{"index":0,"delta":{"content":"lo"}}],"created":1,"model":"m","object":"chat.completion.chunk"}`,
		`{"id":"c1","choices":[{"index":0,"delta":{},"finish_reason":"stop"}],"created":1,"model":"m","object":"chat.completion.chunk"}`,
	)

	require.Len(t, acc.Choices, 1)
	assert.Equal(t, "Hello", acc.Text(0))
	assert.Equal(t, RoleAssistant, *acc.Choices[0].Delta.Role)
	assert.Equal(t, "stop", *acc.Choices[0].FinishReason)
}

func TestMerge_DisjointChoicesAppendInOrder(t *testing.T) {
	a := decode(t, `{"id":"c1","choices":[{"index":2,"delta":{"content":"b"}},{"index":0,"delta":{"content":"a"}}]}`)
	b := decode(t, `{"id":"c1","choices":[{"index":1,"delta":{"content":"c"}},{"index":5,"delta":{"content":"d"}}]}`)

	got, changed := Merge(a, b)
	require.True(t, changed)
	require.Len(t, got.Choices, 4)

	var order []uint64
	for _, c := range got.Choices {
		order = append(order, c.Index)
	}
	assert.Equal(t, []uint64{2, 0, 1, 5}, order)
}

func TestMerge_SiblingsUnchanged(t *testing.T) {
	a := decode(t, `{"id":"c1","choices":[{"index":0,"delta":{"content":"a"}},{"index":1,"delta":{"content":"b"}}]}`)
	b := decode(t, `{"id":"c1","choices":[{"index":1,"delta":{"content":"c"}}]}`)

	got, changed := Merge(a, b)
	require.True(t, changed)
	assert.Same(t, a.Choices[0], got.Choices[0])
	assert.NotSame(t, a.Choices[1], got.Choices[1])
	assert.Equal(t, "bc", got.Text(1))
	assert.Equal(t, "b", a.Text(1))
}

func TestMerge_NoOpReturnsSameSnapshot(t *testing.T) {
	a := decode(t, `{"id":"c1","choices":[{"index":0,"delta":{"content":"hi","role":"assistant"},"finish_reason":"stop"}],"usage":{"completion_tokens":1,"prompt_tokens":2,"total_tokens":3,"cost":0,"total_cost":0},"provider":"p"}`)
	b := decode(t, `{"id":"c1","choices":[{"index":0,"delta":{"content":"","role":"assistant"},"finish_reason":"stop"}],"usage":{"completion_tokens":1,"prompt_tokens":2,"total_tokens":3,"cost":0,"total_cost":0},"provider":"p"}`)

	got, changed := Merge(a, b)
	assert.False(t, changed)
	assert.Same(t, a, got)
}

func TestMerge_IdentityFieldsKeepLeft(t *testing.T) {
	a := decode(t, `{"id":"c1","model":"m1","created":10,"choices":[]}`)
	b := decode(t, `{"id":"c2","model":"m2","created":20,"choices":[],"system_fingerprint":"fp"}`)

	got, changed := Merge(a, b)
	require.True(t, changed)
	assert.Equal(t, "c1", got.ID)
	assert.Equal(t, "m1", got.Model)
	assert.Equal(t, uint64(10), got.Created)
	assert.Equal(t, "fp", *got.SystemFingerprint)
}

func TestMerge_ToolCallArguments(t *testing.T) {
	acc := fold(t,
		`{"id":"c1","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"search","arguments":"{\"q\":"}}]}}]}`,
		`{"id":"c1","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"go\"}"}},{"index":1,"id":"call_2","function":{"name":"noop"}}]}}]}`,
	)

	calls := acc.Choices[0].Delta.ToolCalls
	require.Len(t, calls, 2)
	assert.Equal(t, "call_1", *calls[0].ID)
	assert.Equal(t, "search", *calls[0].Function.Name)
	assert.Equal(t, `{"q":"go"}`, *calls[0].Function.Arguments)
	assert.Equal(t, "noop", *calls[1].Function.Name)
	assert.Nil(t, calls[1].Function.Arguments)
}

func TestMerge_ImagesAppend(t *testing.T) {
	acc := fold(t,
		`{"id":"c1","choices":[{"index":0,"delta":{"images":[{"type":"image_url","image_url":{"url":"a"}}]}}]}`,
		`{"id":"c1","choices":[{"index":0,"delta":{"images":[{"type":"image_url","image_url":{"url":"b"}}]}}]}`,
	)
	images := acc.Choices[0].Delta.Images
	require.Len(t, images, 2)
	assert.Equal(t, "a", images[0].ImageURL.URL)
	assert.Equal(t, "b", images[1].ImageURL.URL)
}

func TestMerge_OmitsAbsentFields(t *testing.T) {
	acc := fold(t,
		`{"id":"c1","choices":[{"index":0,"delta":{"content":"a"}}],"created":1,"model":"m","object":"chat.completion.chunk"}`,
		`{"id":"c1","choices":[{"index":0,"delta":{"content":"b"}}],"created":1,"model":"m","object":"chat.completion.chunk"}`,
	)

	data, err := json.Marshal(acc)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"id":"c1","upstream_id":"","choices":[{"index":0,"delta":{"content":"ab"}}],"created":1,"model":"m","upstream_model":"","object":"chat.completion.chunk"}`,
		string(data))
}

func TestMerge_FoldEqualsCombined(t *testing.T) {
	step := fold(t,
		`{"id":"c1","choices":[{"index":0,"delta":{"content":"He"}}]}`,
		`{"id":"c1","choices":[{"index":0,"delta":{"content":"llo"}}]}`,
		`{"id":"c1","choices":[{"index":0,"delta":{"content":" world"},"finish_reason":"stop"}]}`,
	)
	combined := fold(t,
		`{"id":"c1","choices":[{"index":0,"delta":{"content":"He"}}]}`,
		`{"id":"c1","choices":[{"index":0,"delta":{"content":"llo world"},"finish_reason":"stop"}]}`,
	)
	assert.Equal(t, combined, step)
}

func TestParseArguments(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		args := `{"q":"go","n":2}`
		got, err := (&FunctionCall{Arguments: &args}).ParseArguments()
		require.NoError(t, err)
		assert.Equal(t, "go", got["q"])
		assert.Equal(t, float64(2), got["n"])
	})

	t.Run("truncated", func(t *testing.T) {
		args := `{"q":"go`
		got, err := (&FunctionCall{Arguments: &args}).ParseArguments()
		require.NoError(t, err)
		assert.Equal(t, "go", got["q"])
	})

	t.Run("absent", func(t *testing.T) {
		got, err := (&FunctionCall{}).ParseArguments()
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
