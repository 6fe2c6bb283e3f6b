// Package functions defines streamed function execution chunks. An
// execution is a tree of tasks: each task is either a nested function
// execution or a vector completion.
package functions

import (
	"encoding/json"
	"iter"

	"github.com/tidwall/gjson"

	"github.com/jg-phare/chunkfold/pkg/chat"
	"github.com/jg-phare/chunkfold/pkg/types"
	"github.com/jg-phare/chunkfold/pkg/vector"
)

// ObjectChunk is the object tag carried by every function execution chunk.
const ObjectChunk = "function.execution.chunk"

// ExecutionChunk is one streamed update of a function execution.
type ExecutionChunk struct {
	ID          string                 `json:"id"`
	Tasks       []TaskChunk            `json:"tasks"`
	TasksErrors *bool                  `json:"tasks_errors,omitempty"`
	Reasoning   *ReasoningSummaryChunk `json:"reasoning,omitempty"`
	Output      json.RawMessage        `json:"output,omitempty"`
	Error       *types.ResponseError   `json:"error,omitempty"`
	RetryToken  *string                `json:"retry_token,omitempty"`
	Created     uint64                 `json:"created"`
	Function    *string                `json:"function"`
	Profile     *string                `json:"profile"`
	Object      string                 `json:"object"`
	Usage       *types.Usage           `json:"usage,omitempty"`
}

// ScalarOutput returns the output when it is a single number.
func (c *ExecutionChunk) ScalarOutput() (float64, bool) {
	if len(c.Output) == 0 {
		return 0, false
	}
	r := gjson.ParseBytes(c.Output)
	if r.Type != gjson.Number {
		return 0, false
	}
	return r.Float(), true
}

// VectorOutput returns the output when it is an array of numbers.
func (c *ExecutionChunk) VectorOutput() ([]float64, bool) {
	if len(c.Output) == 0 {
		return nil, false
	}
	r := gjson.ParseBytes(c.Output)
	if !r.IsArray() {
		return nil, false
	}
	var out []float64
	ok := true
	r.ForEach(func(_, v gjson.Result) bool {
		if v.Type != gjson.Number {
			ok = false
			return false
		}
		out = append(out, v.Float())
		return true
	})
	if !ok {
		return nil, false
	}
	return out, true
}

// VectorCompletionTasks walks the task tree depth-first and yields every
// vector completion task in order.
func (c *ExecutionChunk) VectorCompletionTasks() iter.Seq[*VectorCompletionTaskChunk] {
	return func(yield func(*VectorCompletionTaskChunk) bool) {
		c.walk(yield)
	}
}

func (c *ExecutionChunk) walk(yield func(*VectorCompletionTaskChunk) bool) bool {
	for _, t := range c.Tasks {
		switch {
		case t.FunctionExecution != nil:
			if !t.FunctionExecution.walk(yield) {
				return false
			}
		case t.VectorCompletion != nil:
			if !yield(t.VectorCompletion) {
				return false
			}
		}
	}
	return true
}

// ReasoningSummaryChunk is the streamed summary of the reasoning behind an
// execution's output.
type ReasoningSummaryChunk struct {
	chat.CompletionChunk
	Error *types.ResponseError `json:"error,omitempty"`
}

// ExecutionTaskChunk is a task that runs a nested function.
type ExecutionTaskChunk struct {
	Index          uint64   `json:"index"`
	TaskIndex      uint64   `json:"task_index"`
	TaskPath       []uint64 `json:"task_path"`
	SwissRound     *uint64  `json:"swiss_round,omitempty"`
	SwissPoolIndex *uint64  `json:"swiss_pool_index,omitempty"`
	ExecutionChunk
}

// VectorCompletionTaskChunk is a task that runs a vector completion.
type VectorCompletionTaskChunk struct {
	Index     uint64   `json:"index"`
	TaskIndex uint64   `json:"task_index"`
	TaskPath  []uint64 `json:"task_path"`
	vector.Chunk
	Error *types.ResponseError `json:"error,omitempty"`
}

// TaskChunk holds exactly one of its arms.
type TaskChunk struct {
	FunctionExecution *ExecutionTaskChunk
	VectorCompletion  *VectorCompletionTaskChunk
}

// ChunkIndex returns the index of the populated arm.
func (t TaskChunk) ChunkIndex() uint64 {
	switch {
	case t.FunctionExecution != nil:
		return t.FunctionExecution.Index
	case t.VectorCompletion != nil:
		return t.VectorCompletion.Index
	}
	return 0
}

// UnmarshalJSON picks the vector completion arm when votes or scores are
// present and the function execution arm otherwise.
func (t *TaskChunk) UnmarshalJSON(data []byte) error {
	fields := gjson.GetManyBytes(data, "votes", "scores")
	if fields[0].Exists() || fields[1].Exists() {
		var v VectorCompletionTaskChunk
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*t = TaskChunk{VectorCompletion: &v}
		return nil
	}
	var f ExecutionTaskChunk
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*t = TaskChunk{FunctionExecution: &f}
	return nil
}

// MarshalJSON encodes the populated arm, or null when neither is set.
func (t TaskChunk) MarshalJSON() ([]byte, error) {
	switch {
	case t.FunctionExecution != nil:
		return json.Marshal(t.FunctionExecution)
	case t.VectorCompletion != nil:
		return json.Marshal(t.VectorCompletion)
	}
	return []byte("null"), nil
}
