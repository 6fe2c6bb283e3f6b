package functions

import (
	"github.com/jg-phare/chunkfold/pkg/chat"
	"github.com/jg-phare/chunkfold/pkg/merge"
	"github.com/jg-phare/chunkfold/pkg/types"
	"github.com/jg-phare/chunkfold/pkg/vector"
)

// Merge folds chunk b into snapshot a, recursing through the task tree.
func Merge(a, b *ExecutionChunk) (*ExecutionChunk, bool) {
	tasks, tasksChanged := MergeTasks(a.Tasks, b.Tasks)
	tasksErrors, tasksErrorsChanged := merge.Replace(a.TasksErrors, b.TasksErrors)
	reasoning, reasoningChanged := merge.Object(a.Reasoning, b.Reasoning, MergeReasoning)
	output, outputChanged := merge.Raw(a.Output, b.Output)
	errRecord, errChanged := merge.ReplaceFunc(a.Error, b.Error, (*types.ResponseError).Equal)
	retryToken, retryTokenChanged := merge.Replace(a.RetryToken, b.RetryToken)
	usage, usageChanged := merge.ReplaceDeep(a.Usage, b.Usage)

	if !tasksChanged && !tasksErrorsChanged && !reasoningChanged && !outputChanged &&
		!errChanged && !retryTokenChanged && !usageChanged {
		return a, false
	}
	return &ExecutionChunk{
		ID:          a.ID,
		Tasks:       tasks,
		TasksErrors: tasksErrors,
		Reasoning:   reasoning,
		Output:      output,
		Error:       errRecord,
		RetryToken:  retryToken,
		Created:     a.Created,
		Function:    a.Function,
		Profile:     a.Profile,
		Object:      a.Object,
		Usage:       usage,
	}, true
}

// MergeTasks merges tasks by index.
func MergeTasks(a, b []TaskChunk) ([]TaskChunk, bool) {
	return merge.IndexedList(a, b, MergeTask)
}

// MergeTask merges two tasks holding the same arm. Tasks holding different
// arms at the same index are left as they are.
func MergeTask(a, b TaskChunk) (TaskChunk, bool) {
	switch {
	case a.FunctionExecution != nil && b.FunctionExecution != nil:
		m, changed := MergeExecutionTask(a.FunctionExecution, b.FunctionExecution)
		if !changed {
			return a, false
		}
		return TaskChunk{FunctionExecution: m}, true
	case a.VectorCompletion != nil && b.VectorCompletion != nil:
		m, changed := MergeVectorCompletionTask(a.VectorCompletion, b.VectorCompletion)
		if !changed {
			return a, false
		}
		return TaskChunk{VectorCompletion: m}, true
	}
	return a, false
}

// MergeExecutionTask folds a nested execution. Task position fields keep a's values.
func MergeExecutionTask(a, b *ExecutionTaskChunk) (*ExecutionTaskChunk, bool) {
	base, changed := Merge(&a.ExecutionChunk, &b.ExecutionChunk)
	if !changed {
		return a, false
	}
	return &ExecutionTaskChunk{
		Index:          a.Index,
		TaskIndex:      a.TaskIndex,
		TaskPath:       a.TaskPath,
		SwissRound:     a.SwissRound,
		SwissPoolIndex: a.SwissPoolIndex,
		ExecutionChunk: *base,
	}, true
}

// MergeVectorCompletionTask folds a vector completion task and replaces its error.
func MergeVectorCompletionTask(a, b *VectorCompletionTaskChunk) (*VectorCompletionTaskChunk, bool) {
	base, baseChanged := vector.Merge(&a.Chunk, &b.Chunk)
	errRecord, errChanged := merge.ReplaceFunc(a.Error, b.Error, (*types.ResponseError).Equal)

	if !baseChanged && !errChanged {
		return a, false
	}
	return &VectorCompletionTaskChunk{
		Index:     a.Index,
		TaskIndex: a.TaskIndex,
		TaskPath:  a.TaskPath,
		Chunk:     *base,
		Error:     errRecord,
	}, true
}

// MergeReasoning folds the reasoning summary as a chat chunk and replaces its error.
func MergeReasoning(a, b *ReasoningSummaryChunk) (*ReasoningSummaryChunk, bool) {
	base, baseChanged := chat.Merge(&a.CompletionChunk, &b.CompletionChunk)
	errRecord, errChanged := merge.ReplaceFunc(a.Error, b.Error, (*types.ResponseError).Equal)

	if !baseChanged && !errChanged {
		return a, false
	}
	return &ReasoningSummaryChunk{
		CompletionChunk: *base,
		Error:           errRecord,
	}, true
}
