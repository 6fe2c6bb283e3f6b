// Package profiles defines streamed profile computation chunks: a batch of
// function executions over a dataset used to fit a function profile.
package profiles

import (
	"encoding/json"

	"github.com/jg-phare/chunkfold/pkg/functions"
	"github.com/jg-phare/chunkfold/pkg/merge"
	"github.com/jg-phare/chunkfold/pkg/types"
)

// ObjectChunk is the object tag carried by every profile computation chunk.
const ObjectChunk = "function.profile.computation.chunk"

// Chunk is one streamed update of a profile computation.
type Chunk struct {
	ID               string            `json:"id"`
	Executions       []*ExecutionChunk `json:"executions"`
	ExecutionsErrors *bool             `json:"executions_errors,omitempty"`
	Profile          json.RawMessage   `json:"profile,omitempty"`
	FittingStats     json.RawMessage   `json:"fitting_stats,omitempty"`
	RetryToken       *string           `json:"retry_token,omitempty"`
	Created          uint64            `json:"created"`
	Function         string            `json:"function"`
	Object           string            `json:"object"`
	Usage            *types.Usage      `json:"usage,omitempty"`
}

// ExecutionChunk is one function execution of the computation, run
// against item Dataset of the training set.
type ExecutionChunk struct {
	Index   uint64 `json:"index"`
	Dataset uint64 `json:"dataset"`
	N       uint64 `json:"n"`
	Retry   uint64 `json:"retry"`
	functions.ExecutionChunk
}

// ChunkIndex implements merge.Indexed.
func (e *ExecutionChunk) ChunkIndex() uint64 { return e.Index }

// Merge folds chunk b into snapshot a.
func Merge(a, b *Chunk) (*Chunk, bool) {
	executions, executionsChanged := MergeExecutions(a.Executions, b.Executions)
	executionsErrors, executionsErrorsChanged := merge.Replace(a.ExecutionsErrors, b.ExecutionsErrors)
	profile, profileChanged := merge.Raw(a.Profile, b.Profile)
	fittingStats, fittingStatsChanged := merge.Raw(a.FittingStats, b.FittingStats)
	retryToken, retryTokenChanged := merge.Replace(a.RetryToken, b.RetryToken)
	usage, usageChanged := merge.ReplaceDeep(a.Usage, b.Usage)

	if !executionsChanged && !executionsErrorsChanged && !profileChanged &&
		!fittingStatsChanged && !retryTokenChanged && !usageChanged {
		return a, false
	}
	return &Chunk{
		ID:               a.ID,
		Executions:       executions,
		ExecutionsErrors: executionsErrors,
		Profile:          profile,
		FittingStats:     fittingStats,
		RetryToken:       retryToken,
		Created:          a.Created,
		Function:         a.Function,
		Object:           a.Object,
		Usage:            usage,
	}, true
}

// MergeExecutions merges executions by index.
func MergeExecutions(a, b []*ExecutionChunk) ([]*ExecutionChunk, bool) {
	return merge.IndexedList(a, b, MergeExecution)
}

// MergeExecution folds b into a. Dataset position fields keep a's values.
func MergeExecution(a, b *ExecutionChunk) (*ExecutionChunk, bool) {
	base, changed := functions.Merge(&a.ExecutionChunk, &b.ExecutionChunk)
	if !changed {
		return a, false
	}
	return &ExecutionChunk{
		Index:          a.Index,
		Dataset:        a.Dataset,
		N:              a.N,
		Retry:          a.Retry,
		ExecutionChunk: *base,
	}, true
}
