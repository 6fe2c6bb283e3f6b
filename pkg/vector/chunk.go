// Package vector defines streamed vector completion chunks: an ensemble of
// chat completions whose votes are scored into a vector.
package vector

import (
	"slices"

	"github.com/jg-phare/chunkfold/pkg/chat"
	"github.com/jg-phare/chunkfold/pkg/types"
)

// ObjectChunk is the object tag carried by every vector completion chunk.
const ObjectChunk = "vector.completion.chunk"

// Chunk is one streamed update of a vector completion.
type Chunk struct {
	ID          string             `json:"id"`
	Completions []*CompletionChunk `json:"completions"`
	Votes       []Vote             `json:"votes"`
	Scores      []float64          `json:"scores"`
	Weights     []float64          `json:"weights"`
	Created     uint64             `json:"created"`
	Ensemble    string             `json:"ensemble"`
	Object      string             `json:"object"`
	Usage       *types.Usage       `json:"usage,omitempty"`
}

// CompletionChunk is a chat completion chunk produced by one member of the
// ensemble. Error records a failure of that member only.
type CompletionChunk struct {
	Index uint64 `json:"index"`
	chat.CompletionChunk
	Error *types.ResponseError `json:"error,omitempty"`
}

// ChunkIndex implements merge.Indexed.
func (c *CompletionChunk) ChunkIndex() uint64 { return c.Index }

// Vote is the selection made by one model of the ensemble.
type Vote struct {
	Model             string    `json:"model"`
	EnsembleIndex     uint64    `json:"ensemble_index"`
	FlatEnsembleIndex uint64    `json:"flat_ensemble_index"`
	PromptID          string    `json:"prompt_id"`
	ToolsID           *string   `json:"tools_id,omitempty"`
	ResponsesIDs      []string  `json:"responses_ids"`
	Vote              []float64 `json:"vote"`
	Weight            float64   `json:"weight"`
	Retry             *bool     `json:"retry,omitempty"`
	FromCache         *bool     `json:"from_cache,omitempty"`
	FromRNG           *bool     `json:"from_rng,omitempty"`
}

// Equal reports whether v and o carry identical data.
func (v Vote) Equal(o Vote) bool {
	return v.Model == o.Model &&
		v.EnsembleIndex == o.EnsembleIndex &&
		v.FlatEnsembleIndex == o.FlatEnsembleIndex &&
		v.PromptID == o.PromptID &&
		eqPtr(v.ToolsID, o.ToolsID) &&
		slices.Equal(v.ResponsesIDs, o.ResponsesIDs) &&
		slices.Equal(v.Vote, o.Vote) &&
		v.Weight == o.Weight &&
		eqPtr(v.Retry, o.Retry) &&
		eqPtr(v.FromCache, o.FromCache) &&
		eqPtr(v.FromRNG, o.FromRNG)
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Winner returns the index of the highest score, or -1 when there are none.
// Ties go to the lowest index.
func (c *Chunk) Winner() int {
	best := -1
	for i, s := range c.Scores {
		if best < 0 || s > c.Scores[best] {
			best = i
		}
	}
	return best
}
