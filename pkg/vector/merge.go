package vector

import (
	"github.com/jg-phare/chunkfold/pkg/chat"
	"github.com/jg-phare/chunkfold/pkg/merge"
	"github.com/jg-phare/chunkfold/pkg/types"
)

// Merge folds chunk b into snapshot a. Votes, scores and weights arrive as
// complete lists and replace the previous ones.
func Merge(a, b *Chunk) (*Chunk, bool) {
	completions, completionsChanged := MergeCompletions(a.Completions, b.Completions)
	votes, votesChanged := merge.SliceFunc(a.Votes, b.Votes, Vote.Equal)
	scores, scoresChanged := merge.Slice(a.Scores, b.Scores)
	weights, weightsChanged := merge.Slice(a.Weights, b.Weights)
	usage, usageChanged := merge.ReplaceDeep(a.Usage, b.Usage)

	if !completionsChanged && !votesChanged && !scoresChanged && !weightsChanged && !usageChanged {
		return a, false
	}
	return &Chunk{
		ID:          a.ID,
		Completions: completions,
		Votes:       votes,
		Scores:      scores,
		Weights:     weights,
		Created:     a.Created,
		Ensemble:    a.Ensemble,
		Object:      a.Object,
		Usage:       usage,
	}, true
}

// MergeCompletions merges ensemble completions by index.
func MergeCompletions(a, b []*CompletionChunk) ([]*CompletionChunk, bool) {
	return merge.IndexedList(a, b, MergeCompletion)
}

// MergeCompletion folds b into a as a chat chunk and replaces the error.
func MergeCompletion(a, b *CompletionChunk) (*CompletionChunk, bool) {
	base, baseChanged := chat.Merge(&a.CompletionChunk, &b.CompletionChunk)
	errRecord, errChanged := merge.ReplaceFunc(a.Error, b.Error, (*types.ResponseError).Equal)

	if !baseChanged && !errChanged {
		return a, false
	}
	return &CompletionChunk{
		Index:           a.Index,
		CompletionChunk: *base,
		Error:           errRecord,
	}, true
}
