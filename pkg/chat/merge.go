package chat

import (
	"github.com/jg-phare/chunkfold/pkg/merge"
)

// Merge folds chunk b into snapshot a. Identity fields keep a's values.
func Merge(a, b *CompletionChunk) (*CompletionChunk, bool) {
	choices, choicesChanged := MergeChoices(a.Choices, b.Choices)
	serviceTier, serviceTierChanged := merge.Replace(a.ServiceTier, b.ServiceTier)
	fingerprint, fingerprintChanged := merge.Replace(a.SystemFingerprint, b.SystemFingerprint)
	usage, usageChanged := merge.ReplaceDeep(a.Usage, b.Usage)
	provider, providerChanged := merge.Replace(a.Provider, b.Provider)

	if !choicesChanged && !serviceTierChanged && !fingerprintChanged && !usageChanged && !providerChanged {
		return a, false
	}
	return &CompletionChunk{
		ID:                a.ID,
		UpstreamID:        a.UpstreamID,
		Choices:           choices,
		Created:           a.Created,
		Model:             a.Model,
		UpstreamModel:     a.UpstreamModel,
		Object:            a.Object,
		ServiceTier:       serviceTier,
		SystemFingerprint: fingerprint,
		Usage:             usage,
		Provider:          provider,
	}, true
}

// MergeChoices merges choices by index.
func MergeChoices(a, b []*Choice) ([]*Choice, bool) {
	return merge.IndexedList(a, b, MergeChoice)
}

// MergeChoice folds choice b into a.
func MergeChoice(a, b *Choice) (*Choice, bool) {
	delta, deltaChanged := merge.Object(a.Delta, b.Delta, MergeDelta)
	finish, finishChanged := merge.Replace(a.FinishReason, b.FinishReason)
	logprobs, logprobsChanged := merge.ReplaceDeep(a.Logprobs, b.Logprobs)

	if !deltaChanged && !finishChanged && !logprobsChanged {
		return a, false
	}
	return &Choice{
		Index:        a.Index,
		Delta:        delta,
		FinishReason: finish,
		Logprobs:     logprobs,
	}, true
}

// MergeDelta appends text fragments and merges tool calls by index.
func MergeDelta(a, b *Delta) (*Delta, bool) {
	content, contentChanged := merge.Append(a.Content, b.Content)
	refusal, refusalChanged := merge.Append(a.Refusal, b.Refusal)
	role, roleChanged := merge.Replace(a.Role, b.Role)
	toolCalls, toolCallsChanged := MergeToolCalls(a.ToolCalls, b.ToolCalls)
	reasoning, reasoningChanged := merge.Append(a.Reasoning, b.Reasoning)
	images, imagesChanged := merge.Concat(a.Images, b.Images)

	if !contentChanged && !refusalChanged && !roleChanged && !toolCallsChanged && !reasoningChanged && !imagesChanged {
		return a, false
	}
	return &Delta{
		Content:   content,
		Refusal:   refusal,
		Role:      role,
		ToolCalls: toolCalls,
		Reasoning: reasoning,
		Images:    images,
	}, true
}

// MergeToolCalls merges tool calls by index.
func MergeToolCalls(a, b []*ToolCall) ([]*ToolCall, bool) {
	return merge.IndexedList(a, b, MergeToolCall)
}

// MergeToolCall folds tool call b into a.
func MergeToolCall(a, b *ToolCall) (*ToolCall, bool) {
	typ, typChanged := merge.Replace(a.Type, b.Type)
	id, idChanged := merge.Replace(a.ID, b.ID)
	fn, fnChanged := merge.Object(a.Function, b.Function, MergeFunctionCall)

	if !typChanged && !idChanged && !fnChanged {
		return a, false
	}
	return &ToolCall{
		Index:    a.Index,
		Type:     typ,
		ID:       id,
		Function: fn,
	}, true
}

// MergeFunctionCall appends argument fragments. The name is replaced.
func MergeFunctionCall(a, b *FunctionCall) (*FunctionCall, bool) {
	name, nameChanged := merge.Replace(a.Name, b.Name)
	args, argsChanged := merge.Append(a.Arguments, b.Arguments)

	if !nameChanged && !argsChanged {
		return a, false
	}
	return &FunctionCall{Name: name, Arguments: args}, true
}
