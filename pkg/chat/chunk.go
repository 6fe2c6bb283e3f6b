// Package chat defines the streamed chat completion chunk and how
// consecutive chunks fold into one snapshot.
package chat

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/jg-phare/chunkfold/pkg/types"
)

// Role is the author of a message.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ObjectChunk is the object tag carried by every chat completion chunk.
const ObjectChunk = "chat.completion.chunk"

// CompletionChunk is one streamed update of a chat completion.
type CompletionChunk struct {
	ID                string       `json:"id"`
	UpstreamID        string       `json:"upstream_id"`
	Choices           []*Choice    `json:"choices"`
	Created           uint64       `json:"created"`
	Model             string       `json:"model"`
	UpstreamModel     string       `json:"upstream_model"`
	Object            string       `json:"object"`
	ServiceTier       *string      `json:"service_tier,omitempty"`
	SystemFingerprint *string      `json:"system_fingerprint,omitempty"`
	Usage             *types.Usage `json:"usage,omitempty"`
	Provider          *string      `json:"provider,omitempty"`
}

// Text returns the accumulated content of the choice with the given index.
func (c *CompletionChunk) Text(index uint64) string {
	for _, ch := range c.Choices {
		if ch.Index == index && ch.Delta != nil && ch.Delta.Content != nil {
			return *ch.Delta.Content
		}
	}
	return ""
}

// Choice is one alternative within a chunk.
type Choice struct {
	Index        uint64    `json:"index"`
	Delta        *Delta    `json:"delta"`
	FinishReason *string   `json:"finish_reason,omitempty"`
	Logprobs     *Logprobs `json:"logprobs,omitempty"`
}

// ChunkIndex implements merge.Indexed.
func (c *Choice) ChunkIndex() uint64 { return c.Index }

// Delta is the incremental content of a choice.
type Delta struct {
	Content   *string     `json:"content,omitempty"`
	Refusal   *string     `json:"refusal,omitempty"`
	Role      *Role       `json:"role,omitempty"`
	ToolCalls []*ToolCall `json:"tool_calls,omitempty"`
	Reasoning *string     `json:"reasoning,omitempty"`
	Images    []Image     `json:"images,omitempty"`
}

// ToolCall is a function call requested by the model, streamed in pieces.
type ToolCall struct {
	Index    uint64        `json:"index"`
	Type     *string       `json:"type,omitempty"`
	ID       *string       `json:"id,omitempty"`
	Function *FunctionCall `json:"function,omitempty"`
}

// ChunkIndex implements merge.Indexed.
func (t *ToolCall) ChunkIndex() uint64 { return t.Index }

// FunctionCall is the function name and arguments of a tool call.
type FunctionCall struct {
	Name      *string `json:"name,omitempty"`
	Arguments *string `json:"arguments,omitempty"`
}

// ParseArguments decodes the arguments accumulated so far. Arguments cut
// off mid-stream are repaired before decoding.
func (f *FunctionCall) ParseArguments() (map[string]any, error) {
	if f == nil || f.Arguments == nil || strings.TrimSpace(*f.Arguments) == "" {
		return nil, nil
	}
	var out map[string]any
	err := json.Unmarshal([]byte(*f.Arguments), &out)
	if err == nil {
		return out, nil
	}
	fixed, rerr := jsonrepair.JSONRepair(*f.Arguments)
	if rerr != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fixed), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Image is an image produced by the model.
type Image struct {
	Type     string   `json:"type"`
	ImageURL ImageURL `json:"image_url"`
}

// ImageURL locates an image, usually as a data URL.
type ImageURL struct {
	URL string `json:"url"`
}

// Logprobs carries token log probabilities for a choice.
type Logprobs struct {
	Content []TokenLogprob `json:"content,omitempty"`
	Refusal []TokenLogprob `json:"refusal,omitempty"`
}

// TokenLogprob is the log probability of one sampled token.
type TokenLogprob struct {
	Token       string       `json:"token"`
	Bytes       []int        `json:"bytes,omitempty"`
	Logprob     float64      `json:"logprob"`
	TopLogprobs []TopLogprob `json:"top_logprobs,omitempty"`
}

// TopLogprob is one of the most likely alternatives to a sampled token.
type TopLogprob struct {
	Token   string  `json:"token"`
	Bytes   []int   `json:"bytes,omitempty"`
	Logprob float64 `json:"logprob"`
}
