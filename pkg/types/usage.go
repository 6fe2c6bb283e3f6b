// Package types holds records shared by every chunk family.
package types

// Usage reports token and cost statistics. Chunks carry it whole, usually
// on the last chunk, so merges replace it rather than summing.
type Usage struct {
	CompletionTokens        uint64                   `json:"completion_tokens"`
	PromptTokens            uint64                   `json:"prompt_tokens"`
	TotalTokens             uint64                   `json:"total_tokens"`
	CompletionTokensDetails *CompletionTokensDetails `json:"completion_tokens_details,omitempty"`
	PromptTokensDetails     *PromptTokensDetails     `json:"prompt_tokens_details,omitempty"`
	Cost                    float64                  `json:"cost"`
	CostDetails             *CostDetails             `json:"cost_details,omitempty"`
	TotalCost               float64                  `json:"total_cost"`
}

// CompletionTokensDetails breaks down completion tokens by kind.
type CompletionTokensDetails struct {
	AcceptedPredictionTokens *uint64 `json:"accepted_prediction_tokens,omitempty"`
	AudioTokens              *uint64 `json:"audio_tokens,omitempty"`
	ReasoningTokens          *uint64 `json:"reasoning_tokens,omitempty"`
	RejectedPredictionTokens *uint64 `json:"rejected_prediction_tokens,omitempty"`
}

// PromptTokensDetails breaks down prompt tokens by kind.
type PromptTokensDetails struct {
	AudioTokens      *uint64 `json:"audio_tokens,omitempty"`
	CachedTokens     *uint64 `json:"cached_tokens,omitempty"`
	CacheWriteTokens *uint64 `json:"cache_write_tokens,omitempty"`
	VideoTokens      *uint64 `json:"video_tokens,omitempty"`
}

// CostDetails reports the cost charged by upstream providers.
type CostDetails struct {
	UpstreamInferenceCost         float64 `json:"upstream_inference_cost"`
	UpstreamUpstreamInferenceCost float64 `json:"upstream_upstream_inference_cost"`
}

// IsEmpty reports whether u records no tokens and no cost.
func (u *Usage) IsEmpty() bool {
	if u == nil {
		return true
	}
	return u.CompletionTokens == 0 &&
		u.PromptTokens == 0 &&
		u.TotalTokens == 0 &&
		u.Cost == 0 &&
		u.TotalCost == 0 &&
		u.CompletionTokensDetails.isEmpty() &&
		u.PromptTokensDetails.isEmpty() &&
		u.CostDetails.isEmpty()
}

func (d *CompletionTokensDetails) isEmpty() bool {
	return d == nil || (zero(d.AcceptedPredictionTokens) && zero(d.AudioTokens) &&
		zero(d.ReasoningTokens) && zero(d.RejectedPredictionTokens))
}

func (d *PromptTokensDetails) isEmpty() bool {
	return d == nil || (zero(d.AudioTokens) && zero(d.CachedTokens) &&
		zero(d.CacheWriteTokens) && zero(d.VideoTokens))
}

func (d *CostDetails) isEmpty() bool {
	return d == nil || (d.UpstreamInferenceCost == 0 && d.UpstreamUpstreamInferenceCost == 0)
}

func zero(v *uint64) bool { return v == nil || *v == 0 }

// Add returns the sum of u and o. Either side may be nil.
func (u *Usage) Add(o *Usage) *Usage {
	if u == nil {
		return o
	}
	if o == nil {
		return u
	}
	return &Usage{
		CompletionTokens:        u.CompletionTokens + o.CompletionTokens,
		PromptTokens:            u.PromptTokens + o.PromptTokens,
		TotalTokens:             u.TotalTokens + o.TotalTokens,
		CompletionTokensDetails: u.CompletionTokensDetails.add(o.CompletionTokensDetails),
		PromptTokensDetails:     u.PromptTokensDetails.add(o.PromptTokensDetails),
		Cost:                    u.Cost + o.Cost,
		CostDetails:             u.CostDetails.add(o.CostDetails),
		TotalCost:               u.TotalCost + o.TotalCost,
	}
}

func (d *CompletionTokensDetails) add(o *CompletionTokensDetails) *CompletionTokensDetails {
	if d == nil {
		return o
	}
	if o == nil {
		return d
	}
	return &CompletionTokensDetails{
		AcceptedPredictionTokens: sum(d.AcceptedPredictionTokens, o.AcceptedPredictionTokens),
		AudioTokens:              sum(d.AudioTokens, o.AudioTokens),
		ReasoningTokens:          sum(d.ReasoningTokens, o.ReasoningTokens),
		RejectedPredictionTokens: sum(d.RejectedPredictionTokens, o.RejectedPredictionTokens),
	}
}

func (d *PromptTokensDetails) add(o *PromptTokensDetails) *PromptTokensDetails {
	if d == nil {
		return o
	}
	if o == nil {
		return d
	}
	return &PromptTokensDetails{
		AudioTokens:      sum(d.AudioTokens, o.AudioTokens),
		CachedTokens:     sum(d.CachedTokens, o.CachedTokens),
		CacheWriteTokens: sum(d.CacheWriteTokens, o.CacheWriteTokens),
		VideoTokens:      sum(d.VideoTokens, o.VideoTokens),
	}
}

func (d *CostDetails) add(o *CostDetails) *CostDetails {
	if d == nil {
		return o
	}
	if o == nil {
		return d
	}
	return &CostDetails{
		UpstreamInferenceCost:         d.UpstreamInferenceCost + o.UpstreamInferenceCost,
		UpstreamUpstreamInferenceCost: d.UpstreamUpstreamInferenceCost + o.UpstreamUpstreamInferenceCost,
	}
}

func sum(a, b *uint64) *uint64 {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	s := *a + *b
	return &s
}
