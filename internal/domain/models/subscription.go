package models

import "time"

// Tier is a named subscription priority bucket.
type Tier string

const (
	TierCore     Tier = "CORE"
	TierActive   Tier = "ACTIVE"
	TierRotation Tier = "ROTATION"
)

// SubscribeMode controls feed richness per token.
type SubscribeMode string

const (
	ModeLTP   SubscribeMode = "ltp"
	ModeQuote SubscribeMode = "quote"
	ModeFull  SubscribeMode = "full"
)

// DegradationMode reflects external load pressure on the scanner.
type DegradationMode string

const (
	DegradeNone     DegradationMode = "NORMAL"
	DegradeReduced  DegradationMode = "REDUCED"
	DegradeCoreOnly DegradationMode = "CORE_ONLY"
)

// SubscriptionPlan is one full recomputation of tier membership. Total
// membership across tiers never exceeds Capacity.
type SubscriptionPlan struct {
	Buckets    map[Tier][]string `json:"buckets"`
	Capacity   int               `json:"capacity"`
	Mode       SubscribeMode     `json:"mode"`
	Depth      int               `json:"depth"`
	ComputedAt time.Time         `json:"computedAt"`
}

// Tokens flattens the plan in tier priority order.
func (p *SubscriptionPlan) Tokens() []string {
	out := make([]string, 0, p.Capacity)
	for _, tier := range []Tier{TierCore, TierActive, TierRotation} {
		out = append(out, p.Buckets[tier]...)
	}
	return out
}

// Size is the total membership across all tiers.
func (p *SubscriptionPlan) Size() int {
	n := 0
	for _, toks := range p.Buckets {
		n += len(toks)
	}
	return n
}
