package models

// Tick is a single real-time quote update for one instrument.
// LTP must be positive; every other market field is optional and
// individually nullable as delivered by the broker feed.
type Tick struct {
	Token     string
	LTP       float64
	Volume    float64
	OI        *float64
	Open      *float64
	High      *float64
	Low       *float64
	Close     *float64
	Bid       *float64
	Ask       *float64
	BidQty    *float64
	AskQty    *float64
	Timestamp int64 // unix seconds
}

// Spread returns ask-bid when both sides are present.
func (t *Tick) Spread() (float64, bool) {
	if t.Bid == nil || t.Ask == nil {
		return 0, false
	}
	return *t.Ask - *t.Bid, true
}

// Depth returns total visible quantity on both sides when present.
func (t *Tick) Depth() (float64, bool) {
	if t.BidQty == nil || t.AskQty == nil {
		return 0, false
	}
	return *t.BidQty + *t.AskQty, true
}
