package models

import "time"

// InstrumentState is the incrementally updated per-token snapshot fed by
// every tick. All derived fields are recomputed in O(1) on each update.
type InstrumentState struct {
	Token string

	LTP       float64
	TodayOpen float64
	// OpenLocked is set when the first valid tick after the session
	// boundary locks TodayOpen; it stays set until the next daily reset.
	OpenLocked bool
	DayHigh    float64
	DayLow     float64
	PrevClose  float64

	// Cumulative VWAP accumulators: Σ(typicalPrice·volume) and Σvolume.
	CumPV  float64
	CumVol float64
	VWAP   float64

	Points            float64 // vs prev close
	ChangePct         float64 // vs prev close
	PointsFromOpen    float64
	ChangeFromOpenPct float64
	RangePct          float64

	// RelStrength = own ChangePct − benchmark index ChangePct. May lag the
	// benchmark by one update cycle; see market.Store.
	RelStrength float64

	LastOI     float64
	LastVolume float64
	LastTick   time.Time
}

// Clone returns a copy safe to hand out to readers.
func (s *InstrumentState) Clone() *InstrumentState {
	c := *s
	return &c
}
