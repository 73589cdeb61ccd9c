package models

import "time"

// RankingView names one sorted leaderboard over instrument state.
type RankingView string

const (
	ViewGainers     RankingView = "gainers"
	ViewLosers      RankingView = "losers"
	ViewMomentum    RankingView = "momentum"
	ViewVolumeSpike RankingView = "volume_spike"
)

// RankingEntry is one row of a ranking view.
type RankingEntry struct {
	Token       string  `json:"token"`
	LTP         float64 `json:"ltp"`
	ChangePct   float64 `json:"changePct"`
	FromOpenPct float64 `json:"fromOpenPct"`
	RangePct    float64 `json:"rangePct"`
	RelStrength float64 `json:"relStrength"`
	VWAP        float64 `json:"vwap"`
	Score       float64 `json:"score"`
}

// RankingTable is one fully materialized, size-capped sorted view.
// Tables are replaced wholesale each refresh cycle, never patched.
type RankingTable struct {
	View       RankingView    `json:"view"`
	Entries    []RankingEntry `json:"entries"`
	ComputedAt time.Time      `json:"computedAt"`
}
