package models

import "time"

// Classification of an emitted signal.
type Classification string

const (
	ClassBuy        Classification = "BUY"
	ClassStrongBuy  Classification = "STRONG_BUY"
	ClassSell       Classification = "SELL"
	ClassStrongSell Classification = "STRONG_SELL"
)

// SignalState is the per-instrument orchestrator state, re-evaluated
// every scan cycle.
type SignalState string

const (
	StateNoSignal          SignalState = "NO_SIGNAL"
	StateBreakoutCandidate SignalState = "BREAKOUT_CANDIDATE"
	StateScored            SignalState = "SCORED"
	StateBlocked           SignalState = "BLOCKED"
	StateEmitted           SignalState = "EMITTED"
)

// GuardOutcome is one guard's verdict on a candidate signal. Reason is a
// machine-readable code; the ordered list of outcomes forms the signal's
// audit trail.
type GuardOutcome struct {
	Guard       string `json:"guard"`
	Allowed     bool   `json:"allowed"`
	Reason      string `json:"reason,omitempty"`
	Adjusted    bool   `json:"adjusted,omitempty"`
	Warning     string `json:"warning,omitempty"`
	RemainingMs int64  `json:"remainingMs,omitempty"`
}

// RiskPlan carries the stop and the three staged targets derived from
// ATR/swing/support-resistance, plus the resulting risk:reward ratio.
type RiskPlan struct {
	Entry      float64    `json:"entry"`
	Stop       float64    `json:"stop"`
	Targets    [3]float64 `json:"targets"`
	RiskReward float64    `json:"riskReward"`
}

// Signal is an advisory directional trading signal. It is immutable once
// emitted; a later signal for the same token supersedes it, with the older
// copy retained only in bounded history.
type Signal struct {
	Token          string           `json:"token"`
	Direction      Direction        `json:"direction"`
	Classification Classification   `json:"classification"`
	Strength       float64          `json:"strength"`
	RankScore      float64          `json:"rankScore"`
	Confidence     float64          `json:"confidence"`
	Risk           RiskPlan         `json:"risk"`
	Detections     []DetectionEvent `json:"detections,omitempty"`
	Guards         []GuardOutcome   `json:"guards"`
	Warnings       []string         `json:"warnings,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	Superseded     bool             `json:"superseded,omitempty"`
}

// DayRegime classifies the session from benchmark-index behaviour.
type DayRegime struct {
	State      string    `json:"state"` // "TREND_UP", "TREND_DOWN", "CHOPPY"
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}
