// Package signal composes detection output into directional trading
// signals: breakout validation, strength and rank scoring, and the BUY vs
// STRONG_BUY classification gate.
package signal

import (
	"sync"
	"time"

	"IntraScan/internal/domain/models"
)

// Config carries orchestrator thresholds, validated once at construction.
type Config struct {
	LookbackBars      int     `yaml:"lookback_bars"`
	VolumeRatio       float64 `yaml:"volume_ratio"`
	RSILongMin        float64 `yaml:"rsi_long_min"`
	RSILongMax        float64 `yaml:"rsi_long_max"`
	RSIShortMin       float64 `yaml:"rsi_short_min"`
	RSIShortMax       float64 `yaml:"rsi_short_max"`
	ATRPctCeiling     float64 `yaml:"atr_pct_ceiling"`
	SwingBars         int     `yaml:"swing_bars"`
	StopATRMult       float64 `yaml:"stop_atr_mult"`
	MinRiskReward     float64 `yaml:"min_risk_reward"`
	StrongVolumeRatio float64 `yaml:"strong_volume_ratio"`
	StrongMinRR       float64 `yaml:"strong_min_rr"`
}

// DefaultConfig returns the standard orchestrator thresholds.
func DefaultConfig() Config {
	return Config{
		LookbackBars:      20,
		VolumeRatio:       2.0,
		RSILongMin:        50,
		RSILongMax:        75,
		RSIShortMin:       25,
		RSIShortMax:       50,
		ATRPctCeiling:     3.0,
		SwingBars:         10,
		StopATRMult:       1.5,
		MinRiskReward:     1.2,
		StrongVolumeRatio: 3.0,
		StrongMinRR:       2.0,
	}
}

// Thresholds are the effective mandatory-condition thresholds for one
// evaluation. The adaptive filter may tighten them session-wide; they apply
// immediately within the cycle that triggered the tightening.
type Thresholds struct {
	VolumeRatio   float64
	ATRPctCeiling float64
	RSITighten    float64 // narrows both RSI bands from each side
}

// Input is one instrument's view for one scan cycle.
type Input struct {
	Token      string
	State      *models.InstrumentState
	Snapshot   *models.IndicatorSnapshot
	Candles    []models.Candle
	HTF        *models.IndicatorSnapshot // higher-timeframe snapshot, optional
	Composite  models.CompositeDetection
	Thresholds Thresholds
	Now        time.Time
}

// Rejection explains why no candidate was produced this cycle.
type Rejection struct {
	Reason string
	Detail string
}

// Rejection reason codes.
const (
	ReasonNotActionable = "NOT_ACTIONABLE"
	ReasonNoBreakout    = "NO_BREAKOUT"
	ReasonVolumeBelow   = "VOLUME_BELOW_THRESHOLD"
	ReasonOptionalWeak  = "OPTIONAL_CONDITIONS_WEAK"
	ReasonNoRiskReward  = "NO_RISK_REWARD"
)

// Orchestrator is the per-instrument signal state machine, re-evaluated
// every scan cycle: NO_SIGNAL → BREAKOUT_CANDIDATE → SCORED →
// {BLOCKED | EMITTED}.
type Orchestrator struct {
	cfg Config

	mu     sync.Mutex
	states map[string]models.SignalState
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.LookbackBars <= 0 {
		cfg = DefaultConfig()
	}
	return &Orchestrator{cfg: cfg, states: make(map[string]models.SignalState)}
}

// State returns the current state-machine position for token.
func (o *Orchestrator) State(token string) models.SignalState {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.states[token]; ok {
		return s
	}
	return models.StateNoSignal
}

func (o *Orchestrator) setState(token string, s models.SignalState) {
	o.mu.Lock()
	o.states[token] = s
	o.mu.Unlock()
}

// MarkEmitted records that the guard chain allowed the candidate.
func (o *Orchestrator) MarkEmitted(token string) { o.setState(token, models.StateEmitted) }

// MarkBlocked records that the guard chain blocked the candidate.
func (o *Orchestrator) MarkBlocked(token string) { o.setState(token, models.StateBlocked) }

// Reset clears all per-token state (daily boundary).
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.states = make(map[string]models.SignalState)
	o.mu.Unlock()
}

// Evaluate runs one full cycle for one instrument and either returns a
// scored candidate signal (still subject to the guard chain) or a rejection
// with a structured reason. The safe default on any ambiguous condition is
// no signal.
func (o *Orchestrator) Evaluate(in Input) (*models.Signal, *Rejection) {
	if in.State == nil || in.Snapshot == nil {
		o.setState(in.Token, models.StateNoSignal)
		return nil, &Rejection{Reason: ReasonNotActionable, Detail: "missing state or indicators"}
	}
	if !in.Composite.Actionable {
		o.setState(in.Token, models.StateNoSignal)
		return nil, &Rejection{Reason: ReasonNotActionable}
	}

	bo := o.checkBreakout(in)
	if !bo.Valid {
		o.setState(in.Token, models.StateNoSignal)
		return nil, &Rejection{Reason: bo.FailReason, Detail: bo.FailDetail}
	}
	o.setState(in.Token, models.StateBreakoutCandidate)

	risk, ok := o.buildRiskPlan(in, bo.Direction)
	if !ok {
		o.setState(in.Token, models.StateNoSignal)
		return nil, &Rejection{Reason: ReasonNoRiskReward}
	}

	strength := o.scoreStrength(in, bo, risk)
	class := o.classify(in, bo, risk)
	rank := o.rankScore(in, bo, strength)
	o.setState(in.Token, models.StateScored)

	return &models.Signal{
		Token:          in.Token,
		Direction:      bo.Direction,
		Classification: class,
		Strength:       strength,
		RankScore:      rank,
		Risk:           risk,
		Detections:     in.Composite.Events,
		CreatedAt:      in.Now,
	}, nil
}
