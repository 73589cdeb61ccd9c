// Package detect holds the breakout/explosion detectors. Every detector is
// a pure predicate over (state snapshot, indicator snapshot, raw candle
// history) returning zero or one DetectionEvent; the engine combines them
// into a composite with a weighted severity and a voted direction.
package detect

import (
	"math"
	"time"

	"IntraScan/internal/domain/models"
)

// Config carries all detector thresholds, validated once at construction.
type Config struct {
	EarlyWindow      time.Duration `yaml:"early_window"`
	EarlyMovePct     float64       `yaml:"early_move_pct"`
	AccelBars        int           `yaml:"accel_bars"`
	AccelRatio       float64       `yaml:"accel_ratio"`
	VolumeRatio      float64       `yaml:"volume_ratio"`
	RecentVolRatio   float64       `yaml:"recent_vol_ratio"`
	RunnerMinBars    int           `yaml:"runner_min_bars"`
	RunnerMinMovePct float64       `yaml:"runner_min_move_pct"`
	OIChangePct      float64       `yaml:"oi_change_pct"`
	OptionRangeRatio float64       `yaml:"option_range_ratio"`
	MinTurnover      float64       `yaml:"min_turnover"`
}

// DefaultConfig returns the standard detector thresholds.
func DefaultConfig() Config {
	return Config{
		EarlyWindow:      45 * time.Minute,
		EarlyMovePct:     1.5,
		AccelBars:        5,
		AccelRatio:       2.0,
		VolumeRatio:      2.5,
		RecentVolRatio:   1.5,
		RunnerMinBars:    4,
		RunnerMinMovePct: 1.0,
		OIChangePct:      3.0,
		OptionRangeRatio: 2.0,
		MinTurnover:      500_000,
	}
}

// weights by detector type. Early expansion and the sustained runner carry
// the most signal.
var weights = map[models.DetectionType]float64{
	models.DetectEarlyExpansion: 1.0,
	models.DetectRunner:         1.0,
	models.DetectPriceAccel:     0.8,
	models.DetectOptionRangeExp: 0.8,
	models.DetectVolumeAccel:    0.7,
	models.DetectOIBuildup:      0.6,
}

// Input is everything the detectors may look at for one instrument in one
// scan cycle.
type Input struct {
	State       *models.InstrumentState
	Snapshot    *models.IndicatorSnapshot
	Candles     []models.Candle
	PrevOI      float64
	SessionOpen time.Time
	Now         time.Time
	IsOption    bool
}

// Engine runs all detectors and composes their events.
type Engine struct {
	cfg Config
}

// NewEngine creates a detection engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Run evaluates every detector against in and returns the composite.
func (e *Engine) Run(in Input) models.CompositeDetection {
	out := models.CompositeDetection{Direction: models.DirectionNone}
	if in.State == nil {
		return out
	}
	out.Token = in.State.Token

	for _, fn := range []func(Input) *models.DetectionEvent{
		e.earlyExpansion,
		e.priceAcceleration,
		e.volumeAcceleration,
		e.sustainedRunner,
		e.oiBuildup,
		e.optionRangeExpansion,
	} {
		if ev := fn(in); ev != nil {
			out.Events = append(out.Events, *ev)
		}
	}
	if len(out.Events) == 0 {
		return out
	}

	for _, ev := range out.Events {
		out.Severity += weights[ev.Type] * ev.Strength
	}
	out.Direction = e.voteDirection(in, out.Events)
	out.Actionable = e.actionable(in, out.Events)
	return out
}

// voteDirection is a majority vote across detector directions; ties break
// on the short-horizon price trend.
func (e *Engine) voteDirection(in Input, events []models.DetectionEvent) models.Direction {
	long, short := 0, 0
	for _, ev := range events {
		switch ev.Direction {
		case models.DirectionLong:
			long++
		case models.DirectionShort:
			short++
		}
	}
	switch {
	case long > short:
		return models.DirectionLong
	case short > long:
		return models.DirectionShort
	}
	return shortTrend(in.Candles, e.cfg.AccelBars)
}

func shortTrend(candles []models.Candle, bars int) models.Direction {
	if len(candles) <= bars {
		return models.DirectionNone
	}
	delta := candles[len(candles)-1].Close - candles[len(candles)-1-bars].Close
	switch {
	case delta > 0:
		return models.DirectionLong
	case delta < 0:
		return models.DirectionShort
	}
	return models.DirectionNone
}

// actionable requires at least one high-salience event plus the liquidity
// floor.
func (e *Engine) actionable(in Input, events []models.DetectionEvent) bool {
	salient := false
	for _, ev := range events {
		if ev.Type == models.DetectEarlyExpansion || ev.Type == models.DetectRunner || ev.Strength >= 0.7 {
			salient = true
			break
		}
	}
	if !salient {
		return false
	}
	if in.Snapshot == nil {
		return false
	}
	return in.State.LTP*in.Snapshot.VolAvg20 >= e.cfg.MinTurnover
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func directionOf(delta float64) models.Direction {
	if delta >= 0 {
		return models.DirectionLong
	}
	return models.DirectionShort
}
