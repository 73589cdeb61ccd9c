package guard

import (
	"strings"
	"time"

	"IntraScan/internal/domain/models"
)

// SafetyConfig carries the safety guard thresholds.
type SafetyConfig struct {
	RSIExtremeHigh float64       `yaml:"rsi_extreme_high"`
	RSIExtremeLow  float64       `yaml:"rsi_extreme_low"`
	MinVolRatio    float64       `yaml:"min_vol_ratio"`
	MaxATRPct      float64       `yaml:"max_atr_pct"`
	MinRiskReward  float64       `yaml:"min_risk_reward"`
	MinTurnover    float64       `yaml:"min_turnover"`
	SessionOpen    string        `yaml:"session_open"`  // "09:15"
	SessionClose   string        `yaml:"session_close"` // "15:30"
	EntryCutoff    time.Duration `yaml:"entry_cutoff"`  // no new signals this close to the bell
}

// DefaultSafetyConfig returns the standard safety thresholds.
func DefaultSafetyConfig() SafetyConfig {
	return SafetyConfig{
		RSIExtremeHigh: 85,
		RSIExtremeLow:  15,
		MinVolRatio:    1.5,
		MaxATRPct:      5.0,
		MinRiskReward:  1.2,
		MinTurnover:    500_000,
		SessionOpen:    "09:15",
		SessionClose:   "15:30",
		EntryCutoff:    15 * time.Minute,
	}
}

// Safety runs a fixed list of checks, each flagged critical or advisory.
// Critical failures block; advisory failures only annotate the signal.
type Safety struct {
	cfg SafetyConfig
}

// NewSafety creates the safety guard.
func NewSafety(cfg SafetyConfig) *Safety {
	return &Safety{cfg: cfg}
}

func (g *Safety) Name() string { return "safety" }

type safetyCheck struct {
	reason   string
	critical bool
	ok       func(c *Candidate) bool
}

func (g *Safety) Check(c *Candidate) models.GuardOutcome {
	checks := []safetyCheck{
		{"RSI_EXTREME", true, func(c *Candidate) bool {
			return c.Snapshot.RSI14 < g.cfg.RSIExtremeHigh && c.Snapshot.RSI14 > g.cfg.RSIExtremeLow
		}},
		{"NO_BREAKOUT_CONTEXT", true, func(c *Candidate) bool {
			return len(c.Signal.Detections) > 0 && c.Composite.Severity > 0
		}},
		{"VOLUME_UNCONFIRMED", true, func(c *Candidate) bool {
			return c.Snapshot.VolRatio >= g.cfg.MinVolRatio
		}},
		{"VOLATILITY_CEILING", true, func(c *Candidate) bool {
			return c.Snapshot.ATRPct <= g.cfg.MaxATRPct
		}},
		{"RISK_REWARD_FLOOR", true, func(c *Candidate) bool {
			return c.Signal.Risk.RiskReward >= g.cfg.MinRiskReward
		}},
		{"LIQUIDITY_FLOOR", true, func(c *Candidate) bool {
			return c.State.LTP*c.Snapshot.VolAvg20 >= g.cfg.MinTurnover
		}},
		{"OUTSIDE_MARKET_HOURS", true, func(c *Candidate) bool {
			return g.withinSession(c.Now)
		}},
		// Advisory: a stretched move from open is worth flagging, not
		// blocking.
		{"EXTENDED_FROM_OPEN", false, func(c *Candidate) bool {
			return c.State.ChangeFromOpenPct < 8 && c.State.ChangeFromOpenPct > -8
		}},
		{"AGAINST_DAY_REGIME", false, func(c *Candidate) bool {
			switch c.Regime.State {
			case "TREND_UP":
				return c.Signal.Direction != models.DirectionShort
			case "TREND_DOWN":
				return c.Signal.Direction != models.DirectionLong
			}
			return true
		}},
	}

	var warnings []string
	for _, chk := range checks {
		if chk.ok(c) {
			continue
		}
		if chk.critical {
			return block(g.Name(), chk.reason)
		}
		warnings = append(warnings, chk.reason)
	}

	out := pass(g.Name())
	if len(warnings) > 0 {
		out.Warning = strings.Join(warnings, ",")
	}
	return out
}

// withinSession checks the market-hours window, leaving the entry cutoff
// before the close.
func (g *Safety) withinSession(now time.Time) bool {
	open, err1 := parseClock(g.cfg.SessionOpen, now)
	close_, err2 := parseClock(g.cfg.SessionClose, now)
	if err1 != nil || err2 != nil {
		return false
	}
	return !now.Before(open) && now.Before(close_.Add(-g.cfg.EntryCutoff))
}

func parseClock(hhmm string, ref time.Time) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour(), t.Minute(), 0, 0, ref.Location()), nil
}
