package guard

import (
	"IntraScan/internal/domain/models"
)

// MasterConfig tunes the final confidence gate.
type MasterConfig struct {
	MinConfidence float64 `yaml:"min_confidence"` // below this the signal is blocked
	StrongFloor   float64 `yaml:"strong_floor"`   // STRONG_* below this downgrades to base
}

// DefaultMasterConfig returns the standard final-gate settings.
func DefaultMasterConfig() MasterConfig {
	return MasterConfig{MinConfidence: 0.35, StrongFloor: 0.55}
}

// Master runs last. It folds strength, accumulated warnings and regime
// alignment into a single confidence score, downgrades over-claimed
// STRONG classifications, and blocks what is left with nothing behind it.
type Master struct {
	cfg MasterConfig
}

// NewMaster creates the final confidence gate.
func NewMaster(cfg MasterConfig) *Master {
	if cfg.MinConfidence <= 0 {
		cfg = DefaultMasterConfig()
	}
	return &Master{cfg: cfg}
}

func (g *Master) Name() string { return "master" }

func (g *Master) Check(c *Candidate) models.GuardOutcome {
	conf := confidence(c)
	c.Signal.Confidence = conf

	if conf < g.cfg.MinConfidence {
		return block(g.Name(), "LOW_CONFIDENCE")
	}

	out := pass(g.Name())
	if conf < g.cfg.StrongFloor {
		switch c.Signal.Classification {
		case models.ClassStrongBuy:
			c.Signal.Classification = models.ClassBuy
			out.Adjusted = true
		case models.ClassStrongSell:
			c.Signal.Classification = models.ClassSell
			out.Adjusted = true
		}
	}
	return out
}

// confidence combines signal strength with warning severity and day-regime
// alignment. Each accumulated advisory warning shaves the score; trading
// with the session trend earns a bonus, against it a penalty scaled by the
// regime classifier's own confidence.
func confidence(c *Candidate) float64 {
	conf := c.Signal.Strength

	conf -= 0.08 * float64(len(c.Signal.Warnings))

	switch {
	case c.Regime.State == "TREND_UP" && c.Signal.Direction == models.DirectionLong,
		c.Regime.State == "TREND_DOWN" && c.Signal.Direction == models.DirectionShort:
		conf += 0.10 * c.Regime.Confidence
	case c.Regime.State == "TREND_UP" && c.Signal.Direction == models.DirectionShort,
		c.Regime.State == "TREND_DOWN" && c.Signal.Direction == models.DirectionLong:
		conf -= 0.15 * c.Regime.Confidence
	}

	if conf < 0 {
		return 0
	}
	if conf > 1 {
		return 1
	}
	return conf
}
