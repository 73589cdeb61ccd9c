package guard

import (
	"sync"

	"IntraScan/internal/domain/models"
	"IntraScan/internal/signal"
)

// AdaptiveConfig tunes the closed-loop candidate-rate controller.
type AdaptiveConfig struct {
	// TriggerRate is the candidate fraction of the scanned universe that
	// activates tightening (e.g. 0.20 = 20%).
	TriggerRate float64 `yaml:"trigger_rate"`
	// QuietCycles is the run of low-candidate cycles after which the
	// filter auto-reverts.
	QuietCycles int `yaml:"quiet_cycles"`
	// RevertRate is the candidate fraction under which a cycle counts as
	// quiet.
	RevertRate float64 `yaml:"revert_rate"`

	VolumeTighten float64 `yaml:"volume_tighten"` // added to the volume-ratio threshold
	RSITighten    float64 `yaml:"rsi_tighten"`    // narrows the RSI bands from each side
	ATRTighten    float64 `yaml:"atr_tighten"`    // subtracted from the ATR% ceiling
}

// DefaultAdaptiveConfig returns the standard controller settings.
func DefaultAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		TriggerRate:   0.20,
		QuietCycles:   3,
		RevertRate:    0.05,
		VolumeTighten: 1.0,
		RSITighten:    5,
		ATRTighten:    1.0,
	}
}

// Adaptive tightens the orchestrator thresholds session-wide when the
// candidate rate runs hot, and reverts after a run of quiet cycles. It is
// a closed-loop controller, not a static threshold: activation applies to
// the very next evaluation within the triggering cycle.
type Adaptive struct {
	cfg  AdaptiveConfig
	base signal.Config

	mu         sync.Mutex
	active     bool
	candidates int
	quietRun   int
}

// NewAdaptive creates the adaptive filter over the orchestrator's base
// thresholds.
func NewAdaptive(cfg AdaptiveConfig, base signal.Config) *Adaptive {
	return &Adaptive{cfg: cfg, base: base}
}

func (g *Adaptive) Name() string { return "adaptive" }

// NoteCandidate records one breakout candidate mid-cycle. Crossing the
// trigger rate activates tightening immediately.
func (g *Adaptive) NoteCandidate(universe int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.candidates++
	if universe > 0 && float64(g.candidates)/float64(universe) >= g.cfg.TriggerRate {
		g.active = true
		g.quietRun = 0
	}
}

// EndCycle closes the scan cycle's accounting and handles auto-revert.
func (g *Adaptive) EndCycle(universe int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rate := 0.0
	if universe > 0 {
		rate = float64(g.candidates) / float64(universe)
	}
	g.candidates = 0
	if !g.active {
		return
	}
	if rate <= g.cfg.RevertRate {
		g.quietRun++
		if g.quietRun >= g.cfg.QuietCycles {
			g.active = false
			g.quietRun = 0
		}
	} else {
		g.quietRun = 0
	}
}

// Active reports whether tightened thresholds are in force.
func (g *Adaptive) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Thresholds returns the effective orchestrator thresholds for the next
// evaluation.
func (g *Adaptive) Thresholds() signal.Thresholds {
	g.mu.Lock()
	defer g.mu.Unlock()
	th := signal.Thresholds{
		VolumeRatio:   g.base.VolumeRatio,
		ATRPctCeiling: g.base.ATRPctCeiling,
	}
	if g.active {
		th.VolumeRatio += g.cfg.VolumeTighten
		th.ATRPctCeiling -= g.cfg.ATRTighten
		th.RSITighten = g.cfg.RSITighten
	}
	return th
}

// Check re-verifies the candidate against the tightened thresholds; when
// the filter is inactive it always passes.
func (g *Adaptive) Check(c *Candidate) models.GuardOutcome {
	th := g.Thresholds()
	if !g.Active() {
		return pass(g.Name())
	}
	if c.Snapshot.VolRatio < th.VolumeRatio {
		return block(g.Name(), "ADAPTIVE_VOLUME")
	}
	if c.Snapshot.ATRPct > th.ATRPctCeiling {
		return block(g.Name(), "ADAPTIVE_VOLATILITY")
	}
	out := pass(g.Name())
	out.Warning = "ADAPTIVE_TIGHTENED"
	return out
}
