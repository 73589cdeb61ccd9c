package guard

import (
	"sync"

	"IntraScan/internal/domain/models"
)

// ExecutionConfig tunes the execution-reality checks. Every check compares
// against a token-specific rolling baseline, never a fixed constant.
type ExecutionConfig struct {
	BaselineSize    int     `yaml:"baseline_size"`
	SpreadMult      float64 `yaml:"spread_mult"`       // current spread vs baseline mean
	DepthCollapse   float64 `yaml:"depth_collapse"`    // current depth fraction of baseline
	RangeSpikeMult  float64 `yaml:"range_spike_mult"`  // last bar range vs ATR
	MinObservations int     `yaml:"min_observations"`  // baselines below this never block
}

// DefaultExecutionConfig returns the standard execution-reality settings.
func DefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		BaselineSize:    60,
		SpreadMult:      3.0,
		DepthCollapse:   0.3,
		RangeSpikeMult:  3.0,
		MinObservations: 10,
	}
}

type execBaseline struct {
	spread *ring
	depth  *ring

	lastSpread float64
	lastDepth  float64
}

// Execution blocks on spread widening, order-book depth collapse, or a
// single-bar range spike. Quote observations are fed from the tick path via
// ObserveQuote.
type Execution struct {
	cfg ExecutionConfig

	mu        sync.Mutex
	baselines map[string]*execBaseline
}

// NewExecution creates the execution-reality guard.
func NewExecution(cfg ExecutionConfig) *Execution {
	if cfg.BaselineSize <= 0 {
		cfg = DefaultExecutionConfig()
	}
	return &Execution{cfg: cfg, baselines: make(map[string]*execBaseline)}
}

func (g *Execution) Name() string { return "execution" }

// ObserveQuote feeds one spread/depth observation into the token's rolling
// baseline. Zero values are skipped (field absent from the quote).
func (g *Execution) ObserveQuote(token string, spread, depth float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.baselines[token]
	if !ok {
		b = &execBaseline{spread: newRing(g.cfg.BaselineSize), depth: newRing(g.cfg.BaselineSize)}
		g.baselines[token] = b
	}
	if spread > 0 {
		b.spread.Push(spread)
		b.lastSpread = spread
	}
	if depth > 0 {
		b.depth.Push(depth)
		b.lastDepth = depth
	}
}

func (g *Execution) Check(c *Candidate) models.GuardOutcome {
	g.mu.Lock()
	b := g.baselines[c.Signal.Token]
	g.mu.Unlock()

	if b != nil {
		if b.spread.Len() >= g.cfg.MinObservations {
			if mean := b.spread.Mean(); mean > 0 && b.lastSpread > g.cfg.SpreadMult*mean {
				return block(g.Name(), "SPREAD_WIDENING")
			}
		}
		if b.depth.Len() >= g.cfg.MinObservations {
			if mean := b.depth.Mean(); mean > 0 && b.lastDepth < g.cfg.DepthCollapse*mean {
				return block(g.Name(), "DEPTH_COLLAPSE")
			}
		}
	}

	// Range spike: the breakout bar itself is too disorderly to chase.
	if c.Snapshot != nil && c.Snapshot.ATR14 > 0 && c.LastBarRange > g.cfg.RangeSpikeMult*c.Snapshot.ATR14 {
		return block(g.Name(), "RANGE_SPIKE")
	}
	return pass(g.Name())
}

// Snapshot exposes the rolling baselines for the protection view.
func (g *Execution) Snapshot() map[string]map[string]float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]map[string]float64, len(g.baselines))
	for token, b := range g.baselines {
		out[token] = map[string]float64{
			"spreadBaseline": b.spread.Mean(),
			"lastSpread":     b.lastSpread,
			"depthBaseline":  b.depth.Mean(),
			"lastDepth":      b.lastDepth,
		}
	}
	return out
}
