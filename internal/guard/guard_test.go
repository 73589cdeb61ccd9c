package guard

import (
	"strings"
	"testing"
	"time"

	"IntraScan/internal/domain/models"
	"IntraScan/internal/signal"
)

func sessionTime(hh, mm int) time.Time {
	return time.Date(2025, 3, 10, hh, mm, 0, 0, time.Local)
}

func healthyCandidate() *Candidate {
	sig := &models.Signal{
		Token:          "RELIANCE",
		Direction:      models.DirectionLong,
		Classification: models.ClassBuy,
		Strength:       0.7,
		Risk:           models.RiskPlan{Entry: 100, Stop: 98.5, Targets: [3]float64{101.5, 103, 104.5}, RiskReward: 2.0},
		Detections:     []models.DetectionEvent{{Type: models.DetectEarlyExpansion, Direction: models.DirectionLong, Strength: 0.8}},
		CreatedAt:      sessionTime(10, 30),
	}
	return &Candidate{
		Signal: sig,
		State: &models.InstrumentState{
			Token: "RELIANCE", LTP: 100, ChangeFromOpenPct: 1.8,
		},
		Snapshot: &models.IndicatorSnapshot{
			Close: 100, RSI14: 62, ATR14: 1.0, ATRPct: 1.0,
			VolAvg20: 50000, VolRatio: 2.5, ADX: 28,
		},
		Composite: models.CompositeDetection{
			Token:      "RELIANCE",
			Events:     sig.Detections,
			Severity:   0.8,
			Direction:  models.DirectionLong,
			Actionable: true,
		},
		Regime:       models.DayRegime{State: "TREND_UP", Confidence: 0.8},
		LastBarRange: 1.2,
		Universe:     100,
		Now:          sessionTime(10, 30),
	}
}

func TestSafetyPassesHealthyCandidate(t *testing.T) {
	g := NewSafety(DefaultSafetyConfig())
	out := g.Check(healthyCandidate())
	if !out.Allowed {
		t.Fatalf("expected pass, got block %q", out.Reason)
	}
	if out.Warning != "" {
		t.Fatalf("unexpected warning %q", out.Warning)
	}
}

func TestSafetyCriticalBlocks(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Candidate)
		reason string
	}{
		{"rsi extreme high", func(c *Candidate) { c.Snapshot.RSI14 = 90 }, "RSI_EXTREME"},
		{"rsi extreme low", func(c *Candidate) { c.Snapshot.RSI14 = 10 }, "RSI_EXTREME"},
		{"no detections", func(c *Candidate) { c.Signal.Detections = nil }, "NO_BREAKOUT_CONTEXT"},
		{"thin volume", func(c *Candidate) { c.Snapshot.VolRatio = 1.1 }, "VOLUME_UNCONFIRMED"},
		{"atr ceiling", func(c *Candidate) { c.Snapshot.ATRPct = 6.5 }, "VOLATILITY_CEILING"},
		{"rr floor", func(c *Candidate) { c.Signal.Risk.RiskReward = 1.0 }, "RISK_REWARD_FLOOR"},
		{"illiquid", func(c *Candidate) { c.Snapshot.VolAvg20 = 100 }, "LIQUIDITY_FLOOR"},
		{"before open", func(c *Candidate) { c.Now = sessionTime(9, 0) }, "OUTSIDE_MARKET_HOURS"},
		{"entry cutoff", func(c *Candidate) { c.Now = sessionTime(15, 20) }, "OUTSIDE_MARKET_HOURS"},
	}
	g := NewSafety(DefaultSafetyConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := healthyCandidate()
			tt.mutate(c)
			out := g.Check(c)
			if out.Allowed {
				t.Fatalf("expected block %s, got pass", tt.reason)
			}
			if out.Reason != tt.reason {
				t.Fatalf("reason = %q, want %q", out.Reason, tt.reason)
			}
		})
	}
}

func TestSafetyAdvisoryWarnsWithoutBlocking(t *testing.T) {
	g := NewSafety(DefaultSafetyConfig())
	c := healthyCandidate()
	c.State.ChangeFromOpenPct = 9.5
	c.Signal.Direction = models.DirectionShort
	c.Composite.Direction = models.DirectionShort

	out := g.Check(c)
	if !out.Allowed {
		t.Fatalf("advisory checks must not block, got %q", out.Reason)
	}
	if !strings.Contains(out.Warning, "EXTENDED_FROM_OPEN") {
		t.Errorf("warning %q missing EXTENDED_FROM_OPEN", out.Warning)
	}
	if !strings.Contains(out.Warning, "AGAINST_DAY_REGIME") {
		t.Errorf("warning %q missing AGAINST_DAY_REGIME", out.Warning)
	}
}

func TestCooldownBlocksSecondAttempt(t *testing.T) {
	g := NewCooldown(DefaultCooldownConfig())
	c := healthyCandidate()

	if out := g.Check(c); !out.Allowed {
		t.Fatalf("first attempt should pass, got %q", out.Reason)
	}
	g.Record(c.Signal)

	second := healthyCandidate()
	second.Signal.Risk.Entry = 101 // different fingerprint, same key
	second.Now = c.Now.Add(2 * time.Minute)
	out := g.Check(second)
	if out.Allowed {
		t.Fatal("expected cooldown block")
	}
	if out.Reason != "COOLDOWN_ACTIVE" {
		t.Fatalf("reason = %q, want COOLDOWN_ACTIVE", out.Reason)
	}
	if out.RemainingMs <= 0 || out.RemainingMs > (5*time.Minute).Milliseconds() {
		t.Fatalf("RemainingMs = %d out of range", out.RemainingMs)
	}

	// After the interval the same key is allowed again.
	second.Now = c.Now.Add(6 * time.Minute)
	if out := g.Check(second); !out.Allowed {
		t.Fatalf("expected pass after interval, got %q", out.Reason)
	}
}

func TestCooldownRejectsExactDuplicate(t *testing.T) {
	g := NewCooldown(DefaultCooldownConfig())
	c := healthyCandidate()
	g.Record(c.Signal)

	near := healthyCandidate()
	near.Now = c.Now.Add(time.Minute)
	out := g.Check(near)
	if out.Allowed || out.Reason != "DUPLICATE_SIGNAL" {
		t.Fatalf("got (%v, %q), want duplicate block", out.Allowed, out.Reason)
	}
	// 5m interval, 1m elapsed: 4m left.
	if out.RemainingMs != (4 * time.Minute).Milliseconds() {
		t.Fatalf("remainingMs = %d, want %d", out.RemainingMs, (4*time.Minute).Milliseconds())
	}

	dup := healthyCandidate()
	dup.Now = c.Now.Add(time.Hour) // well past the interval
	out = g.Check(dup)
	if out.Allowed || out.Reason != "DUPLICATE_SIGNAL" {
		t.Fatalf("got (%v, %q), want duplicate block", out.Allowed, out.Reason)
	}
	if out.RemainingMs != 0 {
		t.Fatalf("remainingMs = %d, want 0 past the interval", out.RemainingMs)
	}

	g.Reset()
	if out := g.Check(dup); !out.Allowed {
		t.Fatalf("expected pass after reset, got %q", out.Reason)
	}
}

func TestAdaptiveActivatesWithinCycle(t *testing.T) {
	g := NewAdaptive(DefaultAdaptiveConfig(), signal.DefaultConfig())
	if g.Active() {
		t.Fatal("must start inactive")
	}

	// 20 candidates out of 100 reaches the trigger rate.
	for i := 0; i < 20; i++ {
		g.NoteCandidate(100)
	}
	if !g.Active() {
		t.Fatal("expected activation at trigger rate")
	}

	// Tightened thresholds apply to the very next evaluation.
	base := signal.DefaultConfig()
	th := g.Thresholds()
	if th.VolumeRatio != base.VolumeRatio+1.0 {
		t.Errorf("VolumeRatio = %v, want %v", th.VolumeRatio, base.VolumeRatio+1.0)
	}
	if th.ATRPctCeiling != base.ATRPctCeiling-1.0 {
		t.Errorf("ATRPctCeiling = %v, want %v", th.ATRPctCeiling, base.ATRPctCeiling-1.0)
	}
	if th.RSITighten != 5 {
		t.Errorf("RSITighten = %v, want 5", th.RSITighten)
	}

	c := healthyCandidate()
	c.Snapshot.VolRatio = 2.5 // above base 2.0 but below tightened 3.0
	out := g.Check(c)
	if out.Allowed || out.Reason != "ADAPTIVE_VOLUME" {
		t.Fatalf("got (%v, %q), want ADAPTIVE_VOLUME", out.Allowed, out.Reason)
	}
}

func TestAdaptiveAutoReverts(t *testing.T) {
	g := NewAdaptive(DefaultAdaptiveConfig(), signal.DefaultConfig())
	for i := 0; i < 20; i++ {
		g.NoteCandidate(100)
	}
	g.EndCycle(100)
	if !g.Active() {
		t.Fatal("one hot cycle must not revert")
	}

	// Three quiet cycles in a row revert the filter.
	for cycle := 0; cycle < 3; cycle++ {
		g.NoteCandidate(100) // 1% < revert rate 5%
		g.EndCycle(100)
	}
	if g.Active() {
		t.Fatal("expected auto-revert after quiet run")
	}

	base := signal.DefaultConfig()
	if th := g.Thresholds(); th.VolumeRatio != base.VolumeRatio {
		t.Errorf("thresholds not restored: VolumeRatio = %v", th.VolumeRatio)
	}
}

func TestAdaptiveQuietRunResetsOnHotCycle(t *testing.T) {
	g := NewAdaptive(DefaultAdaptiveConfig(), signal.DefaultConfig())
	for i := 0; i < 20; i++ {
		g.NoteCandidate(100)
	}
	g.EndCycle(100)

	// Two quiet cycles, then a hot one, then two more quiet: still active.
	g.EndCycle(100)
	g.EndCycle(100)
	for i := 0; i < 10; i++ {
		g.NoteCandidate(100)
	}
	g.EndCycle(100)
	g.EndCycle(100)
	g.EndCycle(100)
	if g.Active() {
		t.Fatal("quiet run must restart after a hot cycle")
	}
}

func TestExecutionSpreadWidening(t *testing.T) {
	g := NewExecution(DefaultExecutionConfig())
	for i := 0; i < 20; i++ {
		g.ObserveQuote("RELIANCE", 0.05, 10000)
	}
	c := healthyCandidate()
	if out := g.Check(c); !out.Allowed {
		t.Fatalf("stable quotes should pass, got %q", out.Reason)
	}

	g.ObserveQuote("RELIANCE", 0.50, 10000) // 10x the baseline
	out := g.Check(c)
	if out.Allowed || out.Reason != "SPREAD_WIDENING" {
		t.Fatalf("got (%v, %q), want SPREAD_WIDENING", out.Allowed, out.Reason)
	}
}

func TestExecutionDepthCollapse(t *testing.T) {
	g := NewExecution(DefaultExecutionConfig())
	for i := 0; i < 20; i++ {
		g.ObserveQuote("RELIANCE", 0.05, 10000)
	}
	g.ObserveQuote("RELIANCE", 0.05, 500) // well under 30% of baseline

	out := g.Check(healthyCandidate())
	if out.Allowed || out.Reason != "DEPTH_COLLAPSE" {
		t.Fatalf("got (%v, %q), want DEPTH_COLLAPSE", out.Allowed, out.Reason)
	}
}

func TestExecutionRangeSpike(t *testing.T) {
	g := NewExecution(DefaultExecutionConfig())
	c := healthyCandidate()
	c.LastBarRange = 4.0 // > 3x ATR of 1.0
	out := g.Check(c)
	if out.Allowed || out.Reason != "RANGE_SPIKE" {
		t.Fatalf("got (%v, %q), want RANGE_SPIKE", out.Allowed, out.Reason)
	}
}

func TestExecutionNeedsBaselineBeforeBlocking(t *testing.T) {
	g := NewExecution(DefaultExecutionConfig())
	// A handful of observations is below the minimum; extremes must not block.
	g.ObserveQuote("RELIANCE", 0.05, 10000)
	g.ObserveQuote("RELIANCE", 2.00, 10)
	if out := g.Check(healthyCandidate()); !out.Allowed {
		t.Fatalf("thin baseline must not block, got %q", out.Reason)
	}
}

func TestMasterDowngradesStrong(t *testing.T) {
	g := NewMaster(DefaultMasterConfig())
	c := healthyCandidate()
	c.Signal.Classification = models.ClassStrongBuy
	c.Signal.Strength = 0.5
	c.Regime = models.DayRegime{State: "CHOPPY", Confidence: 0.3}

	out := g.Check(c)
	if !out.Allowed {
		t.Fatalf("expected pass, got block %q", out.Reason)
	}
	if !out.Adjusted {
		t.Fatal("expected Adjusted flag on downgrade")
	}
	if c.Signal.Classification != models.ClassBuy {
		t.Fatalf("classification = %q, want BUY", c.Signal.Classification)
	}
}

func TestMasterBlocksLowConfidence(t *testing.T) {
	g := NewMaster(DefaultMasterConfig())
	c := healthyCandidate()
	c.Signal.Strength = 0.35
	c.Signal.Warnings = []string{"EXTENDED_FROM_OPEN", "AGAINST_DAY_REGIME"}
	c.Signal.Direction = models.DirectionShort
	c.Regime = models.DayRegime{State: "TREND_UP", Confidence: 1.0}

	out := g.Check(c)
	if out.Allowed || out.Reason != "LOW_CONFIDENCE" {
		t.Fatalf("got (%v, %q), want LOW_CONFIDENCE", out.Allowed, out.Reason)
	}
}

func TestMasterConfidenceBounds(t *testing.T) {
	g := NewMaster(DefaultMasterConfig())
	c := healthyCandidate()
	c.Signal.Strength = 1.0
	c.Regime = models.DayRegime{State: "TREND_UP", Confidence: 1.0}
	g.Check(c)
	if c.Signal.Confidence > 1 {
		t.Fatalf("confidence %v exceeds 1", c.Signal.Confidence)
	}
}

func TestChainShortCircuitsAndTallies(t *testing.T) {
	chain := NewChain(nil,
		NewSafety(DefaultSafetyConfig()),
		NewMaster(DefaultMasterConfig()),
	)

	c := healthyCandidate()
	c.Snapshot.VolRatio = 1.0 // safety critical failure
	if chain.Validate(c) {
		t.Fatal("expected chain rejection")
	}
	if len(c.Signal.Guards) != 0 {
		t.Fatal("blocked candidate must not carry an audit trail")
	}

	tally := chain.RejectionTally()
	if tally["safety:VOLUME_UNCONFIRMED"] != 1 {
		t.Fatalf("tally = %v, want safety:VOLUME_UNCONFIRMED=1", tally)
	}

	ok := healthyCandidate()
	if !chain.Validate(ok) {
		t.Fatal("healthy candidate should clear the chain")
	}
	if len(ok.Signal.Guards) != 2 {
		t.Fatalf("audit trail length = %d, want 2", len(ok.Signal.Guards))
	}
	for _, g := range ok.Signal.Guards {
		if !g.Allowed {
			t.Fatalf("audit trail contains block %q", g.Reason)
		}
	}
}
