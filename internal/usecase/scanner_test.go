package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"IntraScan/internal/detect"
	"IntraScan/internal/domain/models"
	drepo "IntraScan/internal/domain/repository"
	"IntraScan/internal/guard"
	"IntraScan/internal/market"
	"IntraScan/internal/rankings"
	"IntraScan/internal/scheduler"
	"IntraScan/internal/signal"
)

// fakeCandles serves canned candle slices per token and can fail selected
// tokens to exercise error isolation.
type fakeCandles struct {
	mu      sync.Mutex
	data    map[string][]models.Candle
	failing map[string]bool
	calls   map[string]int
	tfCalls map[drepo.Timeframe]int
}

func newFakeCandles() *fakeCandles {
	return &fakeCandles{
		data:    make(map[string][]models.Candle),
		failing: make(map[string]bool),
		calls:   make(map[string]int),
		tfCalls: make(map[drepo.Timeframe]int),
	}
}

func (f *fakeCandles) GetCandles(_ context.Context, token string, tf drepo.Timeframe, _ int) ([]models.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[token]++
	f.tfCalls[tf]++
	if f.failing[token] {
		return nil, errors.New("upstream timeout")
	}
	return f.data[token], nil
}

func (f *fakeCandles) callCount(token string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[token]
}

func (f *fakeCandles) tfCount(tf drepo.Timeframe) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tfCalls[tf]
}

func flatCandles(n int, price float64, start time.Time) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{
			Timestamp: start.Add(time.Duration(i) * 5 * time.Minute),
			Open:      price,
			High:      price + 0.5,
			Low:       price - 0.5,
			Close:     price,
			Volume:    1000,
		}
	}
	return out
}

func newTestScanner(t *testing.T, candles drepo.CandleSource, metrics drepo.Metrics) (*Scanner, *market.Store, *scheduler.Scheduler) {
	t.Helper()
	log := testLogger(t)
	store := market.NewStore(market.Config{BenchmarkToken: "NIFTY"})
	orch := signal.NewOrchestrator(signal.DefaultConfig())
	adaptive := guard.NewAdaptive(guard.DefaultAdaptiveConfig(), signal.DefaultConfig())
	cooldown := guard.NewCooldown(guard.DefaultCooldownConfig())
	chain := guard.NewChain(metrics, guard.NewSafety(guard.DefaultSafetyConfig()))
	rec := NewSignalRecorder(16, nil, metrics, log)
	rank := rankings.New(rankings.DefaultConfig(), store)
	sched := scheduler.New(scheduler.Config{Capacity: 10, Core: []string{"NIFTY"}, ActiveSize: 4}, nil, nil, log)

	cfg := DefaultScannerConfig()
	cfg.CandleCount = 30
	cfg.ExplosionKeep = 3
	sc := NewScanner(cfg, store, candles, detect.NewEngine(detect.DefaultConfig()),
		orch, chain, adaptive, cooldown, rec, rank, sched, metrics, log)
	return sc, store, sched
}

func feedTick(store *market.Store, token string, ltp float64) {
	store.ApplyTick(&models.Tick{
		Token:     token,
		LTP:       ltp,
		Volume:    100,
		Timestamp: time.Now().Unix(),
	})
}

func TestCycleIsolatesTokenFailures(t *testing.T) {
	metrics := newCountingMetrics()
	candles := newFakeCandles()
	sc, store, _ := newTestScanner(t, candles, metrics)

	start := time.Now().Add(-3 * time.Hour)
	for i, token := range []string{"AAA", "BBB", "CCC"} {
		feedTick(store, token, 100+float64(i))
		candles.data[token] = flatCandles(30, 100+float64(i), start)
	}
	candles.failing["BBB"] = true

	if err := sc.Cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if got := metrics.errorCount("scan_token"); got != 1 {
		t.Fatalf("scan_token errors = %d, want 1", got)
	}
	// The failing token must not stop the others from being scanned.
	for _, token := range []string{"AAA", "CCC"} {
		if candles.callCount(token) != 1 {
			t.Fatalf("token %s not scanned", token)
		}
	}
}

func TestCycleStopsOnCancelledContext(t *testing.T) {
	metrics := newCountingMetrics()
	candles := newFakeCandles()
	sc, store, _ := newTestScanner(t, candles, metrics)
	feedTick(store, "AAA", 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sc.Cycle(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("cycle err = %v, want context.Canceled", err)
	}
}

func TestThinHistoryIsNotAnError(t *testing.T) {
	metrics := newCountingMetrics()
	candles := newFakeCandles()
	sc, store, _ := newTestScanner(t, candles, metrics)

	feedTick(store, "AAA", 100)
	candles.data["AAA"] = flatCandles(3, 100, time.Now().Add(-time.Hour))

	if err := sc.Cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if got := metrics.errorCount("scan_token"); got != 0 {
		t.Fatalf("thin history counted as error (%d)", got)
	}
}

func TestIntervalFollowsDegradation(t *testing.T) {
	sc, _, sched := newTestScanner(t, newFakeCandles(), newCountingMetrics())

	if got := sc.Interval(); got != 30*time.Second {
		t.Fatalf("normal interval = %v", got)
	}
	sched.SetDegradation(models.DegradeReduced)
	if got := sc.Interval(); got != 60*time.Second {
		t.Fatalf("reduced interval = %v", got)
	}
	sched.SetDegradation(models.DegradeNone)
	if got := sc.Interval(); got != 30*time.Second {
		t.Fatalf("restored interval = %v", got)
	}
}

func TestExplosionRingBoundedAndFiltered(t *testing.T) {
	sc, _, _ := newTestScanner(t, newFakeCandles(), newCountingMetrics())

	sc.noteExplosion(models.CompositeDetection{Token: "SKIP", Actionable: false})
	for i := 0; i < 5; i++ {
		sc.noteExplosion(models.CompositeDetection{
			Token:      fmt.Sprintf("TOK%d", i),
			Severity:   float64(i),
			Actionable: true,
		})
	}

	got := sc.Explosions(0)
	if len(got) != 3 {
		t.Fatalf("explosions len = %d, want 3", len(got))
	}
	if got[0].Token != "TOK4" || got[2].Token != "TOK2" {
		t.Fatalf("unexpected ring contents: %s .. %s", got[0].Token, got[2].Token)
	}
	for _, c := range got {
		if c.Token == "SKIP" {
			t.Fatalf("non-actionable composite retained")
		}
	}
}

func TestScanFetchesHigherTimeframe(t *testing.T) {
	metrics := newCountingMetrics()
	candles := newFakeCandles()
	sc, store, _ := newTestScanner(t, candles, metrics)

	feedTick(store, "AAA", 100)
	candles.data["AAA"] = flatCandles(60, 100, time.Now().Add(-6*time.Hour))

	if err := sc.Cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if got := candles.tfCount(drepo.TF5m); got != 1 {
		t.Fatalf("5m fetches = %d, want 1", got)
	}
	if got := candles.tfCount(drepo.TF15m); got != 1 {
		t.Fatalf("15m fetches = %d, want 1 (trend-alignment snapshot)", got)
	}
}

func TestOptionTokensBySuffix(t *testing.T) {
	sc, _, _ := newTestScanner(t, newFakeCandles(), newCountingMetrics())

	cases := []struct {
		token string
		want  bool
	}{
		{"NIFTY25SEP25000CE", true},
		{"BANKNIFTY25SEP52000PE", true},
		{"RELIANCE", false},
		{"NIFTY", false},
	}
	for _, tc := range cases {
		if got := sc.isOption(tc.token); got != tc.want {
			t.Fatalf("isOption(%s) = %v, want %v", tc.token, got, tc.want)
		}
	}
}

func TestDegradationFollowsCycleLoad(t *testing.T) {
	sc, _, sched := newTestScanner(t, newFakeCandles(), newCountingMetrics())

	// Overrunning the 30s interval escalates one level per cycle.
	sc.noteCycleLoad(35 * time.Second)
	if got := sched.Degradation(); got != models.DegradeReduced {
		t.Fatalf("after one overrun: %v, want REDUCED", got)
	}
	// In REDUCED the effective interval is 60s.
	sc.noteCycleLoad(65 * time.Second)
	if got := sched.Degradation(); got != models.DegradeCoreOnly {
		t.Fatalf("after second overrun: %v, want CORE_ONLY", got)
	}
	sc.noteCycleLoad(65 * time.Second)
	if got := sched.Degradation(); got != models.DegradeCoreOnly {
		t.Fatalf("CORE_ONLY must not escalate further: %v", got)
	}

	// A middling cycle resets the recovery run.
	sc.noteCycleLoad(10 * time.Second)
	sc.noteCycleLoad(10 * time.Second)
	sc.noteCycleLoad(45 * time.Second)
	if got := sched.Degradation(); got != models.DegradeCoreOnly {
		t.Fatalf("middling cycle must not ease: %v", got)
	}

	// Three consecutive fast cycles ease one level at a time.
	for i := 0; i < 3; i++ {
		sc.noteCycleLoad(10 * time.Second)
	}
	if got := sched.Degradation(); got != models.DegradeReduced {
		t.Fatalf("after recovery run: %v, want REDUCED", got)
	}
	for i := 0; i < 3; i++ {
		sc.noteCycleLoad(10 * time.Second)
	}
	if got := sched.Degradation(); got != models.DegradeNone {
		t.Fatalf("after second recovery run: %v, want NORMAL", got)
	}
}

func TestSessionOpenFallsBackToDefault(t *testing.T) {
	sc, _, _ := newTestScanner(t, newFakeCandles(), newCountingMetrics())
	sc.cfg.SessionOpen = "not-a-clock"

	now := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	open := sc.sessionOpen(now)
	if open.Hour() != 9 || open.Minute() != 15 {
		t.Fatalf("fallback open = %v, want 09:15", open)
	}
	if !open.Truncate(24 * time.Hour).Equal(now.Truncate(24 * time.Hour)) {
		t.Fatalf("open must be on the same day as now")
	}
}
