package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"IntraScan/internal/domain/models"
	"IntraScan/pkg/logger"
)

type fakeStream struct {
	subscribed []string
	mode       models.SubscribeMode
	calls      int
}

func (f *fakeStream) Connect(ctx context.Context) error { return nil }
func (f *fakeStream) Subscribe(ctx context.Context, tokens []string, mode models.SubscribeMode, depth int) error {
	f.subscribed = append([]string(nil), tokens...)
	f.mode = mode
	f.calls++
	return nil
}
func (f *fakeStream) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) { return nil, nil }
func (f *fakeStream) Reconnect(ctx context.Context) error                          { return nil }
func (f *fakeStream) Close() error                                                 { return nil }
func (f *fakeStream) IsConnected() bool                                            { return true }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func scores(n int) map[string]float64 {
	m := make(map[string]float64, n)
	for i := 0; i < n; i++ {
		m[fmt.Sprintf("TOK%04d", i)] = float64(i)
	}
	return m
}

func TestRecomputePinsCoreAndFillsTiers(t *testing.T) {
	cfg := Config{Capacity: 50, Core: []string{"NIFTY", "BANKNIFTY"}, ActiveSize: 10, Mode: models.ModeQuote, Depth: 5}
	s := New(cfg, &fakeStream{}, nil, testLogger(t))

	plan := s.Recompute(scores(200))
	if got := plan.Buckets[models.TierCore]; len(got) != 2 || got[0] != "NIFTY" {
		t.Fatalf("core bucket = %v", got)
	}
	if n := len(plan.Buckets[models.TierActive]); n != 10 {
		t.Fatalf("active size = %d, want 10", n)
	}
	// Remaining budget: 50 - 2 core - 10 active = 38 rotation.
	if n := len(plan.Buckets[models.TierRotation]); n != 38 {
		t.Fatalf("rotation size = %d, want 38", n)
	}
	if plan.Size() != 50 {
		t.Fatalf("plan size = %d, want 50", plan.Size())
	}

	// ACTIVE holds the highest scores.
	if plan.Buckets[models.TierActive][0] != "TOK0199" {
		t.Fatalf("top active = %q, want TOK0199", plan.Buckets[models.TierActive][0])
	}
}

func TestRecomputeNeverExceedsCapacity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		cfg := Config{
			Capacity:   1 + rng.Intn(100),
			ActiveSize: rng.Intn(60),
			Mode:       models.ModeLTP,
		}
		for i := 0; i < rng.Intn(5); i++ {
			cfg.Core = append(cfg.Core, fmt.Sprintf("CORE%d", i))
		}
		s := New(cfg, &fakeStream{}, nil, testLogger(t))
		plan := s.Recompute(scores(rng.Intn(200)))
		if plan.Size() > cfg.Capacity {
			t.Fatalf("trial %d: size %d exceeds capacity %d", trial, plan.Size(), cfg.Capacity)
		}
	}
}

func TestDegradationModes(t *testing.T) {
	cfg := Config{Capacity: 100, Core: []string{"NIFTY"}, ActiveSize: 20, ReducedFraction: 0.5, Mode: models.ModeQuote}
	s := New(cfg, &fakeStream{}, nil, testLogger(t))

	full := s.Recompute(scores(500))
	if full.Size() != 100 {
		t.Fatalf("NORMAL size = %d, want 100", full.Size())
	}

	if !s.SetDegradation(models.DegradeReduced) {
		t.Fatal("mode change must report true")
	}
	if s.SetDegradation(models.DegradeReduced) {
		t.Fatal("re-applying the same mode must be a no-op")
	}
	reduced := s.Recompute(scores(500))
	// Non-core budget 99 halves to 49, plus the pinned core token.
	if reduced.Size() != 50 {
		t.Fatalf("REDUCED size = %d, want 50", reduced.Size())
	}

	s.SetDegradation(models.DegradeCoreOnly)
	coreOnly := s.Recompute(scores(500))
	if coreOnly.Size() != 1 {
		t.Fatalf("CORE_ONLY size = %d, want 1", coreOnly.Size())
	}
	if len(coreOnly.Buckets[models.TierActive]) != 0 || len(coreOnly.Buckets[models.TierRotation]) != 0 {
		t.Fatal("CORE_ONLY must empty the non-core tiers")
	}

	s.SetDegradation(models.DegradeNone)
	if restored := s.Recompute(scores(500)); restored.Size() != 100 {
		t.Fatalf("restored size = %d, want 100", restored.Size())
	}
}

func TestApplyResubscribesWholesale(t *testing.T) {
	stream := &fakeStream{}
	cfg := Config{Capacity: 10, Core: []string{"NIFTY"}, ActiveSize: 5, Mode: models.ModeFull, Depth: 20}
	s := New(cfg, stream, nil, testLogger(t))

	plan := s.Recompute(scores(30))
	if err := s.Apply(context.Background(), plan); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if stream.calls != 1 {
		t.Fatalf("subscribe calls = %d, want 1", stream.calls)
	}
	if len(stream.subscribed) != plan.Size() {
		t.Fatalf("subscribed %d tokens, plan has %d", len(stream.subscribed), plan.Size())
	}
	if stream.subscribed[0] != "NIFTY" {
		t.Fatalf("core token must lead the wholesale list, got %q", stream.subscribed[0])
	}
	if stream.mode != models.ModeFull {
		t.Fatalf("mode = %q, want full", stream.mode)
	}
}

func TestRecomputeStableOrdering(t *testing.T) {
	sc := map[string]float64{"A": 1, "B": 1, "C": 1, "D": 2}
	cfg := Config{Capacity: 10, ActiveSize: 4, Mode: models.ModeLTP}
	s := New(cfg, &fakeStream{}, nil, testLogger(t))

	first := s.Recompute(sc).Buckets[models.TierActive]
	for i := 0; i < 5; i++ {
		again := s.Recompute(sc).Buckets[models.TierActive]
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("ordering unstable: %v vs %v", first, again)
			}
		}
	}
	if first[0] != "D" {
		t.Fatalf("highest score must rank first, got %v", first)
	}
}

func TestRunnerStopsTask(t *testing.T) {
	r := NewRunner(testLogger(t))
	var ticks atomic.Int64

	r.Every(context.Background(), "count", 5*time.Millisecond, func(ctx context.Context) error {
		ticks.Add(1)
		return nil
	})
	time.Sleep(30 * time.Millisecond)
	r.Stop("count")
	n := ticks.Load()
	if n == 0 {
		t.Fatal("task never ran")
	}
	time.Sleep(30 * time.Millisecond)
	if ticks.Load() != n {
		t.Fatal("task kept running after Stop")
	}
}

func TestRunnerShutdownDrains(t *testing.T) {
	r := NewRunner(testLogger(t))
	var ticks atomic.Int64
	for i := 0; i < 3; i++ {
		r.Every(context.Background(), fmt.Sprintf("t%d", i), 5*time.Millisecond, func(ctx context.Context) error {
			ticks.Add(1)
			return nil
		})
	}
	time.Sleep(20 * time.Millisecond)
	r.Shutdown()
	n := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	if ticks.Load() != n {
		t.Fatal("tasks kept running after Shutdown")
	}
}

func TestRunnerReplaceByName(t *testing.T) {
	r := NewRunner(testLogger(t))
	defer r.Shutdown()
	var first, second atomic.Int64

	r.Every(context.Background(), "job", 5*time.Millisecond, func(ctx context.Context) error {
		first.Add(1)
		return nil
	})
	time.Sleep(15 * time.Millisecond)
	r.Every(context.Background(), "job", 5*time.Millisecond, func(ctx context.Context) error {
		second.Add(1)
		return nil
	})
	time.Sleep(15 * time.Millisecond)
	n := first.Load()
	time.Sleep(20 * time.Millisecond)
	if first.Load() != n {
		t.Fatal("replaced task kept running")
	}
	if second.Load() == 0 {
		t.Fatal("replacement task never ran")
	}
}
