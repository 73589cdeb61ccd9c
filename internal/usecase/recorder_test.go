package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"IntraScan/internal/domain/models"
	"IntraScan/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

// countingMetrics tallies calls so tests can assert on error paths.
type countingMetrics struct {
	mu      sync.Mutex
	signals int
	errors  map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{errors: make(map[string]int)}
}

func (m *countingMetrics) RecordTick(string)            {}
func (m *countingMetrics) RecordGuardBlock(_, _ string) {}
func (m *countingMetrics) RecordLastPrice(string, float64) {
}
func (m *countingMetrics) RecordLatency(string, float64) {}
func (m *countingMetrics) RecordSubscriptions(string, int) {
}

func (m *countingMetrics) RecordSignal(_, _ string) {
	m.mu.Lock()
	m.signals++
	m.mu.Unlock()
}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *countingMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type captureSink struct {
	mu        sync.Mutex
	published []*models.Signal
	fail      bool
}

func (s *captureSink) Publish(_ context.Context, sig *models.Signal) error {
	if s.fail {
		return errors.New("broker unavailable")
	}
	s.mu.Lock()
	s.published = append(s.published, sig)
	s.mu.Unlock()
	return nil
}

func (s *captureSink) Close() error { return nil }

func testSignal(token string, class models.Classification) *models.Signal {
	return &models.Signal{
		Token:          token,
		Classification: class,
		RankScore:      1.0,
		CreatedAt:      time.Now(),
	}
}

func TestRecordSupersedesPrevious(t *testing.T) {
	sink := &captureSink{}
	rec := NewSignalRecorder(16, sink, newCountingMetrics(), testLogger(t))

	first := testSignal("RELIANCE", models.ClassBuy)
	second := testSignal("RELIANCE", models.ClassStrongBuy)
	rec.Record(context.Background(), first)
	rec.Record(context.Background(), second)

	// Emitted signals are never written again: supersession shows up only
	// on the read-side copies.
	if first.Superseded || second.Superseded {
		t.Fatalf("stored signals must stay untouched after emission")
	}
	active := rec.Active()
	if len(active) != 1 || active[0] != second {
		t.Fatalf("active = %v, want the latest signal only", active)
	}
	hist := rec.History(0)
	if len(hist) != 2 {
		t.Fatalf("history len = %d, want 2", len(hist))
	}
	if hist[0].Classification != models.ClassStrongBuy || hist[0].Superseded {
		t.Fatalf("newest entry = %+v, want non-superseded strong buy", hist[0])
	}
	if hist[1].Classification != models.ClassBuy || !hist[1].Superseded {
		t.Fatalf("older entry = %+v, want superseded buy", hist[1])
	}
	if len(sink.published) != 2 {
		t.Fatalf("sink received %d signals, want 2", len(sink.published))
	}
}

func TestHistoryBounded(t *testing.T) {
	rec := NewSignalRecorder(5, nil, newCountingMetrics(), testLogger(t))
	for i := 0; i < 8; i++ {
		rec.Record(context.Background(), testSignal(fmt.Sprintf("TOK%02d", i), models.ClassBuy))
	}
	hist := rec.History(0)
	if len(hist) != 5 {
		t.Fatalf("history len = %d, want 5", len(hist))
	}
	if hist[0].Token != "TOK07" || hist[4].Token != "TOK03" {
		t.Fatalf("unexpected retention window: %s .. %s", hist[0].Token, hist[4].Token)
	}
	if got := rec.History(2); len(got) != 2 || got[0].Token != "TOK07" {
		t.Fatalf("History(2) = %v", got)
	}
	// Active keeps one entry per token regardless of history trimming.
	if len(rec.Active()) != 8 {
		t.Fatalf("active len = %d, want 8", len(rec.Active()))
	}
}

func TestSinkFailureIsNonFatal(t *testing.T) {
	sink := &captureSink{fail: true}
	metrics := newCountingMetrics()
	rec := NewSignalRecorder(16, sink, metrics, testLogger(t))

	rec.Record(context.Background(), testSignal("TCS", models.ClassSell))

	if len(rec.Active()) != 1 || len(rec.History(0)) != 1 {
		t.Fatalf("signal must be recorded even when the sink fails")
	}
	if metrics.errorCount("signal_sink") != 1 {
		t.Fatalf("sink failure should be counted once")
	}
}

func TestRecordNeverWritesPublishedSignals(t *testing.T) {
	rec := NewSignalRecorder(64, nil, newCountingMetrics(), testLogger(t))
	rec.Record(context.Background(), testSignal("RELIANCE", models.ClassBuy))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			rec.Record(context.Background(), testSignal("RELIANCE", models.ClassBuy))
		}
	}()
	// Marshal published pointers while new emissions for the same token
	// land; a superseding Record must not write through them.
	for i := 0; i < 200; i++ {
		for _, s := range rec.Active() {
			if _, err := json.Marshal(s); err != nil {
				t.Fatalf("marshal: %v", err)
			}
		}
		for _, s := range rec.History(10) {
			if _, err := json.Marshal(s); err != nil {
				t.Fatalf("marshal: %v", err)
			}
		}
	}
	<-done
}

func TestRecorderReset(t *testing.T) {
	rec := NewSignalRecorder(16, nil, newCountingMetrics(), testLogger(t))
	rec.Record(context.Background(), testSignal("INFY", models.ClassBuy))
	rec.Reset()
	if len(rec.Active()) != 0 || len(rec.History(0)) != 0 {
		t.Fatalf("reset must clear active and history")
	}
}
