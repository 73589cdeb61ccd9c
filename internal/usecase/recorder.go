package usecase

import (
	"context"
	"sync"

	"IntraScan/internal/domain/models"
	drepo "IntraScan/internal/domain/repository"
	"IntraScan/pkg/logger"
)

// SignalRecorder keeps the bounded in-memory history of emitted signals.
// A new signal for a token supersedes the previous one; supersession is
// derived at read time so an emitted signal is never written again after
// publication. Blocked candidates never reach the recorder.
type SignalRecorder struct {
	capacity int
	sink     drepo.SignalSink
	metrics  drepo.Metrics
	log      *logger.Logger

	mu      sync.RWMutex
	history []*models.Signal          // oldest first
	active  map[string]*models.Signal // latest per token
}

// NewSignalRecorder creates a recorder with the given retention capacity.
func NewSignalRecorder(capacity int, sink drepo.SignalSink, metrics drepo.Metrics, log *logger.Logger) *SignalRecorder {
	if capacity <= 0 {
		capacity = 512
	}
	return &SignalRecorder{
		capacity: capacity,
		sink:     sink,
		metrics:  metrics,
		log:      log,
		active:   make(map[string]*models.Signal),
	}
}

// Record stores an emitted signal, supersedes the token's previous one,
// and forwards it to the sink. A sink failure is logged, never fatal: the
// in-memory record is authoritative. The previous signal is not touched;
// History reports it superseded by comparison against the active entry.
func (r *SignalRecorder) Record(ctx context.Context, s *models.Signal) {
	r.mu.Lock()
	r.active[s.Token] = s
	r.history = append(r.history, s)
	if len(r.history) > r.capacity {
		drop := len(r.history) - r.capacity
		r.history = append([]*models.Signal(nil), r.history[drop:]...)
	}
	r.mu.Unlock()

	r.metrics.RecordSignal(string(s.Classification), s.Token)
	r.log.Info("signal emitted",
		logger.String("token", s.Token),
		logger.String("class", string(s.Classification)),
		logger.Any("rankScore", s.RankScore))

	if r.sink != nil {
		if err := r.sink.Publish(ctx, s); err != nil {
			r.metrics.RecordError("signal_sink")
			r.log.Error("signal sink publish failed", logger.Error(err))
		}
	}
}

// Active returns the current non-superseded signals, one per token.
func (r *SignalRecorder) Active() []*models.Signal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Signal, 0, len(r.active))
	for _, s := range r.active {
		out = append(out, s)
	}
	return out
}

// History returns up to n most recent signals, newest first. Entries are
// shallow copies with Superseded computed against the token's current
// active signal, so stored signals stay untouched after emission.
func (r *SignalRecorder) History(n int) []*models.Signal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n <= 0 || n > len(r.history) {
		n = len(r.history)
	}
	out := make([]*models.Signal, 0, n)
	for i := len(r.history) - 1; i >= len(r.history)-n; i-- {
		s := r.history[i]
		entry := *s
		entry.Superseded = r.active[s.Token] != s
		out = append(out, &entry)
	}
	return out
}

// Reset clears history and active signals (daily boundary).
func (r *SignalRecorder) Reset() {
	r.mu.Lock()
	r.history = nil
	r.active = make(map[string]*models.Signal)
	r.mu.Unlock()
}
