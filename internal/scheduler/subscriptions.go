// Package scheduler owns subscription tier management and periodic task
// scheduling. Tier membership is recomputed from momentum scores; the
// resulting plan is applied to the broker stream as one wholesale
// resubscribe, never an incremental diff.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"IntraScan/internal/domain/models"
	"IntraScan/internal/domain/repository"
	"IntraScan/pkg/logger"
)

// Config carries the subscription scheduler settings.
type Config struct {
	// Capacity is the hard broker-side cap on concurrent subscriptions.
	Capacity int `yaml:"capacity"`
	// Core tokens are always subscribed, in every degradation mode.
	Core []string `yaml:"core"`
	// ActiveSize is the target ACTIVE tier size under NORMAL mode.
	ActiveSize int `yaml:"active_size"`

	Mode  models.SubscribeMode `yaml:"mode"`
	Depth int                  `yaml:"depth"`

	// ReducedFraction scales the non-core budget under REDUCED mode.
	ReducedFraction float64 `yaml:"reduced_fraction"`
}

// DefaultConfig returns the standard scheduler settings.
func DefaultConfig() Config {
	return Config{
		Capacity:        3000,
		ActiveSize:      400,
		Mode:            models.ModeQuote,
		Depth:           5,
		ReducedFraction: 0.5,
	}
}

// Scheduler recomputes tier membership and applies it to the stream.
type Scheduler struct {
	cfg     Config
	stream  repository.MarketStream
	metrics repository.Metrics
	log     *logger.Logger

	mu       sync.RWMutex
	mode     models.DegradationMode
	plan     *models.SubscriptionPlan
	lastSwap time.Time
}

// New creates the subscription scheduler.
func New(cfg Config, stream repository.MarketStream, metrics repository.Metrics, log *logger.Logger) *Scheduler {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultConfig().Capacity
	}
	if cfg.ReducedFraction <= 0 || cfg.ReducedFraction > 1 {
		cfg.ReducedFraction = 0.5
	}
	return &Scheduler{
		cfg:     cfg,
		stream:  stream,
		metrics: metrics,
		log:     log,
		mode:    models.DegradeNone,
	}
}

// Recompute builds a fresh plan from the momentum scores. Core tokens are
// pinned first; the remaining budget is split between ACTIVE (top scores)
// and ROTATION (the rest, highest first) so total membership can never
// exceed the capacity by construction.
func (s *Scheduler) Recompute(scores map[string]float64) *models.SubscriptionPlan {
	s.mu.Lock()
	defer s.mu.Unlock()

	budget := s.cfg.Capacity
	core := s.cfg.Core
	if len(core) > budget {
		core = core[:budget]
	}
	budget -= len(core)

	plan := &models.SubscriptionPlan{
		Buckets:    map[models.Tier][]string{models.TierCore: append([]string(nil), core...)},
		Capacity:   s.cfg.Capacity,
		Mode:       s.cfg.Mode,
		Depth:      s.cfg.Depth,
		ComputedAt: time.Now(),
	}

	switch s.mode {
	case models.DegradeCoreOnly:
		budget = 0
	case models.DegradeReduced:
		budget = int(float64(budget) * s.cfg.ReducedFraction)
	}

	if budget > 0 {
		ranked := rankTokens(scores, core)
		activeN := s.cfg.ActiveSize
		if activeN > budget {
			activeN = budget
		}
		if activeN > len(ranked) {
			activeN = len(ranked)
		}
		plan.Buckets[models.TierActive] = ranked[:activeN]

		rest := ranked[activeN:]
		rotN := budget - activeN
		if rotN > len(rest) {
			rotN = len(rest)
		}
		plan.Buckets[models.TierRotation] = rest[:rotN]
	}

	s.plan = plan
	s.recordSizes(plan)
	return plan
}

// Apply pushes the plan to the broker stream as one wholesale subscribe.
func (s *Scheduler) Apply(ctx context.Context, plan *models.SubscriptionPlan) error {
	if err := s.stream.Subscribe(ctx, plan.Tokens(), plan.Mode, plan.Depth); err != nil {
		return fmt.Errorf("apply subscription plan: %w", err)
	}
	s.mu.Lock()
	s.lastSwap = time.Now()
	s.mu.Unlock()
	s.log.Info("subscription plan applied",
		logger.Int("size", plan.Size()),
		logger.Int("capacity", plan.Capacity),
		logger.String("mode", string(plan.Mode)))
	return nil
}

// SetDegradation switches load-shedding mode. Re-applying the current mode
// is a no-op; a change reports true so the caller can trigger a recompute.
func (s *Scheduler) SetDegradation(mode models.DegradationMode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == mode {
		return false
	}
	s.log.Warn("degradation mode changed",
		logger.String("from", string(s.mode)),
		logger.String("to", string(mode)))
	s.mode = mode
	return true
}

// Degradation returns the current load-shedding mode.
func (s *Scheduler) Degradation() models.DegradationMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Plan returns the latest computed plan, nil before the first recompute.
func (s *Scheduler) Plan() *models.SubscriptionPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plan
}

func (s *Scheduler) recordSizes(plan *models.SubscriptionPlan) {
	if s.metrics == nil {
		return
	}
	for tier, toks := range plan.Buckets {
		s.metrics.RecordSubscriptions(string(tier), len(toks))
	}
}

// rankTokens orders the scored tokens highest first, excluding any already
// pinned to CORE. Ties break on the token id so recomputation is stable.
func rankTokens(scores map[string]float64, core []string) []string {
	pinned := make(map[string]struct{}, len(core))
	for _, t := range core {
		pinned[t] = struct{}{}
	}
	out := make([]string, 0, len(scores))
	for token := range scores {
		if _, ok := pinned[token]; ok {
			continue
		}
		out = append(out, token)
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := scores[out[i]], scores[out[j]]
		if si != sj {
			return si > sj
		}
		return out[i] < out[j]
	})
	return out
}
