package guard

import (
	"fmt"
	"sync"
	"time"

	"IntraScan/internal/domain/models"
)

// CooldownConfig tunes re-emission suppression.
type CooldownConfig struct {
	MinInterval time.Duration `yaml:"min_interval"`
	HistorySize int           `yaml:"history_size"`
}

// DefaultCooldownConfig returns the standard cooldown settings.
func DefaultCooldownConfig() CooldownConfig {
	return CooldownConfig{MinInterval: 5 * time.Minute, HistorySize: 256}
}

// Cooldown rejects re-emission of the same direction+classification for the
// same token inside the minimum interval, and rejects exact duplicates
// outright. Record must be called for every emitted signal.
type Cooldown struct {
	cfg CooldownConfig

	mu   sync.Mutex
	last map[string]time.Time // token|direction|class -> last emission
	seen map[string]time.Time // exact fingerprint -> first emission
}

// NewCooldown creates the cooldown guard.
func NewCooldown(cfg CooldownConfig) *Cooldown {
	if cfg.MinInterval <= 0 {
		cfg = DefaultCooldownConfig()
	}
	return &Cooldown{
		cfg:  cfg,
		last: make(map[string]time.Time),
		seen: make(map[string]time.Time),
	}
}

func (g *Cooldown) Name() string { return "cooldown" }

func key(s *models.Signal) string {
	return s.Token + "|" + string(s.Direction) + "|" + string(s.Classification)
}

func fingerprint(s *models.Signal) string {
	return fmt.Sprintf("%s|%s|%s|%.4f|%.4f", s.Token, s.Direction, s.Classification, s.Risk.Entry, s.Risk.Stop)
}

func (g *Cooldown) Check(c *Candidate) models.GuardOutcome {
	g.mu.Lock()
	defer g.mu.Unlock()

	if seenAt, dup := g.seen[fingerprint(c.Signal)]; dup {
		out := block(g.Name(), "DUPLICATE_SIGNAL")
		remaining := g.cfg.MinInterval - c.Now.Sub(seenAt)
		if remaining < 0 {
			remaining = 0
		}
		out.RemainingMs = remaining.Milliseconds()
		return out
	}

	if lastAt, ok := g.last[key(c.Signal)]; ok {
		elapsed := c.Now.Sub(lastAt)
		if elapsed < g.cfg.MinInterval {
			out := block(g.Name(), "COOLDOWN_ACTIVE")
			remaining := g.cfg.MinInterval - elapsed
			if remaining < 0 {
				remaining = 0
			}
			out.RemainingMs = remaining.Milliseconds()
			return out
		}
	}
	return pass(g.Name())
}

// Record notes an emitted signal for future cooldown/dedup decisions.
func (g *Cooldown) Record(s *models.Signal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last[key(s)] = s.CreatedAt
	if len(g.seen) >= g.cfg.HistorySize {
		// Cheap age-out: drop the oldest half.
		cutoff := s.CreatedAt.Add(-4 * g.cfg.MinInterval)
		for k, at := range g.seen {
			if at.Before(cutoff) {
				delete(g.seen, k)
			}
		}
	}
	g.seen[fingerprint(s)] = s.CreatedAt
}

// Reset clears all cooldown state (daily boundary).
func (g *Cooldown) Reset() {
	g.mu.Lock()
	g.last = make(map[string]time.Time)
	g.seen = make(map[string]time.Time)
	g.mu.Unlock()
}
