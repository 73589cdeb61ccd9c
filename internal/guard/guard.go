// Package guard implements the ordered validation chain every candidate
// signal must clear before emission. Guards are independent and composable;
// any block short-circuits the chain with a recorded reason code. A guard
// rejection is normal control flow, never an error.
package guard

import (
	"sync"
	"time"

	"IntraScan/internal/domain/models"
	"IntraScan/internal/domain/repository"
)

// Candidate bundles everything the guards may inspect. Guards may adjust
// the signal (classification, confidence, warnings) but never emit it.
type Candidate struct {
	Signal    *models.Signal
	State     *models.InstrumentState
	Snapshot  *models.IndicatorSnapshot
	Composite models.CompositeDetection
	Regime    models.DayRegime

	LastBarRange float64 // high-low of the most recent completed bar
	Universe     int     // scanned universe size this cycle
	Now          time.Time
}

// Guard is one validation stage.
type Guard interface {
	Name() string
	Check(c *Candidate) models.GuardOutcome
}

// Chain runs guards in order. On success the outcomes become the signal's
// audit trail; on failure only the internal rejection tally records the
// block, invisible to history consumers.
type Chain struct {
	guards  []Guard
	metrics repository.Metrics

	mu         sync.Mutex
	rejections map[string]int
}

// NewChain creates a guard chain. Order matters.
func NewChain(metrics repository.Metrics, guards ...Guard) *Chain {
	return &Chain{
		guards:     guards,
		metrics:    metrics,
		rejections: make(map[string]int),
	}
}

// Validate runs the chain. When allowed, it augments the candidate signal
// with the full audit trail and returns true.
func (ch *Chain) Validate(c *Candidate) bool {
	outcomes := make([]models.GuardOutcome, 0, len(ch.guards))
	for _, g := range ch.guards {
		out := g.Check(c)
		outcomes = append(outcomes, out)
		if out.Warning != "" {
			c.Signal.Warnings = append(c.Signal.Warnings, out.Warning)
		}
		if !out.Allowed {
			ch.mu.Lock()
			ch.rejections[g.Name()+":"+out.Reason]++
			ch.mu.Unlock()
			if ch.metrics != nil {
				ch.metrics.RecordGuardBlock(g.Name(), out.Reason)
			}
			return false
		}
	}
	c.Signal.Guards = outcomes
	return true
}

// RejectionTally returns a copy of the per-guard:reason block counts.
func (ch *Chain) RejectionTally() map[string]int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	out := make(map[string]int, len(ch.rejections))
	for k, v := range ch.rejections {
		out[k] = v
	}
	return out
}

func pass(name string) models.GuardOutcome {
	return models.GuardOutcome{Guard: name, Allowed: true}
}

func block(name, reason string) models.GuardOutcome {
	return models.GuardOutcome{Guard: name, Allowed: false, Reason: reason}
}
