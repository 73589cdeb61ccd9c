package usecase

import (
	"context"
	"fmt"

	"IntraScan/internal/domain/models"
	drepo "IntraScan/internal/domain/repository"
	"IntraScan/internal/guard"
	"IntraScan/internal/market"
)

// TickProcessor applies each validated tick to the market state store and
// feeds the execution guard's quote baselines.
type TickProcessor struct {
	store   *market.Store
	exec    *guard.Execution
	metrics drepo.Metrics
}

// NewTickProcessor creates a tick processor.
func NewTickProcessor(store *market.Store, exec *guard.Execution, metrics drepo.Metrics) *TickProcessor {
	return &TickProcessor{store: store, exec: exec, metrics: metrics}
}

// Process applies one tick.
func (p *TickProcessor) Process(ctx context.Context, t *models.Tick) error {
	if t == nil {
		return fmt.Errorf("tick is nil")
	}
	p.store.ApplyTick(t)

	if p.exec != nil {
		spread, hasSpread := t.Spread()
		depth, hasDepth := t.Depth()
		if hasSpread || hasDepth {
			p.exec.ObserveQuote(t.Token, spread, depth)
		}
	}

	p.metrics.RecordTick(t.Token)
	p.metrics.RecordLastPrice(t.Token, t.LTP)
	return nil
}
