package usecase

import (
	"context"

	"IntraScan/internal/domain/models"
	drepo "IntraScan/internal/domain/repository"
	mid "IntraScan/internal/middleware"
)

// TickCollector drains the broker stream into the tick pipeline.
type TickCollector struct {
	stream  drepo.MarketStream
	proc    *TickProcessor
	metrics drepo.Metrics
	pipe    *mid.TickPipeline
}

// NewTickCollector creates a new TickCollector instance.
func NewTickCollector(stream drepo.MarketStream, proc *TickProcessor, metrics drepo.Metrics, pipe *mid.TickPipeline) *TickCollector {
	return &TickCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the market stream is connected.
func (c *TickCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Start connects the stream and begins consuming. The initial subscription
// is issued separately by the scheduler's first plan application.
func (c *TickCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

func (c *TickCollector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case t := <-tickCh:
			if t == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, t)
			} else {
				_ = c.proc.Process(ctx, t)
			}
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *TickCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
