package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"IntraScan/internal/domain/models"
	domrepo "IntraScan/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, t *models.Tick) error
}

// TickPipeline sits between the broker stream and the state store. It
// validates, throttles per token, and buffers when downstream stalls.
// A rejected tick is dropped, never retried: the next quote supersedes it.
type TickPipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	maxRPS  int
	bufSize int
	bufCh   chan *models.Tick
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex

	lastSeen map[string]time.Time // per-token last accepted time
}

type PipelineOption func(*TickPipeline)

// WithMaxRPS sets the max accepted ticks per second per token.
func WithMaxRPS(n int) PipelineOption {
	return func(p *TickPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is
// unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *TickPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewTickPipeline creates a new pipeline.
func NewTickPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *TickPipeline {
	p := &TickPipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   20,
		bufSize:  1000,
		bufCh:    make(chan *models.Tick, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.Tick, p.bufSize)
	}
	return p
}

// Start launches background flushing of buffered ticks.
func (p *TickPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case t := <-p.bufCh:
				if t == nil {
					continue
				}
				if err := p.proc.Process(ctx, t); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					select {
					case p.bufCh <- t:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *TickPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards the tick downstream,
// buffering on processor errors.
func (p *TickPipeline) Process(ctx context.Context, t *models.Tick) error {
	start := time.Now()
	if err := validateTick(t); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(t.Token, start) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, t); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- t:
			p.metrics.RecordLatency("pipeline_buffer_depth", float64(len(p.bufCh)))
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateTick(t *models.Tick) error {
	if t == nil {
		return fmt.Errorf("tick nil")
	}
	if t.Token == "" {
		return fmt.Errorf("token empty")
	}
	if t.Timestamp <= 0 {
		return fmt.Errorf("timestamp invalid")
	}
	if t.LTP <= 0 {
		return fmt.Errorf("non-positive ltp")
	}
	if t.Volume < 0 {
		return fmt.Errorf("negative volume")
	}
	return nil
}

func (p *TickPipeline) allow(token string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[token]
	if last.IsZero() {
		p.lastSeen[token] = now
		return true
	}
	if now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[token] = now
	return true
}
