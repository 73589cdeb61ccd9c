package repository

import (
	"context"

	"IntraScan/internal/domain/models"
)

// MarketStream is the live tick feed from the broker gateway. Subscriptions
// are re-issued wholesale on each tier recomputation, never diffed.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, tokens []string, mode models.SubscribeMode, depth int) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// CandleSource is the historical/candle gateway.
type CandleSource interface {
	GetCandles(ctx context.Context, token string, tf Timeframe, count int) ([]models.Candle, error)
}

// StateReader is the read side of the market state store, consumed by the
// ranking engine, detectors and guards. A fake implementation substitutes
// in tests.
type StateReader interface {
	Get(token string) (*models.InstrumentState, bool)
	ActiveStates() []*models.InstrumentState
	BenchmarkChangePct() float64
}

// SignalSink receives every emitted signal (advisory output).
type SignalSink interface {
	Publish(ctx context.Context, s *models.Signal) error
	Close() error
}

// Metrics is implemented by the Prometheus recorder.
type Metrics interface {
	RecordTick(token string)
	RecordSignal(classification, token string)
	RecordGuardBlock(guard, reason string)
	RecordError(kind string)
	RecordLastPrice(token string, price float64)
	RecordLatency(op string, seconds float64)
	RecordSubscriptions(tier string, n int)
}
