package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal    *prometheus.CounterVec
	signalsTotal  *prometheus.CounterVec
	guardBlocks   *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	subscriptions *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intrascan_ticks_total",
				Help: "Total number of ticks applied to the state store",
			},
			[]string{"token"},
		),
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intrascan_signals_total",
				Help: "Total number of emitted signals",
			},
			[]string{"classification", "token"},
		),
		guardBlocks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intrascan_guard_blocks_total",
				Help: "Total number of guard chain rejections",
			},
			[]string{"guard", "reason"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intrascan_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "intrascan_last_price",
				Help: "Last traded price for a token",
			},
			[]string{"token"},
		),
		subscriptions: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "intrascan_subscription_slots",
				Help: "Current subscription slots per tier",
			},
			[]string{"tier"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "intrascan_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTick records one applied tick.
func (r *Recorder) RecordTick(token string) {
	r.ticksTotal.WithLabelValues(token).Inc()
}

// RecordSignal records an emitted signal.
func (r *Recorder) RecordSignal(classification, token string) {
	r.signalsTotal.WithLabelValues(classification, token).Inc()
}

// RecordGuardBlock records a guard chain rejection.
func (r *Recorder) RecordGuardBlock(guard, reason string) {
	r.guardBlocks.WithLabelValues(guard, reason).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a token.
func (r *Recorder) RecordLastPrice(token string, price float64) {
	r.lastPrice.WithLabelValues(token).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordSubscriptions records tier occupancy after a recomputation.
func (r *Recorder) RecordSubscriptions(tier string, n int) {
	r.subscriptions.WithLabelValues(tier).Set(float64(n))
}
