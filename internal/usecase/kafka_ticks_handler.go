package usecase

import (
	"context"
	"encoding/json"
	"time"

	"IntraScan/internal/domain/models"
	domrepo "IntraScan/internal/domain/repository"
	pkgkafka "IntraScan/pkg/kafka"
)

// KafkaTicksHandler drains a raw-ticks topic into the market state store,
// as an alternative to the live WebSocket feed.
type KafkaTicksHandler struct {
	topic   string
	proc    *TickProcessor
	metrics domrepo.Metrics
}

func NewKafkaTicksHandler(topic string, proc *TickProcessor, metrics domrepo.Metrics) *KafkaTicksHandler {
	return &KafkaTicksHandler{topic: topic, proc: proc, metrics: metrics}
}

func (h *KafkaTicksHandler) Topic() string { return h.topic }

// incoming message schema mirrors the broker quote frame
func (h *KafkaTicksHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Token  string   `json:"token"`
		TS     int64    `json:"ts"`
		LTP    float64  `json:"ltp"`
		Volume float64  `json:"vol"`
		OI     *float64 `json:"oi"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.TS > 1e11 { // ms
		m.TS = m.TS / 1000
	}
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.TS, 0)).Seconds())

	err := h.proc.Process(ctx, &models.Tick{
		Token:     m.Token,
		LTP:       m.LTP,
		Volume:    m.Volume,
		OI:        m.OI,
		Timestamp: m.TS,
	})
	if err != nil {
		h.metrics.RecordError("consumer_process")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaTicksHandler)(nil)
