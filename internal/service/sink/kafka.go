// Package sink implements the advisory signal outputs.
package sink

import (
	"context"
	"fmt"

	"IntraScan/internal/domain/models"
	drepo "IntraScan/internal/domain/repository"
	pkgkafka "IntraScan/pkg/kafka"
)

// KafkaSink publishes every emitted signal to a Kafka topic, keyed by
// token so a consumer sees each instrument's signals in order.
type KafkaSink struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSink creates a Kafka-backed SignalSink.
func NewKafkaSink(producer *pkgkafka.Producer, topic string) drepo.SignalSink {
	return &KafkaSink{producer: producer, topic: topic}
}

// Publish sends one signal.
func (s *KafkaSink) Publish(ctx context.Context, sig *models.Signal) error {
	if err := s.producer.Publish(ctx, s.topic, []byte(sig.Token), sig); err != nil {
		return fmt.Errorf("publish signal %s: %w", sig.Token, err)
	}
	return nil
}

// Close closes the underlying producer.
func (s *KafkaSink) Close() error { return s.producer.Close() }

// LogPublisher adapts the Kafka producer to the logger's aggregated log
// flush interface.
type LogPublisher struct {
	producer *pkgkafka.Producer
}

// NewLogPublisher creates a Kafka-backed log publisher.
func NewLogPublisher(producer *pkgkafka.Producer) *LogPublisher {
	return &LogPublisher{producer: producer}
}

// PublishMessage sends one aggregated log batch.
func (p *LogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

// NopSink discards signals; used when the Kafka output is disabled.
type NopSink struct{}

func (NopSink) Publish(ctx context.Context, _ *models.Signal) error { return nil }
func (NopSink) Close() error                                        { return nil }
