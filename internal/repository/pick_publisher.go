package repository

import (
	"context"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
	pkgkafka "TrendPulse/pkg/kafka"
)

// KafkaPickPublisher emits finalized pick-sets to a Kafka topic, keyed by
// session date so replays of the same session compact cleanly.
type KafkaPickPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPickPublisher(producer *pkgkafka.Producer, topic string) drepo.PickPublisher {
	return &KafkaPickPublisher{producer: producer, topic: topic}
}

func (p *KafkaPickPublisher) Publish(ctx context.Context, ps *models.SessionPickSet) error {
	return p.producer.Publish(ctx, p.topic, []byte(ps.SessionDate), ps)
}

func (p *KafkaPickPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
