package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

const defaultPublishAttempts = 3

type DefaultKafkaPublisher struct {
	writer      *kafka.Writer
	maxAttempts int
}

func NewDefaultKafkaPublisher(brokers []string) *DefaultKafkaPublisher {
	return &DefaultKafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		maxAttempts: defaultPublishAttempts,
	}
}

// Publish writes msgs to topic, retrying the whole batch with a linear backoff.
func (k *DefaultKafkaPublisher) Publish(ctx context.Context, topic string, msgs ...domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	now := time.Now()
	km := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		km = append(km, kafka.Message{
			Topic: topic,
			Key:   m.Key,
			Value: m.Value,
			Time:  now,
		})
	}

	var err error
	for attempt := 1; attempt <= k.maxAttempts; attempt++ {
		if err = k.writer.WriteMessages(ctx, km...); err == nil {
			return nil
		}
		slog.Warn("kafka publish attempt failed", "topic", topic, "attempt", attempt, "error", err.Error())

		if attempt < k.maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}
	return fmt.Errorf("publish to %s failed after %d attempts: %w", topic, k.maxAttempts, err)
}

func (k *DefaultKafkaPublisher) Close() error {
	return k.writer.Close()
}
