package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

const maxRetryBackoff = 30 * time.Second

type DefaultKafkaSubscriber struct {
	brokers []string
}

func NewDefaultKafkaSubscriber(brokers []string) *DefaultKafkaSubscriber {
	return &DefaultKafkaSubscriber{brokers: brokers}
}

// Subscribe consumes topic until ctx is done. A message is committed only
// after handler accepts it; a failing message is retried in place.
func (k *DefaultKafkaSubscriber) Subscribe(ctx context.Context, topic, groupID string, handler domain.MessageHandler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	slog.Info("kafka subscriber started", "topic", topic, "group_id", groupID)
	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		if err := k.handle(ctx, handler, m); err != nil {
			return nil
		}

		if err := reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("failed to commit kafka message", "topic", topic, "offset", m.Offset, "error", err.Error())
		}
	}
}

// handle runs handler until it succeeds. It returns an error only when ctx
// is done.
func (k *DefaultKafkaSubscriber) handle(ctx context.Context, handler domain.MessageHandler, m kafka.Message) error {
	backoff := time.Second
	for {
		err := handler(ctx, domain.Message{Key: m.Key, Value: m.Value})
		if err == nil {
			return nil
		}
		slog.Error("kafka message handler failed",
			"topic", m.Topic,
			"partition", m.Partition,
			"offset", m.Offset,
			"retry_in", backoff.String(),
			"error", err.Error(),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < maxRetryBackoff {
			backoff *= 2
		}
	}
}
