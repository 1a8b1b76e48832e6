package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
)

// EventPublisher publishes workflow events keyed by IB id, so events of one
// IB keep their order within a partition.
type EventPublisher struct {
	publisher       domain.PublisherPort
	ibRequestTopic  string
	withdrawalTopic string
}

func NewEventPublisher(publisher domain.PublisherPort, ibRequestTopic, withdrawalTopic string) *EventPublisher {
	return &EventPublisher{
		publisher:       publisher,
		ibRequestTopic:  ibRequestTopic,
		withdrawalTopic: withdrawalTopic,
	}
}

func (p *EventPublisher) PublishIBRequestEvent(ctx context.Context, event domain.IBRequestEvent) error {
	v, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, p.ibRequestTopic, domain.Message{Key: []byte(event.IBID), Value: v})
}

func (p *EventPublisher) PublishWithdrawalEvent(ctx context.Context, event domain.WithdrawalEvent) error {
	v, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, p.withdrawalTopic, domain.Message{Key: []byte(event.IBID), Value: v})
}

// NoopEventPublisher drops events. It is used when kafka is disabled.
type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishIBRequestEvent(_ context.Context, event domain.IBRequestEvent) error {
	slog.Debug("ib request event dropped", "ib_id", event.IBID, "action", event.Action)
	return nil
}

func (NoopEventPublisher) PublishWithdrawalEvent(_ context.Context, event domain.WithdrawalEvent) error {
	slog.Debug("withdrawal event dropped", "withdrawal_id", event.WithdrawalID, "status", event.Status)
	return nil
}
