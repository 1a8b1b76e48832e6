package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/usecase/commission"
)

// TradeConsumer feeds trade volume events from the trading platform into
// the commission engine.
type TradeConsumer struct {
	subscriber domain.SubscriberPort
	commission commission.CommissionUsecase
	topic      string
	groupID    string
}

func NewTradeConsumer(
	subscriber domain.SubscriberPort,
	commissionUsecase commission.CommissionUsecase,
	topic, groupID string,
) *TradeConsumer {
	return &TradeConsumer{
		subscriber: subscriber,
		commission: commissionUsecase,
		topic:      topic,
		groupID:    groupID,
	}
}

// Run blocks until ctx is done.
func (c *TradeConsumer) Run(ctx context.Context) error {
	return c.subscriber.Subscribe(ctx, c.topic, c.groupID, c.Handle)
}

// Handle processes one trade message. Malformed or invalid trades are logged
// and skipped; any other failure is returned so the message is redelivered.
func (c *TradeConsumer) Handle(ctx context.Context, msg domain.Message) error {
	event, err := decodeTradeEvent(msg.Value)
	if err != nil {
		slog.Error("dropping malformed trade event", "key", string(msg.Key), "error", err.Error())
		return nil
	}

	out, err := c.commission.ProcessTrade(ctx, event)
	if errors.Is(err, domain.ErrValidation) {
		slog.Error("dropping invalid trade event", "trade_id", event.TradeID, "error", err.Error())
		return nil
	}
	if err != nil {
		return fmt.Errorf("trade %s: %w", event.TradeID, err)
	}

	slog.Debug("trade event consumed", "trade_id", out.TradeID, "outcome", out.Outcome, "inserted", out.Inserted)
	return nil
}

func decodeTradeEvent(data []byte) (domain.TradeVolumeEvent, error) {
	var event domain.TradeVolumeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.TradeVolumeEvent{}, fmt.Errorf("decode trade event: %w", err)
	}
	if event.TradeID == "" {
		return domain.TradeVolumeEvent{}, fmt.Errorf("decode trade event: missing trade_id")
	}
	return event, nil
}
