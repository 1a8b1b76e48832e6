package domain

import (
	"context"
	"time"
)

// IBRequestEvent is emitted after an IB request changes state.
type IBRequestEvent struct {
	IBID       string    `json:"ib_id"`
	UserID     string    `json:"user_id"`
	Action     string    `json:"action"`
	Status     string    `json:"status"`
	IBType     string    `json:"ib_type,omitempty"`
	ReferrerID string    `json:"referrer_id,omitempty"`
	IsBanned   bool      `json:"is_banned"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// WithdrawalEvent is emitted after a withdrawal request changes state.
type WithdrawalEvent struct {
	WithdrawalID string    `json:"withdrawal_id"`
	IBID         string    `json:"ib_id"`
	UserID       string    `json:"user_id"`
	Status       string    `json:"status"`
	Amount       string    `json:"amount"`
	Reason       string    `json:"reason,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	PublishIBRequestEvent(ctx context.Context, event IBRequestEvent) error
	PublishWithdrawalEvent(ctx context.Context, event WithdrawalEvent) error
}
