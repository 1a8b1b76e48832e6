package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "PENDING"
	WithdrawalApproved WithdrawalStatus = "APPROVED"
	WithdrawalRejected WithdrawalStatus = "REJECTED"
)

type WithdrawalRequest struct {
	ID              string
	IBID            string
	UserID          string
	Amount          decimal.Decimal
	PaymentMethod   string
	PaymentDetails  string
	Status          WithdrawalStatus
	RejectionReason string
	DistributionID  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ApprovedAt      *time.Time
	RejectedAt      *time.Time
}

func (w *WithdrawalRequest) Approve(distributionID string, at time.Time) error {
	if w.Status != WithdrawalPending {
		return fmt.Errorf("%w: withdrawal %s is %s, expected %s", ErrConflict, w.ID, w.Status, WithdrawalPending)
	}
	w.Status = WithdrawalApproved
	w.DistributionID = distributionID
	w.ApprovedAt = &at
	w.UpdatedAt = at
	return nil
}

func (w *WithdrawalRequest) Reject(reason string, at time.Time) error {
	if w.Status != WithdrawalPending {
		return fmt.Errorf("%w: withdrawal %s is %s, expected %s", ErrConflict, w.ID, w.Status, WithdrawalPending)
	}
	w.Status = WithdrawalRejected
	w.RejectionReason = reason
	w.RejectedAt = &at
	w.UpdatedAt = at
	return nil
}

type WithdrawalFilter struct {
	IBID   string
	Status WithdrawalStatus
	Page   int
	Limit  int
}

type WithdrawalRepository interface {
	CreateWithdrawal(ctx context.Context, w *WithdrawalRequest) error
	GetWithdrawalByID(ctx context.Context, id string) (*WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context, filter WithdrawalFilter) ([]*WithdrawalRequest, int64, error)
	// ApproveWithdrawal locks the withdrawal, distributes its amount from the
	// IB's account and marks it approved in one transaction. On
	// ErrInsufficientBalance nothing changes and the withdrawal stays pending.
	ApproveWithdrawal(ctx context.Context, id string, d *Distribution, at time.Time) (*WithdrawalRequest, error)
	RejectWithdrawal(ctx context.Context, id, reason string, at time.Time) (*WithdrawalRequest, error)
}
