package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of decimal places kept for volumes, rates and
// amounts. It matches the NUMERIC(20, 8) ledger columns.
const AmountScale int32 = 8

type CommissionKind string

const (
	CommissionDirect   CommissionKind = "DIRECT"
	CommissionResidual CommissionKind = "RESIDUAL"
)

// CommissionLedgerEntry is an append-only credit to one IB produced by one trade.
type CommissionLedgerEntry struct {
	ID             string
	IdempotencyKey string
	IBID           string
	TradeID        string
	Kind           CommissionKind
	Level          int
	GroupID        string
	Volume         decimal.Decimal
	Rate           decimal.Decimal
	Amount         decimal.Decimal
	TradeTime      time.Time
	CreatedAt      time.Time
}

// EntryKey derives the idempotency key of a ledger entry. Re-processing the
// same trade yields the same keys.
func EntryKey(tradeID, ibID string, kind CommissionKind, level int) string {
	return fmt.Sprintf("%s:%s:%s:%d", tradeID, ibID, kind, level)
}

type IBCommissionAccount struct {
	IBID                  string
	TotalCommission       decimal.Decimal
	DirectCommission      decimal.Decimal
	ResidualCommission    decimal.Decimal
	DistributedCommission decimal.Decimal
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func NewIBCommissionAccount(ibID string, at time.Time) *IBCommissionAccount {
	return &IBCommissionAccount{
		IBID:                  ibID,
		TotalCommission:       decimal.Zero,
		DirectCommission:      decimal.Zero,
		ResidualCommission:    decimal.Zero,
		DistributedCommission: decimal.Zero,
		CreatedAt:             at,
		UpdatedAt:             at,
	}
}

func (a *IBCommissionAccount) AvailableBalance() decimal.Decimal {
	return a.TotalCommission.Sub(a.DistributedCommission)
}

// Credit applies a newly inserted ledger entry to the aggregates.
func (a *IBCommissionAccount) Credit(e *CommissionLedgerEntry, at time.Time) {
	a.TotalCommission = a.TotalCommission.Add(e.Amount)
	if e.Kind == CommissionDirect {
		a.DirectCommission = a.DirectCommission.Add(e.Amount)
	} else {
		a.ResidualCommission = a.ResidualCommission.Add(e.Amount)
	}
	a.UpdatedAt = at
}

// Debit moves amount from available to distributed.
func (a *IBCommissionAccount) Debit(amount decimal.Decimal, at time.Time) error {
	if amount.GreaterThan(a.AvailableBalance()) {
		return fmt.Errorf("%w: ib %s has %s available, requested %s",
			ErrInsufficientBalance, a.IBID, a.AvailableBalance().String(), amount.String())
	}
	a.DistributedCommission = a.DistributedCommission.Add(amount)
	a.UpdatedAt = at
	return nil
}

type DistributionSource string

const (
	DistributionManual     DistributionSource = "MANUAL"
	DistributionWithdrawal DistributionSource = "WITHDRAWAL"
)

type Distribution struct {
	ID           string
	IBID         string
	Amount       decimal.Decimal
	Note         string
	Source       DistributionSource
	WithdrawalID string
	CreatedAt    time.Time
}

type LevelTotal struct {
	Kind   CommissionKind
	Level  int
	Amount decimal.Decimal
	Trades int64
}

type CommissionSummary struct {
	IBID                  string
	TotalCommission       decimal.Decimal
	DistributedCommission decimal.Decimal
	AvailableBalance      decimal.Decimal
	DirectCommission      decimal.Decimal
	ResidualCommission    decimal.Decimal
	Levels                []LevelTotal
}

type LedgerFilter struct {
	IBID     string
	Kind     CommissionKind
	DateFrom time.Time
	DateTo   time.Time
	Page     int
	Limit    int
}

// AccountReconciliation is the outcome of recomputing one account from the ledger.
type AccountReconciliation struct {
	IBID     string
	Before   IBCommissionAccount
	After    IBCommissionAccount
	Repaired bool
}

type CommissionLedger interface {
	// RecordEntries appends entries and credits the beneficiaries atomically.
	// A trade is recorded at most once: when a trade already has entries, all
	// of its entries in the batch are skipped, even if they differ from the
	// stored ones. Returns the entries actually inserted.
	RecordEntries(ctx context.Context, entries []*CommissionLedgerEntry) ([]*CommissionLedgerEntry, error)
	// Distribute debits the IB's available balance and records a distribution.
	Distribute(ctx context.Context, d *Distribution) error

	GetAccount(ctx context.Context, ibID string) (*IBCommissionAccount, error)
	ListAccountIDs(ctx context.Context) ([]string, error)
	GetLevelTotals(ctx context.Context, ibID string) ([]LevelTotal, error)
	GetEntriesByTradeID(ctx context.Context, tradeID string) ([]*CommissionLedgerEntry, error)
	ListEntries(ctx context.Context, filter LedgerFilter) ([]*CommissionLedgerEntry, int64, error)
	ListDistributions(ctx context.Context, ibID string, page, limit int) ([]*Distribution, int64, error)
	// ReconcileAccount recomputes the account aggregates from the ledger under
	// the account lock and repairs any drift.
	ReconcileAccount(ctx context.Context, ibID string) (*AccountReconciliation, error)
}
