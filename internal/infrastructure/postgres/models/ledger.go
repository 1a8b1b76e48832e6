package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type LedgerEntryModel struct {
	ID             string          `gorm:"primaryKey"`
	IdempotencyKey string          `gorm:"uniqueIndex;not null"`
	IBID           string          `gorm:"index;not null"`
	TradeID        string          `gorm:"index;not null"`
	Kind           string          `gorm:"not null"`
	Level          int
	GroupID        string
	Volume         decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	Rate           decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	Amount         decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	TradeTime      time.Time       `gorm:"index"`
	CreatedAt      time.Time
}

func (LedgerEntryModel) TableName() string { return "commission_ledger_entries" }

// RecordedTradeModel marks a trade whose commission has been recorded.
type RecordedTradeModel struct {
	TradeID   string `gorm:"primaryKey"`
	CreatedAt time.Time
}

func (RecordedTradeModel) TableName() string { return "recorded_trades" }

type IBCommissionAccountModel struct {
	IBID                  string          `gorm:"primaryKey"`
	TotalCommission       decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0"`
	DirectCommission      decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0"`
	ResidualCommission    decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0"`
	DistributedCommission decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (IBCommissionAccountModel) TableName() string { return "ib_commission_accounts" }

type DistributionModel struct {
	ID           string          `gorm:"primaryKey"`
	IBID         string          `gorm:"index;not null"`
	Amount       decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	Note         string
	Source       string `gorm:"not null"`
	WithdrawalID string
	CreatedAt    time.Time
}

func (DistributionModel) TableName() string { return "commission_distributions" }

// LevelTotalRow is the scan target of the per-level aggregate query.
type LevelTotalRow struct {
	Kind   string
	Level  int
	Amount decimal.Decimal
	Trades int64
}

// AccountSumsRow is the scan target of the reconciliation sums.
type AccountSumsRow struct {
	Total    decimal.Decimal
	Direct   decimal.Decimal
	Residual decimal.Decimal
}
