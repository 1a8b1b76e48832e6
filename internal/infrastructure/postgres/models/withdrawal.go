package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type WithdrawalModel struct {
	ID              string          `gorm:"primaryKey"`
	IBID            string          `gorm:"index;not null"`
	UserID          string          `gorm:"not null"`
	Amount          decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	PaymentMethod   string
	PaymentDetails  string
	Status          string `gorm:"index;not null"`
	RejectionReason string
	DistributionID  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ApprovedAt      *time.Time
	RejectedAt      *time.Time
}

func (WithdrawalModel) TableName() string { return "withdrawal_requests" }

type ReconcileJobModel struct {
	ID         string `gorm:"primaryKey"`
	Status     string `gorm:"index;not null"`
	Trigger    string
	Total      int
	Processed  int
	Repaired   int
	Percent    float64
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time `gorm:"index"`
	StartedAt  *time.Time
	FinishedAt *time.Time
}

func (ReconcileJobModel) TableName() string { return "reconcile_jobs" }
