package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type IBRequestModel struct {
	ID                      string `gorm:"primaryKey"`
	UserID                  string `gorm:"uniqueIndex;not null"`
	Status                  string `gorm:"index;not null"`
	IBType                  string
	ReferrerID              string `gorm:"index"`
	JoinedPlanID            string
	PlanType                string
	ShowCommissionStructure bool
	IsBanned                bool
	RejectionReason         string
	CreatedAt               time.Time
	UpdatedAt               time.Time
	ApprovedAt              *time.Time
	RejectedAt              *time.Time
}

func (IBRequestModel) TableName() string { return "ib_requests" }

type GroupPipRateModel struct {
	IBID      string          `gorm:"primaryKey"`
	GroupID   string          `gorm:"primaryKey;index"`
	Rate      decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	UpdatedAt time.Time
}

func (GroupPipRateModel) TableName() string { return "ib_group_rates" }

type TradingGroupModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	UpdatedAt time.Time
}

func (TradingGroupModel) TableName() string { return "trading_groups" }

type ClientReferralModel struct {
	ClientUserID string `gorm:"primaryKey"`
	IBID         string `gorm:"index;not null"`
	PlanID       string
	CreatedAt    time.Time
}

func (ClientReferralModel) TableName() string { return "client_referrals" }
