package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CommissionPlanModel struct {
	ID          string `gorm:"primaryKey"`
	OwnerIBID   string `gorm:"index;not null"`
	Name        string `gorm:"not null"`
	LevelsCount int
	LinkToken   string                    `gorm:"uniqueIndex;not null"`
	Rates       []CommissionPlanRateModel `gorm:"foreignKey:PlanID;references:ID;constraint:OnDelete:CASCADE;"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (CommissionPlanModel) TableName() string { return "commission_plans" }

// CommissionPlanRateModel is one cell of a plan's group by level structure.
type CommissionPlanRateModel struct {
	PlanID  string          `gorm:"primaryKey"`
	GroupID string          `gorm:"primaryKey"`
	Level   int             `gorm:"primaryKey"`
	Rate    decimal.Decimal `gorm:"type:numeric(20,8);not null"`
}

func (CommissionPlanRateModel) TableName() string { return "commission_plan_rates" }
