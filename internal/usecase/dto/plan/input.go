package plandto

import "github.com/shopspring/decimal"

// PlanStructure maps a trading group id to its per-level rates.
type PlanStructure map[string]map[int]decimal.Decimal

type CreatePlanInput struct {
	OwnerIBID   string
	Name        string
	LevelsCount int
	Structure   PlanStructure
}

type UpdatePlanInput struct {
	PlanID      string
	Name        string
	LevelsCount int
	Structure   PlanStructure
}
