package request

import (
	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/shopspring/decimal"
)

// PlanStructure maps a trading group id to rates keyed by level label (L1..L5).
type PlanStructure map[string]map[string]decimal.Decimal

// Levels converts the level labels to level numbers.
func (s PlanStructure) Levels() (map[string]map[int]decimal.Decimal, error) {
	out := make(map[string]map[int]decimal.Decimal, len(s))
	for groupID, rates := range s {
		levels := make(map[int]decimal.Decimal, len(rates))
		for label, rate := range rates {
			level, err := domain.ParseLevelLabel(label)
			if err != nil {
				return nil, err
			}
			levels[level] = rate
		}
		out[groupID] = levels
	}
	return out, nil
}

type CreatePlanRequest struct {
	OwnerIBID   string        `json:"owner_ib_id"`
	Name        string        `json:"name"`
	LevelsCount int           `json:"levels_count"`
	Structure   PlanStructure `json:"structure"`
}

type UpdatePlanRequest struct {
	Name        string        `json:"name"`
	LevelsCount int           `json:"levels_count"`
	Structure   PlanStructure `json:"structure"`
}

type DistributeRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

type WithdrawalRequest struct {
	IBID           string          `json:"ib_id"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  string          `json:"payment_method"`
	PaymentDetails string          `json:"payment_details"`
}
