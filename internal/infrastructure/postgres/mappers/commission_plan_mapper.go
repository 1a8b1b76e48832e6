package mappers

import (
	"sort"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres/models"
	"github.com/shopspring/decimal"
)

func ToDomainCommissionPlan(model *models.CommissionPlanModel) *domain.CommissionPlan {
	structure := make(map[string]map[int]decimal.Decimal)
	for _, r := range model.Rates {
		levels, ok := structure[r.GroupID]
		if !ok {
			levels = make(map[int]decimal.Decimal)
			structure[r.GroupID] = levels
		}
		levels[r.Level] = r.Rate
	}
	return &domain.CommissionPlan{
		ID:          model.ID,
		OwnerIBID:   model.OwnerIBID,
		Name:        model.Name,
		LevelsCount: model.LevelsCount,
		Structure:   structure,
		LinkToken:   model.LinkToken,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func ToGORMCommissionPlan(plan *domain.CommissionPlan) *models.CommissionPlanModel {
	return &models.CommissionPlanModel{
		ID:          plan.ID,
		OwnerIBID:   plan.OwnerIBID,
		Name:        plan.Name,
		LevelsCount: plan.LevelsCount,
		LinkToken:   plan.LinkToken,
		CreatedAt:   plan.CreatedAt,
		UpdatedAt:   plan.UpdatedAt,
	}
}

// ToGORMPlanRates flattens a plan structure into rows ordered by group and level.
func ToGORMPlanRates(plan *domain.CommissionPlan) []models.CommissionPlanRateModel {
	groupIDs := plan.GroupIDs()
	sort.Strings(groupIDs)

	var rows []models.CommissionPlanRateModel
	for _, groupID := range groupIDs {
		levels := make([]int, 0, len(plan.Structure[groupID]))
		for level := range plan.Structure[groupID] {
			levels = append(levels, level)
		}
		sort.Ints(levels)
		for _, level := range levels {
			rows = append(rows, models.CommissionPlanRateModel{
				PlanID:  plan.ID,
				GroupID: groupID,
				Level:   level,
				Rate:    plan.Structure[groupID][level],
			})
		}
	}
	return rows
}
