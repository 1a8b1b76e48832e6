package repository

import (
	"context"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultCommissionPlanRepository struct {
	db *gorm.DB
}

func NewDefaultCommissionPlanRepository(db *gorm.DB) *DefaultCommissionPlanRepository {
	return &DefaultCommissionPlanRepository{db: db}
}

func (r *DefaultCommissionPlanRepository) CreatePlan(ctx context.Context, plan *domain.CommissionPlan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Rates").Create(mappers.ToGORMCommissionPlan(plan)).Error; err != nil {
			return translate(err, "plan "+plan.ID)
		}
		return createPlanRates(tx, plan)
	})
}

// UpdatePlan rewrites the plan header and replaces its rate rows.
func (r *DefaultCommissionPlanRepository) UpdatePlan(ctx context.Context, plan *domain.CommissionPlan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CommissionPlanModel{}).
			Where("id = ?", plan.ID).
			Updates(map[string]interface{}{
				"name":         plan.Name,
				"levels_count": plan.LevelsCount,
				"updated_at":   plan.UpdatedAt,
			})
		if res.Error != nil {
			return translate(res.Error, "plan "+plan.ID)
		}
		if res.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, "plan "+plan.ID)
		}
		if err := tx.Where("plan_id = ?", plan.ID).Delete(&models.CommissionPlanRateModel{}).Error; err != nil {
			return translate(err, "rates of plan "+plan.ID)
		}
		return createPlanRates(tx, plan)
	})
}

func createPlanRates(tx *gorm.DB, plan *domain.CommissionPlan) error {
	rows := mappers.ToGORMPlanRates(plan)
	if len(rows) == 0 {
		return nil
	}
	return translate(tx.Create(&rows).Error, "rates of plan "+plan.ID)
}

func (r *DefaultCommissionPlanRepository) DeletePlan(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ?", id).Delete(&models.CommissionPlanRateModel{}).Error; err != nil {
			return translate(err, "rates of plan "+id)
		}
		res := tx.Where("id = ?", id).Delete(&models.CommissionPlanModel{})
		if res.Error != nil {
			return translate(res.Error, "plan "+id)
		}
		if res.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, "plan "+id)
		}
		return nil
	})
}

func (r *DefaultCommissionPlanRepository) GetPlanByID(ctx context.Context, id string) (*domain.CommissionPlan, error) {
	return r.getPlan(ctx, "id = ?", id)
}

func (r *DefaultCommissionPlanRepository) GetPlanByLinkToken(ctx context.Context, token string) (*domain.CommissionPlan, error) {
	return r.getPlan(ctx, "link_token = ?", token)
}

func (r *DefaultCommissionPlanRepository) getPlan(ctx context.Context, cond string, arg string) (*domain.CommissionPlan, error) {
	var model models.CommissionPlanModel
	if err := r.db.WithContext(ctx).Preload("Rates").Where(cond, arg).First(&model).Error; err != nil {
		return nil, translate(err, "plan "+arg)
	}
	return mappers.ToDomainCommissionPlan(&model), nil
}

func (r *DefaultCommissionPlanRepository) ListPlansByOwner(ctx context.Context, ownerIBID string) ([]*domain.CommissionPlan, error) {
	var rows []models.CommissionPlanModel
	if err := r.db.WithContext(ctx).
		Preload("Rates").
		Where("owner_ib_id = ?", ownerIBID).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, translate(err, "plans of ib "+ownerIBID)
	}
	out := make([]*domain.CommissionPlan, len(rows))
	for i := range rows {
		out[i] = mappers.ToDomainCommissionPlan(&rows[i])
	}
	return out, nil
}
