package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultIBRequestRepository struct {
	db *gorm.DB
}

func NewDefaultIBRequestRepository(db *gorm.DB) *DefaultIBRequestRepository {
	return &DefaultIBRequestRepository{db: db}
}

func (r *DefaultIBRequestRepository) CreateIBRequest(ctx context.Context, req *domain.IBRequest) error {
	return translate(r.db.WithContext(ctx).Create(mappers.ToGORMIBRequest(req)).Error, "ib request of user "+req.UserID)
}

func (r *DefaultIBRequestRepository) GetIBRequestByID(ctx context.Context, id string) (*domain.IBRequest, error) {
	return getIBRequest(r.db.WithContext(ctx), id)
}

func getIBRequest(db *gorm.DB, id string) (*domain.IBRequest, error) {
	var model models.IBRequestModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translate(err, "ib request "+id)
	}
	return mappers.ToDomainIBRequest(&model), nil
}

func (r *DefaultIBRequestRepository) GetIBRequestByUserID(ctx context.Context, userID string) (*domain.IBRequest, error) {
	var model models.IBRequestModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error; err != nil {
		return nil, translate(err, "ib request of user "+userID)
	}
	return mappers.ToDomainIBRequest(&model), nil
}

func (r *DefaultIBRequestRepository) ListIBRequests(ctx context.Context, filter domain.IBRequestFilter) ([]*domain.IBRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.IBRequestModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.IBType != "" {
		query = query.Where("ib_type = ?", string(filter.IBType))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count ib requests")
	}

	var rows []models.IBRequestModel
	if err := query.Order("created_at DESC, id").
		Offset(offset(filter.Page, filter.Limit)).
		Limit(filter.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, translate(err, "list ib requests")
	}

	out := make([]*domain.IBRequest, len(rows))
	for i := range rows {
		out[i] = mappers.ToDomainIBRequest(&rows[i])
	}
	return out, total, nil
}

func (r *DefaultIBRequestRepository) GetReferrals(ctx context.Context, referrerIDs []string) ([]*domain.IBRequest, error) {
	if len(referrerIDs) == 0 {
		return nil, nil
	}
	var rows []models.IBRequestModel
	if err := r.db.WithContext(ctx).
		Where("referrer_id IN ?", referrerIDs).
		Where("status = ?", string(domain.IBRequestApproved)).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, translate(err, "referrals")
	}
	out := make([]*domain.IBRequest, len(rows))
	for i := range rows {
		out[i] = mappers.ToDomainIBRequest(&rows[i])
	}
	return out, nil
}

func (r *DefaultIBRequestRepository) ApproveIBRequest(ctx context.Context, id string, approval domain.IBApproval, at time.Time, check domain.ReferralCheck) (*domain.IBRequest, error) {
	var approved *domain.IBRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if check != nil {
			if err := lockReferralGraph(tx); err != nil {
				return err
			}
		}

		req, err := lockIBRequest(tx, id)
		if err != nil {
			return err
		}
		if err := req.Approve(approval, at); err != nil {
			return err
		}
		if check != nil {
			if err := check(ctx, func(_ context.Context, ibID string) (*domain.IBRequest, error) {
				return getIBRequest(tx, ibID)
			}); err != nil {
				return err
			}
		}

		if err := tx.Save(mappers.ToGORMIBRequest(req)).Error; err != nil {
			return translate(err, "ib request "+id)
		}
		if err := replaceGroupRates(tx, id, approval.GroupRates); err != nil {
			return err
		}
		account := mappers.ToGORMAccount(domain.NewIBCommissionAccount(id, at))
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(account).Error; err != nil {
			return translate(err, "commission account of ib "+id)
		}
		approved = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

func (r *DefaultIBRequestRepository) RejectIBRequest(ctx context.Context, id, reason string, at time.Time) (*domain.IBRequest, error) {
	return r.mutate(ctx, id, func(req *domain.IBRequest) error {
		return req.Reject(reason, at)
	})
}

func (r *DefaultIBRequestRepository) ChangeIBType(ctx context.Context, id string, newType domain.IBType, referrerID string, at time.Time, check domain.ReferralCheck) (*domain.IBRequest, error) {
	var changed *domain.IBRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockReferralGraph(tx); err != nil {
			return err
		}
		req, err := lockIBRequest(tx, id)
		if err != nil {
			return err
		}
		if err := req.ChangeType(newType, referrerID, at); err != nil {
			return err
		}
		if check != nil {
			if err := check(ctx, func(_ context.Context, ibID string) (*domain.IBRequest, error) {
				return getIBRequest(tx, ibID)
			}); err != nil {
				return err
			}
		}
		if err := tx.Save(mappers.ToGORMIBRequest(req)).Error; err != nil {
			return translate(err, "ib request "+id)
		}
		changed = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

func (r *DefaultIBRequestRepository) SetIBBanned(ctx context.Context, id string, banned bool, at time.Time) (*domain.IBRequest, error) {
	return r.mutate(ctx, id, func(req *domain.IBRequest) error {
		return req.SetBanned(banned, at)
	})
}

func (r *DefaultIBRequestRepository) mutate(ctx context.Context, id string, fn func(*domain.IBRequest) error) (*domain.IBRequest, error) {
	var updated *domain.IBRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := lockIBRequest(tx, id)
		if err != nil {
			return err
		}
		if err := fn(req); err != nil {
			return err
		}
		if err := tx.Save(mappers.ToGORMIBRequest(req)).Error; err != nil {
			return translate(err, "ib request "+id)
		}
		updated = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func lockIBRequest(tx *gorm.DB, id string) (*domain.IBRequest, error) {
	var model models.IBRequestModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translate(err, "ib request "+id)
	}
	return mappers.ToDomainIBRequest(&model), nil
}

func (r *DefaultIBRequestRepository) GetGroupRates(ctx context.Context, ibID string) ([]domain.GroupPipRate, error) {
	var rows []models.GroupPipRateModel
	if err := r.db.WithContext(ctx).Where("ib_id = ?", ibID).Order("group_id").Find(&rows).Error; err != nil {
		return nil, translate(err, "group rates of ib "+ibID)
	}
	out := make([]domain.GroupPipRate, len(rows))
	for i := range rows {
		out[i] = mappers.ToDomainGroupRate(&rows[i])
	}
	return out, nil
}

func (r *DefaultIBRequestRepository) GetGroupRatesFor(ctx context.Context, ibIDs []string, groupID string) (map[string]domain.GroupPipRate, error) {
	out := make(map[string]domain.GroupPipRate, len(ibIDs))
	if len(ibIDs) == 0 {
		return out, nil
	}
	var rows []models.GroupPipRateModel
	if err := r.db.WithContext(ctx).
		Where("ib_id IN ? AND group_id = ?", ibIDs, groupID).
		Find(&rows).Error; err != nil {
		return nil, translate(err, "group rates of "+groupID)
	}
	for i := range rows {
		out[rows[i].IBID] = mappers.ToDomainGroupRate(&rows[i])
	}
	return out, nil
}

func (r *DefaultIBRequestRepository) ReplaceGroupRates(ctx context.Context, ibID string, rates []domain.GroupPipRate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := lockIBRequest(tx, ibID)
		if err != nil {
			return err
		}
		if !req.IsApprovedIB() {
			return fmt.Errorf("%w: ib %s is %s", domain.ErrConflict, ibID, req.Status)
		}
		return replaceGroupRates(tx, ibID, rates)
	})
}

func replaceGroupRates(tx *gorm.DB, ibID string, rates []domain.GroupPipRate) error {
	if err := tx.Where("ib_id = ?", ibID).Delete(&models.GroupPipRateModel{}).Error; err != nil {
		return translate(err, "group rates of ib "+ibID)
	}
	if len(rates) == 0 {
		return nil
	}
	rows := make([]models.GroupPipRateModel, len(rates))
	for i, rate := range rates {
		rate.IBID = ibID
		rows[i] = mappers.ToGORMGroupRate(rate)
	}
	return translate(tx.Create(&rows).Error, "group rates of ib "+ibID)
}
