package repository

import (
	"context"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultWithdrawalRepository struct {
	db *gorm.DB
}

func NewDefaultWithdrawalRepository(db *gorm.DB) *DefaultWithdrawalRepository {
	return &DefaultWithdrawalRepository{db: db}
}

func (r *DefaultWithdrawalRepository) CreateWithdrawal(ctx context.Context, w *domain.WithdrawalRequest) error {
	return translate(r.db.WithContext(ctx).Create(mappers.ToGORMWithdrawal(w)).Error, "withdrawal "+w.ID)
}

func (r *DefaultWithdrawalRepository) GetWithdrawalByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	var model models.WithdrawalModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translate(err, "withdrawal "+id)
	}
	return mappers.ToDomainWithdrawal(&model), nil
}

func (r *DefaultWithdrawalRepository) ListWithdrawals(ctx context.Context, filter domain.WithdrawalFilter) ([]*domain.WithdrawalRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.WithdrawalModel{})
	if filter.IBID != "" {
		query = query.Where("ib_id = ?", filter.IBID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count withdrawals")
	}

	var rows []models.WithdrawalModel
	if err := query.Order("created_at DESC, id").
		Offset(offset(filter.Page, filter.Limit)).
		Limit(filter.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, translate(err, "list withdrawals")
	}
	out := make([]*domain.WithdrawalRequest, len(rows))
	for i := range rows {
		out[i] = mappers.ToDomainWithdrawal(&rows[i])
	}
	return out, total, nil
}

// ApproveWithdrawal locks the withdrawal then the IB's account. A failed
// debit rolls the whole transaction back.
func (r *DefaultWithdrawalRepository) ApproveWithdrawal(ctx context.Context, id string, d *domain.Distribution, at time.Time) (*domain.WithdrawalRequest, error) {
	var approved *domain.WithdrawalRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := lockWithdrawal(tx, id)
		if err != nil {
			return err
		}
		if err := w.Approve(d.ID, at); err != nil {
			return err
		}

		dist := *d
		dist.IBID = w.IBID
		dist.Amount = w.Amount
		dist.WithdrawalID = w.ID
		if err := distribute(tx, &dist); err != nil {
			return err
		}

		if err := tx.Save(mappers.ToGORMWithdrawal(w)).Error; err != nil {
			return translate(err, "withdrawal "+id)
		}
		approved = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

func (r *DefaultWithdrawalRepository) RejectWithdrawal(ctx context.Context, id, reason string, at time.Time) (*domain.WithdrawalRequest, error) {
	var rejected *domain.WithdrawalRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := lockWithdrawal(tx, id)
		if err != nil {
			return err
		}
		if err := w.Reject(reason, at); err != nil {
			return err
		}
		if err := tx.Save(mappers.ToGORMWithdrawal(w)).Error; err != nil {
			return translate(err, "withdrawal "+id)
		}
		rejected = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

func lockWithdrawal(tx *gorm.DB, id string) (*domain.WithdrawalRequest, error) {
	var model models.WithdrawalModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translate(err, "withdrawal "+id)
	}
	return mappers.ToDomainWithdrawal(&model), nil
}
