package repository

import (
	"context"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultClientReferralRepository struct {
	db *gorm.DB
}

func NewDefaultClientReferralRepository(db *gorm.DB) *DefaultClientReferralRepository {
	return &DefaultClientReferralRepository{db: db}
}

func (r *DefaultClientReferralRepository) CreateClientReferral(ctx context.Context, ref *domain.ClientReferral) error {
	return translate(r.db.WithContext(ctx).Create(mappers.ToGORMClientReferral(ref)).Error, "referral of client "+ref.ClientUserID)
}

func (r *DefaultClientReferralRepository) GetClientReferral(ctx context.Context, clientUserID string) (*domain.ClientReferral, error) {
	var model models.ClientReferralModel
	if err := r.db.WithContext(ctx).Where("client_user_id = ?", clientUserID).First(&model).Error; err != nil {
		return nil, translate(err, "referral of client "+clientUserID)
	}
	return mappers.ToDomainClientReferral(&model), nil
}

func (r *DefaultClientReferralRepository) ListClientsByIB(ctx context.Context, ibID string) ([]*domain.ClientReferral, error) {
	var rows []models.ClientReferralModel
	if err := r.db.WithContext(ctx).Where("ib_id = ?", ibID).Order("client_user_id").Find(&rows).Error; err != nil {
		return nil, translate(err, "clients of ib "+ibID)
	}
	out := make([]*domain.ClientReferral, len(rows))
	for i := range rows {
		out[i] = mappers.ToDomainClientReferral(&rows[i])
	}
	return out, nil
}
