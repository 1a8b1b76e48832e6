package repository

import (
	"context"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultGroupCatalog struct {
	db *gorm.DB
}

func NewDefaultGroupCatalog(db *gorm.DB) *DefaultGroupCatalog {
	return &DefaultGroupCatalog{db: db}
}

func (r *DefaultGroupCatalog) UpsertGroups(ctx context.Context, groups []domain.TradingGroup) error {
	if len(groups) == 0 {
		return nil
	}
	rows := make([]models.TradingGroupModel, len(groups))
	for i, g := range groups {
		rows[i] = models.TradingGroupModel{ID: g.ID, Name: g.Name, UpdatedAt: g.UpdatedAt}
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(&rows).Error
	return translate(err, "trading groups")
}

func (r *DefaultGroupCatalog) ListGroups(ctx context.Context) ([]domain.TradingGroup, error) {
	var rows []models.TradingGroupModel
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, translate(err, "trading groups")
	}
	out := make([]domain.TradingGroup, len(rows))
	for i, row := range rows {
		out[i] = domain.TradingGroup{ID: row.ID, Name: row.Name, UpdatedAt: row.UpdatedAt}
	}
	return out, nil
}

func (r *DefaultGroupCatalog) MissingGroups(ctx context.Context, groupIDs []string) ([]string, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	var found []string
	if err := r.db.WithContext(ctx).
		Model(&models.TradingGroupModel{}).
		Where("id IN ?", groupIDs).
		Pluck("id", &found).Error; err != nil {
		return nil, translate(err, "trading groups")
	}

	known := make(map[string]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}
	var missing []string
	for _, id := range groupIDs {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
