package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
)

// CatalogUsecase maintains the trading groups rates can be assigned to.
type CatalogUsecase interface {
	UpsertGroups(ctx context.Context, groups []domain.TradingGroup) error
	ListGroups(ctx context.Context) ([]domain.TradingGroup, error)
}

type DefaultCatalogUsecase struct {
	catalog domain.GroupCatalog
	now     func() time.Time
}

func NewDefaultCatalogUsecase(catalog domain.GroupCatalog) *DefaultCatalogUsecase {
	return &DefaultCatalogUsecase{catalog: catalog, now: time.Now}
}

func (uc *DefaultCatalogUsecase) UpsertGroups(ctx context.Context, groups []domain.TradingGroup) error {
	if len(groups) == 0 {
		return fmt.Errorf("%w: no trading groups given", domain.ErrValidation)
	}

	now := uc.now()
	seen := make(map[string]struct{}, len(groups))
	normalized := make([]domain.TradingGroup, 0, len(groups))
	for _, g := range groups {
		id := strings.TrimSpace(g.ID)
		if id == "" {
			return fmt.Errorf("%w: trading group id is required", domain.ErrValidation)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: trading group %s listed twice", domain.ErrValidation, id)
		}
		seen[id] = struct{}{}

		name := strings.TrimSpace(g.Name)
		if name == "" {
			name = id
		}
		normalized = append(normalized, domain.TradingGroup{ID: id, Name: name, UpdatedAt: now})
	}

	if err := uc.catalog.UpsertGroups(ctx, normalized); err != nil {
		return err
	}
	slog.Info("trading groups upserted", "count", len(normalized))
	return nil
}

func (uc *DefaultCatalogUsecase) ListGroups(ctx context.Context) ([]domain.TradingGroup, error) {
	return uc.catalog.ListGroups(ctx)
}
