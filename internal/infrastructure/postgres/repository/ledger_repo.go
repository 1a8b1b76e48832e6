package repository

import (
	"context"
	"sort"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultCommissionLedger struct {
	db *gorm.DB
}

func NewDefaultCommissionLedger(db *gorm.DB) *DefaultCommissionLedger {
	return &DefaultCommissionLedger{db: db}
}

// RecordEntries claims each trade in the batch through its recorded_trades
// row, then locks every beneficiary account in id order, inserts the entries
// of newly claimed trades and credits the accounts in one transaction.
func (r *DefaultCommissionLedger) RecordEntries(ctx context.Context, entries []*domain.CommissionLedgerEntry) ([]*domain.CommissionLedgerEntry, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	var inserted []*domain.CommissionLedgerEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		claimed, err := claimTrades(tx, entries, now)
		if err != nil {
			return err
		}

		var fresh []*domain.CommissionLedgerEntry
		ibIDs := make([]string, 0, len(entries))
		seen := make(map[string]struct{}, len(entries))
		for _, e := range entries {
			if !claimed[e.TradeID] {
				continue
			}
			fresh = append(fresh, e)
			if _, ok := seen[e.IBID]; !ok {
				seen[e.IBID] = struct{}{}
				ibIDs = append(ibIDs, e.IBID)
			}
		}
		if len(fresh) == 0 {
			return nil
		}
		sort.Strings(ibIDs)

		accounts := make(map[string]*domain.IBCommissionAccount, len(ibIDs))
		for _, ibID := range ibIDs {
			ensure := mappers.ToGORMAccount(domain.NewIBCommissionAccount(ibID, now))
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(ensure).Error; err != nil {
				return translate(err, "commission account of ib "+ibID)
			}
			model, err := lockAccount(tx, ibID)
			if err != nil {
				return err
			}
			accounts[ibID] = mappers.ToDomainAccount(model)
		}

		credited := make(map[string]bool, len(ibIDs))
		for _, e := range fresh {
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "idempotency_key"}},
				DoNothing: true,
			}).Create(mappers.ToGORMLedgerEntry(e))
			if res.Error != nil {
				return translate(res.Error, "ledger entry "+e.IdempotencyKey)
			}
			if res.RowsAffected == 0 {
				continue
			}
			accounts[e.IBID].Credit(e, now)
			credited[e.IBID] = true
			inserted = append(inserted, e)
		}

		for _, ibID := range ibIDs {
			if !credited[ibID] {
				continue
			}
			if err := saveAccount(tx, accounts[ibID]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

// claimTrades inserts one recorded_trades row per trade in the batch. A
// concurrent claim of the same trade waits on the primary key and then finds
// the row, so only one transaction ever credits a trade.
func claimTrades(tx *gorm.DB, entries []*domain.CommissionLedgerEntry, at time.Time) (map[string]bool, error) {
	tradeIDs := make([]string, 0, 1)
	seen := make(map[string]struct{}, 1)
	for _, e := range entries {
		if _, ok := seen[e.TradeID]; !ok {
			seen[e.TradeID] = struct{}{}
			tradeIDs = append(tradeIDs, e.TradeID)
		}
	}
	sort.Strings(tradeIDs)

	claimed := make(map[string]bool, len(tradeIDs))
	for _, tradeID := range tradeIDs {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.RecordedTradeModel{TradeID: tradeID, CreatedAt: at})
		if res.Error != nil {
			return nil, translate(res.Error, "recorded trade "+tradeID)
		}
		claimed[tradeID] = res.RowsAffected == 1
	}
	return claimed, nil
}

func saveAccount(tx *gorm.DB, a *domain.IBCommissionAccount) error {
	err := tx.Model(&models.IBCommissionAccountModel{}).
		Where("ib_id = ?", a.IBID).
		Updates(map[string]interface{}{
			"total_commission":       a.TotalCommission,
			"direct_commission":      a.DirectCommission,
			"residual_commission":    a.ResidualCommission,
			"distributed_commission": a.DistributedCommission,
			"updated_at":             a.UpdatedAt,
		}).Error
	return translate(err, "commission account of ib "+a.IBID)
}

func (r *DefaultCommissionLedger) Distribute(ctx context.Context, d *domain.Distribution) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return distribute(tx, d)
	})
}

// distribute debits the locked account and records d inside tx.
func distribute(tx *gorm.DB, d *domain.Distribution) error {
	model, err := lockAccount(tx, d.IBID)
	if err != nil {
		return err
	}
	account := mappers.ToDomainAccount(model)
	if err := account.Debit(d.Amount, d.CreatedAt); err != nil {
		return err
	}
	if err := saveAccount(tx, account); err != nil {
		return err
	}
	return translate(tx.Create(mappers.ToGORMDistribution(d)).Error, "distribution "+d.ID)
}

func (r *DefaultCommissionLedger) GetAccount(ctx context.Context, ibID string) (*domain.IBCommissionAccount, error) {
	var model models.IBCommissionAccountModel
	if err := r.db.WithContext(ctx).Where("ib_id = ?", ibID).First(&model).Error; err != nil {
		return nil, translate(err, "commission account of ib "+ibID)
	}
	return mappers.ToDomainAccount(&model), nil
}

func (r *DefaultCommissionLedger) ListAccountIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.IBCommissionAccountModel{}).
		Order("ib_id").
		Pluck("ib_id", &ids).Error
	return ids, translate(err, "commission accounts")
}

func (r *DefaultCommissionLedger) GetLevelTotals(ctx context.Context, ibID string) ([]domain.LevelTotal, error) {
	var rows []models.LevelTotalRow
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Select("kind, level, SUM(amount) AS amount, COUNT(DISTINCT trade_id) AS trades").
		Where("ib_id = ?", ibID).
		Group("kind, level").
		Order("kind, level").
		Scan(&rows).Error; err != nil {
		return nil, translate(err, "level totals of ib "+ibID)
	}
	out := make([]domain.LevelTotal, len(rows))
	for i, row := range rows {
		out[i] = domain.LevelTotal{
			Kind:   domain.CommissionKind(row.Kind),
			Level:  row.Level,
			Amount: row.Amount,
			Trades: row.Trades,
		}
	}
	return out, nil
}

func (r *DefaultCommissionLedger) GetEntriesByTradeID(ctx context.Context, tradeID string) ([]*domain.CommissionLedgerEntry, error) {
	var rows []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).Where("trade_id = ?", tradeID).Order("level, kind").Find(&rows).Error; err != nil {
		return nil, translate(err, "entries of trade "+tradeID)
	}
	out := make([]*domain.CommissionLedgerEntry, len(rows))
	for i := range rows {
		out[i] = mappers.ToDomainLedgerEntry(&rows[i])
	}
	return out, nil
}

func (r *DefaultCommissionLedger) ListEntries(ctx context.Context, filter domain.LedgerFilter) ([]*domain.CommissionLedgerEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{})
	if filter.IBID != "" {
		query = query.Where("ib_id = ?", filter.IBID)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", string(filter.Kind))
	}
	if !filter.DateFrom.IsZero() {
		query = query.Where("trade_time >= ?", filter.DateFrom)
	}
	if !filter.DateTo.IsZero() {
		query = query.Where("trade_time <= ?", filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count ledger entries")
	}

	var rows []models.LedgerEntryModel
	if err := query.Order("created_at DESC, id").
		Offset(offset(filter.Page, filter.Limit)).
		Limit(filter.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, translate(err, "list ledger entries")
	}
	out := make([]*domain.CommissionLedgerEntry, len(rows))
	for i := range rows {
		out[i] = mappers.ToDomainLedgerEntry(&rows[i])
	}
	return out, total, nil
}

func (r *DefaultCommissionLedger) ListDistributions(ctx context.Context, ibID string, page, limit int) ([]*domain.Distribution, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DistributionModel{})
	if ibID != "" {
		query = query.Where("ib_id = ?", ibID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count distributions")
	}

	var rows []models.DistributionModel
	if err := query.Order("created_at DESC, id").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, translate(err, "list distributions")
	}
	out := make([]*domain.Distribution, len(rows))
	for i := range rows {
		out[i] = mappers.ToDomainDistribution(&rows[i])
	}
	return out, total, nil
}

func (r *DefaultCommissionLedger) ReconcileAccount(ctx context.Context, ibID string) (*domain.AccountReconciliation, error) {
	var res *domain.AccountReconciliation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := lockAccount(tx, ibID)
		if err != nil {
			return err
		}
		before := mappers.ToDomainAccount(model)

		var sums models.AccountSumsRow
		if err := tx.Model(&models.LedgerEntryModel{}).
			Select(
				"COALESCE(SUM(amount), 0) AS total, "+
					"COALESCE(SUM(CASE WHEN kind = ? THEN amount END), 0) AS direct, "+
					"COALESCE(SUM(CASE WHEN kind = ? THEN amount END), 0) AS residual",
				string(domain.CommissionDirect), string(domain.CommissionResidual),
			).
			Where("ib_id = ?", ibID).
			Scan(&sums).Error; err != nil {
			return translate(err, "ledger sums of ib "+ibID)
		}

		var distributed decimal.Decimal
		if err := tx.Model(&models.DistributionModel{}).
			Select("COALESCE(SUM(amount), 0)").
			Where("ib_id = ?", ibID).
			Scan(&distributed).Error; err != nil {
			return translate(err, "distribution sum of ib "+ibID)
		}

		after := *before
		after.TotalCommission = sums.Total
		after.DirectCommission = sums.Direct
		after.ResidualCommission = sums.Residual
		after.DistributedCommission = distributed

		res = &domain.AccountReconciliation{IBID: ibID, Before: *before, After: after}
		if before.TotalCommission.Equal(after.TotalCommission) &&
			before.DirectCommission.Equal(after.DirectCommission) &&
			before.ResidualCommission.Equal(after.ResidualCommission) &&
			before.DistributedCommission.Equal(after.DistributedCommission) {
			return nil
		}

		after.UpdatedAt = time.Now()
		res.After = after
		res.Repaired = true
		return saveAccount(tx, &after)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
