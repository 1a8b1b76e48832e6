package mappers

import (
	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres/models"
)

func ToDomainLedgerEntry(model *models.LedgerEntryModel) *domain.CommissionLedgerEntry {
	return &domain.CommissionLedgerEntry{
		ID:             model.ID,
		IdempotencyKey: model.IdempotencyKey,
		IBID:           model.IBID,
		TradeID:        model.TradeID,
		Kind:           domain.CommissionKind(model.Kind),
		Level:          model.Level,
		GroupID:        model.GroupID,
		Volume:         model.Volume,
		Rate:           model.Rate,
		Amount:         model.Amount,
		TradeTime:      model.TradeTime,
		CreatedAt:      model.CreatedAt,
	}
}

func ToGORMLedgerEntry(e *domain.CommissionLedgerEntry) *models.LedgerEntryModel {
	return &models.LedgerEntryModel{
		ID:             e.ID,
		IdempotencyKey: e.IdempotencyKey,
		IBID:           e.IBID,
		TradeID:        e.TradeID,
		Kind:           string(e.Kind),
		Level:          e.Level,
		GroupID:        e.GroupID,
		Volume:         e.Volume,
		Rate:           e.Rate,
		Amount:         e.Amount,
		TradeTime:      e.TradeTime,
		CreatedAt:      e.CreatedAt,
	}
}

func ToDomainAccount(model *models.IBCommissionAccountModel) *domain.IBCommissionAccount {
	return &domain.IBCommissionAccount{
		IBID:                  model.IBID,
		TotalCommission:       model.TotalCommission,
		DirectCommission:      model.DirectCommission,
		ResidualCommission:    model.ResidualCommission,
		DistributedCommission: model.DistributedCommission,
		CreatedAt:             model.CreatedAt,
		UpdatedAt:             model.UpdatedAt,
	}
}

func ToGORMAccount(a *domain.IBCommissionAccount) *models.IBCommissionAccountModel {
	return &models.IBCommissionAccountModel{
		IBID:                  a.IBID,
		TotalCommission:       a.TotalCommission,
		DirectCommission:      a.DirectCommission,
		ResidualCommission:    a.ResidualCommission,
		DistributedCommission: a.DistributedCommission,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}
}

func ToDomainDistribution(model *models.DistributionModel) *domain.Distribution {
	return &domain.Distribution{
		ID:           model.ID,
		IBID:         model.IBID,
		Amount:       model.Amount,
		Note:         model.Note,
		Source:       domain.DistributionSource(model.Source),
		WithdrawalID: model.WithdrawalID,
		CreatedAt:    model.CreatedAt,
	}
}

func ToGORMDistribution(d *domain.Distribution) *models.DistributionModel {
	return &models.DistributionModel{
		ID:           d.ID,
		IBID:         d.IBID,
		Amount:       d.Amount,
		Note:         d.Note,
		Source:       string(d.Source),
		WithdrawalID: d.WithdrawalID,
		CreatedAt:    d.CreatedAt,
	}
}
