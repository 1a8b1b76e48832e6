package repository

import (
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// referralGraphLock is the advisory lock key serializing referral graph
// mutations across service instances.
const referralGraphLock int64 = 0x1B_9A4F

const reconcileJobLock int64 = 0x1B_9A50

func lockReferralGraph(tx *gorm.DB) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(?)", referralGraphLock).Error
}

// translate maps driver errors onto domain errors. The DB must be opened
// with TranslateError enabled for duplicate keys to be recognized.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s already exists", domain.ErrConflict, what)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

func lockAccount(tx *gorm.DB, ibID string) (*models.IBCommissionAccountModel, error) {
	var account models.IBCommissionAccountModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("ib_id = ?", ibID).
		First(&account).Error
	if err != nil {
		return nil, translate(err, "commission account of ib "+ibID)
	}
	return &account, nil
}

func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
