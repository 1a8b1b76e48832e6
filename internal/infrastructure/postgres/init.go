package postgres

import (
	"log"

	"github.com/LavaJover/shvark-ib-service/internal/config"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// MustInitDB opens the database. Without a migrations path the schema is
// created with AutoMigrate.
func MustInitDB(cfg *config.IBConfig) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.IBDB.Dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	if cfg.IBDB.MigrationsPath == "" {
		if err := db.AutoMigrate(
			&models.IBRequestModel{},
			&models.GroupPipRateModel{},
			&models.TradingGroupModel{},
			&models.ClientReferralModel{},
			&models.CommissionPlanModel{},
			&models.CommissionPlanRateModel{},
			&models.LedgerEntryModel{},
			&models.RecordedTradeModel{},
			&models.IBCommissionAccountModel{},
			&models.DistributionModel{},
			&models.WithdrawalModel{},
			&models.ReconcileJobModel{},
		); err != nil {
			log.Fatalf("failed to migrate db: %v\n", err.Error())
		}
	}

	return db
}
