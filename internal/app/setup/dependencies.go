package setup

import (
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-ib-service/internal/config"
	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config       *config.IBConfig
	DB           *gorm.DB
	Registry     *prometheus.Registry
	Metrics      *metrics.IBMetrics
	Events       domain.EventPublisher
	Subscriber   domain.SubscriberPort
	Repositories *Repositories

	closers []func() error
}

type Repositories struct {
	IBRequestRepo  domain.IBRequestRepository
	PlanRepo       domain.CommissionPlanRepository
	ClientRepo     domain.ClientReferralRepository
	GroupCatalog   domain.GroupCatalog
	Ledger         domain.CommissionLedger
	WithdrawalRepo domain.WithdrawalRepository
	JobRepo        domain.ReconcileJobRepository
}

// MemoryRepositories serves every repository from one in-process store.
func MemoryRepositories(store *memory.Store) *Repositories {
	return &Repositories{
		IBRequestRepo:  store,
		PlanRepo:       store,
		ClientRepo:     store,
		GroupCatalog:   store,
		Ledger:         store,
		WithdrawalRepo: store,
		JobRepo:        store,
	}
}

func PostgresRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		IBRequestRepo:  repository.NewDefaultIBRequestRepository(db),
		PlanRepo:       repository.NewDefaultCommissionPlanRepository(db),
		ClientRepo:     repository.NewDefaultClientReferralRepository(db),
		GroupCatalog:   repository.NewDefaultGroupCatalog(db),
		Ledger:         repository.NewDefaultCommissionLedger(db),
		WithdrawalRepo: repository.NewDefaultWithdrawalRepository(db),
		JobRepo:        repository.NewDefaultReconcileJobRepository(db),
	}
}

func InitializeDependencies(cfg *config.IBConfig) (*Dependencies, error) {
	deps := &Dependencies{
		Config:   cfg,
		Registry: prometheus.NewRegistry(),
	}
	deps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.Metrics = metrics.NewIBMetrics(deps.Registry)

	switch cfg.IBDB.Driver {
	case "memory":
		slog.Warn("using in-memory storage, data is lost on restart")
		deps.Repositories = MemoryRepositories(memory.NewStore())
	case "postgres":
		db := postgres.MustInitDB(cfg)
		if cfg.IBDB.MigrationsPath != "" {
			if err := migrate.RunMigrations(db, cfg.IBDB.MigrationsPath); err != nil {
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
		deps.DB = db
		deps.Repositories = PostgresRepositories(db)
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sql db: %w", err)
		}
		deps.closers = append(deps.closers, sqlDB.Close)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.IBDB.Driver)
	}

	if cfg.KafkaService.Enabled {
		brokers := cfg.KafkaService.Brokers()
		pub := kafka.NewDefaultKafkaPublisher(brokers)
		deps.Events = kafka.NewEventPublisher(pub, cfg.KafkaService.IBRequestTopic, cfg.KafkaService.WithdrawalTopic)
		deps.Subscriber = kafka.NewDefaultKafkaSubscriber(brokers)
		deps.closers = append(deps.closers, pub.Close)
	} else {
		deps.Events = kafka.NoopEventPublisher{}
	}

	return deps, nil
}

// Close releases the database pool and the kafka writers.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			slog.Error("close dependency", "error", err.Error())
		}
	}
}
