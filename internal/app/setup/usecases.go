package setup

import (
	"fmt"

	"github.com/LavaJover/shvark-ib-service/internal/config"
	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-ib-service/internal/usecase/catalog"
	"github.com/LavaJover/shvark-ib-service/internal/usecase/commission"
	"github.com/LavaJover/shvark-ib-service/internal/usecase/ibrequest"
	"github.com/LavaJover/shvark-ib-service/internal/usecase/plan"
	"github.com/LavaJover/shvark-ib-service/internal/usecase/reconcile"
	"github.com/LavaJover/shvark-ib-service/internal/usecase/referral"
	"github.com/LavaJover/shvark-ib-service/internal/usecase/withdrawal"
)

type UseCases struct {
	IBRequestUsecase  ibrequest.IBRequestUsecase
	GraphUsecase      referral.GraphUsecase
	ClientUsecase     referral.ClientUsecase
	CommissionUsecase commission.CommissionUsecase
	WithdrawalUsecase withdrawal.WithdrawalUsecase
	PlanUsecase       plan.PlanUsecase
	CatalogUsecase    catalog.CatalogUsecase
	ReconcileUsecase  reconcile.ReconcileUsecase
}

func InitializeUseCases(
	repos *Repositories,
	events domain.EventPublisher,
	ibMetrics *metrics.IBMetrics,
	commissionCfg config.Commission,
	reconcileCfg config.Reconcile,
) (*UseCases, error) {
	graphUsecase := referral.NewDefaultGraphUsecase(repos.IBRequestRepo, commissionCfg.MaxResidualLevels, commissionCfg.MaxTreeDepth, ibMetrics)

	planUsecase, err := plan.NewDefaultPlanUsecase(repos.PlanRepo, repos.IBRequestRepo, repos.GroupCatalog)
	if err != nil {
		return nil, fmt.Errorf("plan usecase: %w", err)
	}

	return &UseCases{
		IBRequestUsecase: ibrequest.NewDefaultIBRequestUsecase(
			repos.IBRequestRepo,
			repos.PlanRepo,
			repos.GroupCatalog,
			graphUsecase,
			events,
			ibMetrics,
		),
		GraphUsecase:  graphUsecase,
		ClientUsecase: referral.NewDefaultClientUsecase(repos.ClientRepo, repos.IBRequestRepo, repos.PlanRepo, graphUsecase),
		CommissionUsecase: commission.NewDefaultCommissionUsecase(
			repos.Ledger,
			repos.IBRequestRepo,
			repos.ClientRepo,
			repos.PlanRepo,
			graphUsecase,
			ibMetrics,
			commissionCfg.MaxResidualLevels,
		),
		WithdrawalUsecase: withdrawal.NewDefaultWithdrawalUsecase(repos.WithdrawalRepo, repos.IBRequestRepo, events, ibMetrics),
		PlanUsecase:       planUsecase,
		CatalogUsecase:    catalog.NewDefaultCatalogUsecase(repos.GroupCatalog),
		ReconcileUsecase:  reconcile.NewDefaultReconcileUsecase(repos.Ledger, repos.JobRepo, ibMetrics, reconcileCfg.StaleAfter),
	}, nil
}
