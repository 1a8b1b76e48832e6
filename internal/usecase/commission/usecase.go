package commission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/metrics"
	commissiondto "github.com/LavaJover/shvark-ib-service/internal/usecase/dto/commission"
	"github.com/LavaJover/shvark-ib-service/internal/usecase/referral"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CommissionUsecase interface {
	ProcessTrade(ctx context.Context, event domain.TradeVolumeEvent) (*commissiondto.ProcessTradeOutput, error)
	Distribute(ctx context.Context, input *commissiondto.DistributeInput) (*domain.Distribution, error)
	GetSummary(ctx context.Context, ibID string) (*domain.CommissionSummary, error)
	GetTradeBreakdown(ctx context.Context, tradeID string) ([]*domain.CommissionLedgerEntry, error)
	ListEntries(ctx context.Context, filter domain.LedgerFilter) (*commissiondto.ListEntriesOutput, error)
	ListDistributions(ctx context.Context, ibID string, page, limit int) (*commissiondto.ListDistributionsOutput, error)
}

type DefaultCommissionUsecase struct {
	ledger     domain.CommissionLedger
	ibRepo     domain.IBRequestRepository
	clientRepo domain.ClientReferralRepository
	planRepo   domain.CommissionPlanRepository
	graph      referral.GraphUsecase
	metrics    *metrics.IBMetrics
	maxLevels  int
	now        func() time.Time
}

func NewDefaultCommissionUsecase(
	ledger domain.CommissionLedger,
	ibRepo domain.IBRequestRepository,
	clientRepo domain.ClientReferralRepository,
	planRepo domain.CommissionPlanRepository,
	graph referral.GraphUsecase,
	ibMetrics *metrics.IBMetrics,
	maxLevels int,
) *DefaultCommissionUsecase {
	if maxLevels <= 0 {
		maxLevels = DefaultMaxResidualLevels
	}
	return &DefaultCommissionUsecase{
		ledger:     ledger,
		ibRepo:     ibRepo,
		clientRepo: clientRepo,
		planRepo:   planRepo,
		graph:      graph,
		metrics:    ibMetrics,
		maxLevels:  maxLevels,
		now:        time.Now,
	}
}

// ProcessTrade calculates the commission of one trade and records it. It is
// safe to call again for the same trade: already recorded entries are skipped.
func (uc *DefaultCommissionUsecase) ProcessTrade(ctx context.Context, event domain.TradeVolumeEvent) (*commissiondto.ProcessTradeOutput, error) {
	started := time.Now()

	if err := validateTrade(event); err != nil {
		uc.metrics.RecordTrade("invalid", started)
		return nil, err
	}

	out := &commissiondto.ProcessTradeOutput{TradeID: event.TradeID, Total: decimal.Zero}

	calc, ok, err := uc.buildCalculation(ctx, event)
	if err != nil {
		uc.metrics.RecordTrade("error", started)
		return nil, err
	}
	if !ok {
		out.Outcome = commissiondto.TradeNoDirectIB
		uc.metrics.RecordTrade(string(out.Outcome), started)
		return out, nil
	}
	out.DirectIB = calc.Direct.IBID

	entries := Calculate(*calc)
	if len(entries) == 0 {
		out.Outcome = commissiondto.TradeNoRate
		uc.metrics.RecordTrade(string(out.Outcome), started)
		return out, nil
	}

	now := uc.now()
	for _, e := range entries {
		e.ID = uuid.NewString()
		e.CreatedAt = now
	}

	inserted, err := uc.ledger.RecordEntries(ctx, entries)
	if err != nil {
		uc.metrics.RecordTrade("error", started)
		return nil, fmt.Errorf("record commission for trade %s: %w", event.TradeID, err)
	}

	out.Entries = inserted
	out.Inserted = len(inserted)
	out.Total = Total(inserted)
	out.Outcome = commissiondto.TradeRecorded
	if len(inserted) == 0 {
		out.Outcome = commissiondto.TradeDuplicate
	}

	uc.metrics.RecordDuplicateEntries(len(entries) - len(inserted))
	for _, e := range inserted {
		uc.metrics.RecordLedgerEntry(string(e.Kind), e.Amount)
	}
	uc.metrics.RecordTrade(string(out.Outcome), started)

	slog.Info("trade commission processed",
		"trade_id", event.TradeID,
		"direct_ib", out.DirectIB,
		"entries", len(entries),
		"inserted", out.Inserted,
		"total", out.Total.String(),
	)
	return out, nil
}

func validateTrade(event domain.TradeVolumeEvent) error {
	switch {
	case event.TradeID == "":
		return fmt.Errorf("%w: trade id is required", domain.ErrValidation)
	case event.ClientUserID == "":
		return fmt.Errorf("%w: trade %s has no owning user", domain.ErrValidation, event.TradeID)
	case event.GroupID == "":
		return fmt.Errorf("%w: trade %s has no trading group", domain.ErrValidation, event.TradeID)
	case !event.Volume.IsPositive():
		return fmt.Errorf("%w: trade %s volume must be positive", domain.ErrValidation, event.TradeID)
	}
	return nil
}

// buildCalculation gathers the trading IB, its ancestors, their rates for the
// trade's group and the plan that applies. ok is false when the trade's owner
// has no approved direct IB.
func (uc *DefaultCommissionUsecase) buildCalculation(ctx context.Context, event domain.TradeVolumeEvent) (*Calculation, bool, error) {
	client, err := uc.clientRepo.GetClientReferral(ctx, event.ClientUserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	direct, err := uc.ibRepo.GetIBRequestByID(ctx, client.IBID)
	if errors.Is(err, domain.ErrNotFound) {
		slog.Warn("client referred by unknown ib", "client_user_id", client.ClientUserID, "ib_id", client.IBID)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !direct.IsApprovedIB() {
		return nil, false, nil
	}

	ancestors, err := uc.graph.AncestorsOf(ctx, direct.ID)
	if err != nil {
		return nil, false, err
	}
	if len(ancestors) > uc.maxLevels {
		ancestors = ancestors[:uc.maxLevels]
	}

	ids := make([]string, 0, len(ancestors)+1)
	ids = append(ids, direct.ID)
	for _, a := range ancestors {
		ids = append(ids, a.ID)
	}

	rates, err := uc.ibRepo.GetGroupRatesFor(ctx, ids, event.GroupID)
	if err != nil {
		return nil, false, err
	}

	calc := &Calculation{
		Trade:     event,
		Direct:    chainMember(direct.ID, event.GroupID, rates),
		MaxLevels: uc.maxLevels,
	}
	for _, a := range ancestors {
		calc.Ancestors = append(calc.Ancestors, chainMember(a.ID, event.GroupID, rates))
	}

	plan, err := uc.applicablePlan(ctx, client, direct, ids)
	if err != nil {
		return nil, false, err
	}
	calc.Plan = plan

	return calc, true, nil
}

func chainMember(ibID, groupID string, rates map[string]domain.GroupPipRate) ChainMember {
	member := ChainMember{IBID: ibID, Rates: RateTable{}}
	if r, ok := rates[ibID]; ok {
		member.Rates[groupID] = r.Rate
	}
	return member
}

// applicablePlan picks the plan the chain was established through: the
// client's referral link first, then the trading IB's own. A plan whose owner
// is not in the chain is ignored.
func (uc *DefaultCommissionUsecase) applicablePlan(ctx context.Context, client *domain.ClientReferral, direct *domain.IBRequest, chain []string) (*domain.CommissionPlan, error) {
	planID := client.PlanID
	if planID == "" {
		planID = direct.JoinedPlanID
	}
	if planID == "" {
		return nil, nil
	}

	plan, err := uc.planRepo.GetPlanByID(ctx, planID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	for _, id := range chain {
		if id == plan.OwnerIBID {
			return plan, nil
		}
	}
	slog.Warn("plan owner outside referral chain, plan ignored", "plan_id", plan.ID, "direct_ib", direct.ID)
	return nil, nil
}

func (uc *DefaultCommissionUsecase) Distribute(ctx context.Context, input *commissiondto.DistributeInput) (*domain.Distribution, error) {
	if input.IBID == "" {
		return nil, fmt.Errorf("%w: ib id is required", domain.ErrValidation)
	}
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: distribution amount must be positive", domain.ErrValidation)
	}

	d := &domain.Distribution{
		ID:        uuid.NewString(),
		IBID:      input.IBID,
		Amount:    input.Amount,
		Note:      input.Note,
		Source:    domain.DistributionManual,
		CreatedAt: uc.now(),
	}

	if err := uc.ledger.Distribute(ctx, d); err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) {
			uc.metrics.RecordDistribution(string(d.Source), "insufficient_balance", d.Amount)
		}
		return nil, err
	}

	uc.metrics.RecordDistribution(string(d.Source), "ok", d.Amount)
	slog.Info("commission distributed", "ib_id", d.IBID, "amount", d.Amount.String(), "distribution_id", d.ID)
	return d, nil
}

func (uc *DefaultCommissionUsecase) GetSummary(ctx context.Context, ibID string) (*domain.CommissionSummary, error) {
	account, err := uc.ledger.GetAccount(ctx, ibID)
	if err != nil {
		return nil, err
	}

	levels, err := uc.ledger.GetLevelTotals(ctx, ibID)
	if err != nil {
		return nil, err
	}

	return &domain.CommissionSummary{
		IBID:                  account.IBID,
		TotalCommission:       account.TotalCommission,
		DistributedCommission: account.DistributedCommission,
		AvailableBalance:      account.AvailableBalance(),
		DirectCommission:      account.DirectCommission,
		ResidualCommission:    account.ResidualCommission,
		Levels:                levels,
	}, nil
}

func (uc *DefaultCommissionUsecase) GetTradeBreakdown(ctx context.Context, tradeID string) ([]*domain.CommissionLedgerEntry, error) {
	if tradeID == "" {
		return nil, fmt.Errorf("%w: trade id is required", domain.ErrValidation)
	}
	return uc.ledger.GetEntriesByTradeID(ctx, tradeID)
}

func (uc *DefaultCommissionUsecase) ListEntries(ctx context.Context, filter domain.LedgerFilter) (*commissiondto.ListEntriesOutput, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)

	entries, total, err := uc.ledger.ListEntries(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &commissiondto.ListEntriesOutput{
		Entries: entries,
		Total:   total,
		Page:    filter.Page,
		Limit:   filter.Limit,
	}, nil
}

func (uc *DefaultCommissionUsecase) ListDistributions(ctx context.Context, ibID string, page, limit int) (*commissiondto.ListDistributionsOutput, error) {
	page, limit = normalizePage(page, limit)

	distributions, total, err := uc.ledger.ListDistributions(ctx, ibID, page, limit)
	if err != nil {
		return nil, err
	}
	return &commissiondto.ListDistributionsOutput{
		Distributions: distributions,
		Total:         total,
		Page:          page,
		Limit:         limit,
	}, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return page, limit
}
