package ibrequest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/metrics"
	ibrequestdto "github.com/LavaJover/shvark-ib-service/internal/usecase/dto/ibrequest"
	"github.com/LavaJover/shvark-ib-service/internal/usecase/referral"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type IBRequestUsecase interface {
	SubmitIBRequest(ctx context.Context, input *ibrequestdto.SubmitIBRequestInput) (*domain.IBRequest, error)
	ApproveIBRequest(ctx context.Context, input *ibrequestdto.ApproveIBRequestInput) (*domain.IBRequest, error)
	RejectIBRequest(ctx context.Context, input *ibrequestdto.RejectIBRequestInput) (*domain.IBRequest, error)
	ChangeIBType(ctx context.Context, input *ibrequestdto.ChangeIBTypeInput) (*domain.IBRequest, error)
	SetBanned(ctx context.Context, input *ibrequestdto.SetBannedInput) (*domain.IBRequest, error)
	SetGroupRates(ctx context.Context, input *ibrequestdto.SetGroupRatesInput) ([]domain.GroupPipRate, error)

	GetIBRequest(ctx context.Context, id string) (*domain.IBRequest, error)
	ListIBRequests(ctx context.Context, filter domain.IBRequestFilter) (*ibrequestdto.ListIBRequestsOutput, error)
	GetGroupRates(ctx context.Context, ibID string) ([]domain.GroupPipRate, error)
}

type DefaultIBRequestUsecase struct {
	ibRepo    domain.IBRequestRepository
	planRepo  domain.CommissionPlanRepository
	catalog   domain.GroupCatalog
	graph     referral.GraphUsecase
	publisher domain.EventPublisher
	metrics   *metrics.IBMetrics
	now       func() time.Time
}

func NewDefaultIBRequestUsecase(
	ibRepo domain.IBRequestRepository,
	planRepo domain.CommissionPlanRepository,
	catalog domain.GroupCatalog,
	graph referral.GraphUsecase,
	publisher domain.EventPublisher,
	ibMetrics *metrics.IBMetrics,
) *DefaultIBRequestUsecase {
	return &DefaultIBRequestUsecase{
		ibRepo:    ibRepo,
		planRepo:  planRepo,
		catalog:   catalog,
		graph:     graph,
		publisher: publisher,
		metrics:   ibMetrics,
		now:       time.Now,
	}
}

func (uc *DefaultIBRequestUsecase) SubmitIBRequest(ctx context.Context, input *ibrequestdto.SubmitIBRequestInput) (*domain.IBRequest, error) {
	if input.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}

	now := uc.now()
	req := &domain.IBRequest{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		Status:    domain.IBRequestPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if input.PlanLinkToken != "" {
		plan, err := uc.planRepo.GetPlanByLinkToken(ctx, input.PlanLinkToken)
		if err != nil {
			return nil, fmt.Errorf("plan link: %w", err)
		}
		req.JoinedPlanID = plan.ID
	}

	if err := uc.ibRepo.CreateIBRequest(ctx, req); err != nil {
		return nil, err
	}

	uc.metrics.RecordIBRequest("submitted")
	slog.Info("ib request submitted", "ib_id", req.ID, "user_id", req.UserID)
	uc.publish(req, "submitted", "")
	return req, nil
}

func (uc *DefaultIBRequestUsecase) ApproveIBRequest(ctx context.Context, input *ibrequestdto.ApproveIBRequestInput) (*domain.IBRequest, error) {
	if input.RequestID == "" {
		return nil, fmt.Errorf("%w: request id is required", domain.ErrValidation)
	}
	if !input.IBType.Valid() {
		return nil, fmt.Errorf("%w: ib type must be %s or %s", domain.ErrValidation, domain.IBTypeMaster, domain.IBTypeSubIB)
	}
	if input.IBType == domain.IBTypeSubIB && input.ReferrerID == "" {
		return nil, fmt.Errorf("%w: referrer is required for a sub-ib", domain.ErrValidation)
	}
	if !input.PlanType.Valid() {
		return nil, fmt.Errorf("%w: unknown plan type %q", domain.ErrValidation, input.PlanType)
	}

	now := uc.now()
	rates, err := uc.buildGroupRates(ctx, input.RequestID, input.GroupRates, now)
	if err != nil {
		return nil, err
	}

	approval := domain.IBApproval{
		IBType:                  input.IBType,
		GroupRates:              rates,
		PlanType:                input.PlanType,
		ShowCommissionStructure: input.ShowCommissionStructure,
	}

	var check domain.ReferralCheck
	if input.IBType == domain.IBTypeSubIB {
		approval.ReferrerID = input.ReferrerID
		check = uc.graph.CheckAssignment(input.RequestID, input.ReferrerID)
	}

	req, err := uc.ibRepo.ApproveIBRequest(ctx, input.RequestID, approval, now, check)
	if err != nil {
		return nil, err
	}

	uc.metrics.RecordIBRequest("approved")
	slog.Info("ib request approved",
		"ib_id", req.ID,
		"ib_type", req.IBType,
		"referrer_id", req.ReferrerID,
		"groups", len(rates),
	)
	uc.publish(req, "approved", "")
	return req, nil
}

func (uc *DefaultIBRequestUsecase) RejectIBRequest(ctx context.Context, input *ibrequestdto.RejectIBRequestInput) (*domain.IBRequest, error) {
	if input.RequestID == "" {
		return nil, fmt.Errorf("%w: request id is required", domain.ErrValidation)
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", domain.ErrValidation)
	}

	req, err := uc.ibRepo.RejectIBRequest(ctx, input.RequestID, reason, uc.now())
	if err != nil {
		return nil, err
	}

	uc.metrics.RecordIBRequest("rejected")
	slog.Info("ib request rejected", "ib_id", req.ID, "reason", reason)
	uc.publish(req, "rejected", reason)
	return req, nil
}

func (uc *DefaultIBRequestUsecase) ChangeIBType(ctx context.Context, input *ibrequestdto.ChangeIBTypeInput) (*domain.IBRequest, error) {
	if input.RequestID == "" {
		return nil, fmt.Errorf("%w: request id is required", domain.ErrValidation)
	}
	if !input.IBType.Valid() {
		return nil, fmt.Errorf("%w: ib type must be %s or %s", domain.ErrValidation, domain.IBTypeMaster, domain.IBTypeSubIB)
	}

	var check domain.ReferralCheck
	referrerID := ""
	if input.IBType == domain.IBTypeSubIB {
		if input.ReferrerID == "" {
			return nil, fmt.Errorf("%w: referrer is required for a sub-ib", domain.ErrValidation)
		}
		referrerID = input.ReferrerID
		check = uc.graph.CheckAssignment(input.RequestID, referrerID)
	}

	req, err := uc.ibRepo.ChangeIBType(ctx, input.RequestID, input.IBType, referrerID, uc.now(), check)
	if err != nil {
		return nil, err
	}

	uc.metrics.RecordIBRequest("type_changed")
	slog.Info("ib type changed", "ib_id", req.ID, "ib_type", req.IBType, "referrer_id", req.ReferrerID)
	uc.publish(req, "type_changed", "")
	return req, nil
}

func (uc *DefaultIBRequestUsecase) SetBanned(ctx context.Context, input *ibrequestdto.SetBannedInput) (*domain.IBRequest, error) {
	if input.RequestID == "" {
		return nil, fmt.Errorf("%w: request id is required", domain.ErrValidation)
	}

	req, err := uc.ibRepo.SetIBBanned(ctx, input.RequestID, input.Banned, uc.now())
	if err != nil {
		return nil, err
	}

	action := "unbanned"
	if req.IsBanned {
		action = "banned"
	}
	uc.metrics.RecordIBRequest(action)
	slog.Info("ib ban toggled", "ib_id", req.ID, "is_banned", req.IsBanned)
	uc.publish(req, action, "")
	return req, nil
}

func (uc *DefaultIBRequestUsecase) SetGroupRates(ctx context.Context, input *ibrequestdto.SetGroupRatesInput) ([]domain.GroupPipRate, error) {
	if input.IBID == "" {
		return nil, fmt.Errorf("%w: ib id is required", domain.ErrValidation)
	}

	rates, err := uc.buildGroupRates(ctx, input.IBID, input.GroupRates, uc.now())
	if err != nil {
		return nil, err
	}

	if err := uc.ibRepo.ReplaceGroupRates(ctx, input.IBID, rates); err != nil {
		return nil, err
	}

	slog.Info("ib group rates replaced", "ib_id", input.IBID, "groups", len(rates))
	return rates, nil
}

// buildGroupRates validates raw group rates against the catalog and returns
// them sorted by group id.
func (uc *DefaultIBRequestUsecase) buildGroupRates(ctx context.Context, ibID string, raw map[string]decimal.Decimal, at time.Time) ([]domain.GroupPipRate, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	groupIDs := make([]string, 0, len(raw))
	for groupID, rate := range raw {
		if strings.TrimSpace(groupID) == "" {
			return nil, fmt.Errorf("%w: empty group id", domain.ErrValidation)
		}
		if rate.IsNegative() {
			return nil, fmt.Errorf("%w: rate for group %s is negative", domain.ErrValidation, groupID)
		}
		groupIDs = append(groupIDs, groupID)
	}
	sort.Strings(groupIDs)

	missing, err := uc.catalog.MissingGroups(ctx, groupIDs)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: unknown trading groups %s", domain.ErrValidation, strings.Join(missing, ", "))
	}

	rates := make([]domain.GroupPipRate, 0, len(groupIDs))
	for _, groupID := range groupIDs {
		rates = append(rates, domain.GroupPipRate{
			IBID:      ibID,
			GroupID:   groupID,
			Rate:      raw[groupID],
			UpdatedAt: at,
		})
	}
	return rates, nil
}

func (uc *DefaultIBRequestUsecase) GetIBRequest(ctx context.Context, id string) (*domain.IBRequest, error) {
	return uc.ibRepo.GetIBRequestByID(ctx, id)
}

func (uc *DefaultIBRequestUsecase) ListIBRequests(ctx context.Context, filter domain.IBRequestFilter) (*ibrequestdto.ListIBRequestsOutput, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 500 {
		filter.Limit = 50
	}

	requests, total, err := uc.ibRepo.ListIBRequests(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ibrequestdto.ListIBRequestsOutput{
		Requests: requests,
		Total:    total,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}, nil
}

func (uc *DefaultIBRequestUsecase) GetGroupRates(ctx context.Context, ibID string) ([]domain.GroupPipRate, error) {
	if _, err := uc.ibRepo.GetIBRequestByID(ctx, ibID); err != nil {
		return nil, err
	}
	return uc.ibRepo.GetGroupRates(ctx, ibID)
}

// publish notifies downstream services after the state change is committed.
func (uc *DefaultIBRequestUsecase) publish(req *domain.IBRequest, action, reason string) {
	if uc.publisher == nil {
		return
	}
	go func(event domain.IBRequestEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := uc.publisher.PublishIBRequestEvent(ctx, event); err != nil {
			slog.Error("failed to publish IBRequestEvent", "ib_id", event.IBID, "action", event.Action, "error", err.Error())
		}
	}(domain.IBRequestEvent{
		IBID:       req.ID,
		UserID:     req.UserID,
		Action:     action,
		Status:     string(req.Status),
		IBType:     string(req.IBType),
		ReferrerID: req.ReferrerID,
		IsBanned:   req.IsBanned,
		Reason:     reason,
		OccurredAt: req.UpdatedAt,
	})
}
