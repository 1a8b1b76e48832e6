package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/metrics"
	withdrawaldto "github.com/LavaJover/shvark-ib-service/internal/usecase/dto/withdrawal"
	"github.com/google/uuid"
)

type WithdrawalUsecase interface {
	RequestWithdrawal(ctx context.Context, input *withdrawaldto.RequestWithdrawalInput) (*domain.WithdrawalRequest, error)
	ApproveWithdrawal(ctx context.Context, id string) (*domain.WithdrawalRequest, error)
	RejectWithdrawal(ctx context.Context, input *withdrawaldto.RejectWithdrawalInput) (*domain.WithdrawalRequest, error)
	GetWithdrawal(ctx context.Context, id string) (*domain.WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context, filter domain.WithdrawalFilter) (*withdrawaldto.ListWithdrawalsOutput, error)
}

type DefaultWithdrawalUsecase struct {
	withdrawalRepo domain.WithdrawalRepository
	ibRepo         domain.IBRequestRepository
	publisher      domain.EventPublisher
	metrics        *metrics.IBMetrics
	now            func() time.Time
}

func NewDefaultWithdrawalUsecase(
	withdrawalRepo domain.WithdrawalRepository,
	ibRepo domain.IBRequestRepository,
	publisher domain.EventPublisher,
	ibMetrics *metrics.IBMetrics,
) *DefaultWithdrawalUsecase {
	return &DefaultWithdrawalUsecase{
		withdrawalRepo: withdrawalRepo,
		ibRepo:         ibRepo,
		publisher:      publisher,
		metrics:        ibMetrics,
		now:            time.Now,
	}
}

// RequestWithdrawal files a pending withdrawal. The balance is checked only
// when the request is approved.
func (uc *DefaultWithdrawalUsecase) RequestWithdrawal(ctx context.Context, input *withdrawaldto.RequestWithdrawalInput) (*domain.WithdrawalRequest, error) {
	if input.IBID == "" {
		return nil, fmt.Errorf("%w: ib id is required", domain.ErrValidation)
	}
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: withdrawal amount must be positive, got %s", domain.ErrValidation, input.Amount)
	}
	if strings.TrimSpace(input.PaymentMethod) == "" {
		return nil, fmt.Errorf("%w: payment method is required", domain.ErrValidation)
	}

	ib, err := uc.ibRepo.GetIBRequestByID(ctx, input.IBID)
	if err != nil {
		return nil, err
	}
	if !ib.IsApprovedIB() {
		return nil, fmt.Errorf("%w: ib %s is not approved", domain.ErrNotFound, input.IBID)
	}
	if ib.IsBanned {
		return nil, fmt.Errorf("%w: ib %s is banned", domain.ErrConflict, input.IBID)
	}

	now := uc.now()
	w := &domain.WithdrawalRequest{
		ID:             uuid.NewString(),
		IBID:           ib.ID,
		UserID:         ib.UserID,
		Amount:         input.Amount,
		PaymentMethod:  input.PaymentMethod,
		PaymentDetails: input.PaymentDetails,
		Status:         domain.WithdrawalPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.withdrawalRepo.CreateWithdrawal(ctx, w); err != nil {
		return nil, err
	}

	uc.metrics.RecordWithdrawal("requested")
	slog.Info("withdrawal requested", "withdrawal_id", w.ID, "ib_id", w.IBID, "amount", w.Amount.String())
	uc.publish(w)
	return w, nil
}

func (uc *DefaultWithdrawalUsecase) ApproveWithdrawal(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: withdrawal id is required", domain.ErrValidation)
	}

	w, err := uc.withdrawalRepo.GetWithdrawalByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	dist := &domain.Distribution{
		ID:           uuid.NewString(),
		IBID:         w.IBID,
		Amount:       w.Amount,
		Note:         fmt.Sprintf("withdrawal %s via %s", w.ID, w.PaymentMethod),
		Source:       domain.DistributionWithdrawal,
		WithdrawalID: w.ID,
		CreatedAt:    now,
	}

	approved, err := uc.withdrawalRepo.ApproveWithdrawal(ctx, id, dist, now)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) {
			uc.metrics.RecordDistribution(string(domain.DistributionWithdrawal), "insufficient_balance", dist.Amount)
			slog.Warn("withdrawal approval refused", "withdrawal_id", id, "ib_id", w.IBID, "amount", w.Amount.String(), "error", err.Error())
		}
		return nil, err
	}

	uc.metrics.RecordDistribution(string(domain.DistributionWithdrawal), "ok", dist.Amount)
	uc.metrics.RecordWithdrawal("approved")
	slog.Info("withdrawal approved", "withdrawal_id", approved.ID, "ib_id", approved.IBID, "distribution_id", approved.DistributionID)
	uc.publish(approved)
	return approved, nil
}

func (uc *DefaultWithdrawalUsecase) RejectWithdrawal(ctx context.Context, input *withdrawaldto.RejectWithdrawalInput) (*domain.WithdrawalRequest, error) {
	if input.WithdrawalID == "" {
		return nil, fmt.Errorf("%w: withdrawal id is required", domain.ErrValidation)
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", domain.ErrValidation)
	}

	w, err := uc.withdrawalRepo.RejectWithdrawal(ctx, input.WithdrawalID, reason, uc.now())
	if err != nil {
		return nil, err
	}

	uc.metrics.RecordWithdrawal("rejected")
	slog.Info("withdrawal rejected", "withdrawal_id", w.ID, "ib_id", w.IBID, "reason", reason)
	uc.publish(w)
	return w, nil
}

func (uc *DefaultWithdrawalUsecase) GetWithdrawal(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	return uc.withdrawalRepo.GetWithdrawalByID(ctx, id)
}

func (uc *DefaultWithdrawalUsecase) ListWithdrawals(ctx context.Context, filter domain.WithdrawalFilter) (*withdrawaldto.ListWithdrawalsOutput, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 500 {
		filter.Limit = 50
	}
	items, total, err := uc.withdrawalRepo.ListWithdrawals(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &withdrawaldto.ListWithdrawalsOutput{
		Withdrawals: items,
		Total:       total,
		Page:        filter.Page,
		Limit:       filter.Limit,
	}, nil
}

func (uc *DefaultWithdrawalUsecase) publish(w *domain.WithdrawalRequest) {
	if uc.publisher == nil {
		return
	}
	go func(event domain.WithdrawalEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := uc.publisher.PublishWithdrawalEvent(ctx, event); err != nil {
			slog.Error("failed to publish WithdrawalEvent", "withdrawal_id", event.WithdrawalID, "status", event.Status, "error", err.Error())
		}
	}(domain.WithdrawalEvent{
		WithdrawalID: w.ID,
		IBID:         w.IBID,
		UserID:       w.UserID,
		Status:       string(w.Status),
		Amount:       w.Amount.String(),
		Reason:       w.RejectionReason,
		OccurredAt:   w.UpdatedAt,
	})
}
