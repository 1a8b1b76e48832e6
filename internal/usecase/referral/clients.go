package referral

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	clientdto "github.com/LavaJover/shvark-ib-service/internal/usecase/dto/client"
)

type ClientUsecase interface {
	RegisterClient(ctx context.Context, input *clientdto.RegisterClientInput) (*domain.ClientReferral, error)
	GetClientReferral(ctx context.Context, clientUserID string) (*domain.ClientReferral, error)
	ListClientsByIB(ctx context.Context, ibID string) ([]*domain.ClientReferral, error)
}

type DefaultClientUsecase struct {
	clientRepo domain.ClientReferralRepository
	ibRepo     domain.IBRequestRepository
	planRepo   domain.CommissionPlanRepository
	graph      GraphUsecase
	now        func() time.Time
}

func NewDefaultClientUsecase(
	clientRepo domain.ClientReferralRepository,
	ibRepo domain.IBRequestRepository,
	planRepo domain.CommissionPlanRepository,
	graph GraphUsecase,
) *DefaultClientUsecase {
	return &DefaultClientUsecase{
		clientRepo: clientRepo,
		ibRepo:     ibRepo,
		planRepo:   planRepo,
		graph:      graph,
		now:        time.Now,
	}
}

// RegisterClient binds a trading client to its direct IB. Registering the
// same client to the same IB again returns the existing binding.
func (uc *DefaultClientUsecase) RegisterClient(ctx context.Context, input *clientdto.RegisterClientInput) (*domain.ClientReferral, error) {
	if input.ClientUserID == "" || input.IBID == "" {
		return nil, fmt.Errorf("%w: client user id and ib id are required", domain.ErrValidation)
	}

	ib, err := uc.ibRepo.GetIBRequestByID(ctx, input.IBID)
	if err != nil {
		return nil, err
	}
	if !ib.IsApprovedIB() {
		return nil, fmt.Errorf("%w: ib %s is not approved", domain.ErrNotFound, input.IBID)
	}

	existing, err := uc.clientRepo.GetClientReferral(ctx, input.ClientUserID)
	switch {
	case err == nil:
		if existing.IBID == input.IBID {
			return existing, nil
		}
		return nil, fmt.Errorf("%w: client %s is already referred by ib %s", domain.ErrConflict, input.ClientUserID, existing.IBID)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	ref := &domain.ClientReferral{
		ClientUserID: input.ClientUserID,
		IBID:         input.IBID,
		CreatedAt:    uc.now(),
	}

	if input.PlanLinkToken != "" {
		plan, err := uc.planRepo.GetPlanByLinkToken(ctx, input.PlanLinkToken)
		if err != nil {
			return nil, fmt.Errorf("plan link: %w", err)
		}
		// Plan levels count from the direct IB upward, so its own plan prices nothing.
		if plan.OwnerIBID == ib.ID {
			return nil, fmt.Errorf("%w: plan %s is owned by ib %s and only applies to its downline", domain.ErrValidation, plan.ID, ib.ID)
		}
		inChain, err := uc.ownerInChain(ctx, plan.OwnerIBID, ib.ID)
		if err != nil {
			return nil, err
		}
		if !inChain {
			return nil, fmt.Errorf("%w: plan %s does not belong to the referral chain of ib %s", domain.ErrValidation, plan.ID, ib.ID)
		}
		ref.PlanID = plan.ID
	}

	if err := uc.clientRepo.CreateClientReferral(ctx, ref); err != nil {
		return nil, err
	}

	slog.Info("client referral registered", "client_user_id", ref.ClientUserID, "ib_id", ref.IBID, "plan_id", ref.PlanID)
	return ref, nil
}

func (uc *DefaultClientUsecase) ownerInChain(ctx context.Context, ownerID, ibID string) (bool, error) {
	ancestors, err := uc.graph.AncestorsOf(ctx, ibID)
	if err != nil {
		return false, err
	}
	for _, a := range ancestors {
		if a.ID == ownerID {
			return true, nil
		}
	}
	return false, nil
}

func (uc *DefaultClientUsecase) GetClientReferral(ctx context.Context, clientUserID string) (*domain.ClientReferral, error) {
	return uc.clientRepo.GetClientReferral(ctx, clientUserID)
}

func (uc *DefaultClientUsecase) ListClientsByIB(ctx context.Context, ibID string) ([]*domain.ClientReferral, error) {
	return uc.clientRepo.ListClientsByIB(ctx, ibID)
}
