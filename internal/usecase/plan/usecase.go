package plan

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	plandto "github.com/LavaJover/shvark-ib-service/internal/usecase/dto/plan"
	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
)

const linkTokenLength = 21

type PlanUsecase interface {
	CreatePlan(ctx context.Context, input *plandto.CreatePlanInput) (*domain.CommissionPlan, error)
	UpdatePlan(ctx context.Context, input *plandto.UpdatePlanInput) (*domain.CommissionPlan, error)
	DeletePlan(ctx context.Context, id string) error
	GetPlan(ctx context.Context, id string) (*domain.CommissionPlan, error)
	GetPlanByLinkToken(ctx context.Context, token string) (*domain.CommissionPlan, error)
	ListPlansByOwner(ctx context.Context, ownerIBID string) ([]*domain.CommissionPlan, error)
}

type DefaultPlanUsecase struct {
	planRepo domain.CommissionPlanRepository
	ibRepo   domain.IBRequestRepository
	catalog  domain.GroupCatalog
	newToken func() string
	now      func() time.Time
}

func NewDefaultPlanUsecase(
	planRepo domain.CommissionPlanRepository,
	ibRepo domain.IBRequestRepository,
	catalog domain.GroupCatalog,
) (*DefaultPlanUsecase, error) {
	tokenGenerator, err := nanoid.Standard(linkTokenLength)
	if err != nil {
		return nil, fmt.Errorf("link token generator: %w", err)
	}
	return &DefaultPlanUsecase{
		planRepo: planRepo,
		ibRepo:   ibRepo,
		catalog:  catalog,
		newToken: tokenGenerator,
		now:      time.Now,
	}, nil
}

func (uc *DefaultPlanUsecase) CreatePlan(ctx context.Context, input *plandto.CreatePlanInput) (*domain.CommissionPlan, error) {
	if input.OwnerIBID == "" {
		return nil, fmt.Errorf("%w: owner ib id is required", domain.ErrValidation)
	}
	if err := uc.checkOwner(ctx, input.OwnerIBID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if err := uc.validateStructure(ctx, name, input.LevelsCount, input.Structure); err != nil {
		return nil, err
	}

	now := uc.now()
	plan := &domain.CommissionPlan{
		ID:          uuid.NewString(),
		OwnerIBID:   input.OwnerIBID,
		Name:        name,
		LevelsCount: input.LevelsCount,
		Structure:   input.Structure,
		LinkToken:   uc.newToken(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.planRepo.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}

	slog.Info("commission plan created", "plan_id", plan.ID, "owner_ib_id", plan.OwnerIBID, "levels", plan.LevelsCount)
	return plan, nil
}

// UpdatePlan replaces the plan's name, depth and structure. The link token
// and owner are kept.
func (uc *DefaultPlanUsecase) UpdatePlan(ctx context.Context, input *plandto.UpdatePlanInput) (*domain.CommissionPlan, error) {
	if input.PlanID == "" {
		return nil, fmt.Errorf("%w: plan id is required", domain.ErrValidation)
	}
	plan, err := uc.planRepo.GetPlanByID(ctx, input.PlanID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if err := uc.validateStructure(ctx, name, input.LevelsCount, input.Structure); err != nil {
		return nil, err
	}

	plan.Name = name
	plan.LevelsCount = input.LevelsCount
	plan.Structure = input.Structure
	plan.UpdatedAt = uc.now()
	if err := uc.planRepo.UpdatePlan(ctx, plan); err != nil {
		return nil, err
	}

	slog.Info("commission plan updated", "plan_id", plan.ID, "levels", plan.LevelsCount)
	return plan, nil
}

func (uc *DefaultPlanUsecase) DeletePlan(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: plan id is required", domain.ErrValidation)
	}
	if err := uc.planRepo.DeletePlan(ctx, id); err != nil {
		return err
	}
	slog.Info("commission plan deleted", "plan_id", id)
	return nil
}

func (uc *DefaultPlanUsecase) GetPlan(ctx context.Context, id string) (*domain.CommissionPlan, error) {
	return uc.planRepo.GetPlanByID(ctx, id)
}

func (uc *DefaultPlanUsecase) GetPlanByLinkToken(ctx context.Context, token string) (*domain.CommissionPlan, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: link token is required", domain.ErrValidation)
	}
	return uc.planRepo.GetPlanByLinkToken(ctx, token)
}

func (uc *DefaultPlanUsecase) ListPlansByOwner(ctx context.Context, ownerIBID string) ([]*domain.CommissionPlan, error) {
	return uc.planRepo.ListPlansByOwner(ctx, ownerIBID)
}

// checkOwner allows only approved masters on the advanced plan type to own
// custom plans.
func (uc *DefaultPlanUsecase) checkOwner(ctx context.Context, ownerIBID string) error {
	owner, err := uc.ibRepo.GetIBRequestByID(ctx, ownerIBID)
	if err != nil {
		return err
	}
	if !owner.IsApprovedIB() {
		return fmt.Errorf("%w: ib %s is not approved", domain.ErrNotFound, ownerIBID)
	}
	if owner.IBType != domain.IBTypeMaster || owner.PlanType != domain.PlanTypeAdvanced {
		return fmt.Errorf("%w: ib %s may not own commission plans", domain.ErrValidation, ownerIBID)
	}
	return nil
}

func (uc *DefaultPlanUsecase) validateStructure(ctx context.Context, name string, levels int, structure plandto.PlanStructure) error {
	if name == "" {
		return fmt.Errorf("%w: plan name is required", domain.ErrValidation)
	}
	if levels < 1 || levels > domain.MaxPlanLevels {
		return fmt.Errorf("%w: levels count must be between 1 and %d", domain.ErrValidation, domain.MaxPlanLevels)
	}
	if len(structure) == 0 {
		return fmt.Errorf("%w: plan structure is empty", domain.ErrValidation)
	}

	groupIDs := make([]string, 0, len(structure))
	for groupID, rates := range structure {
		for level, rate := range rates {
			if level < 1 || level > levels {
				return fmt.Errorf("%w: group %s has level %d outside 1..%d", domain.ErrValidation, groupID, level, levels)
			}
			if rate.IsNegative() {
				return fmt.Errorf("%w: group %s level %d rate is negative", domain.ErrValidation, groupID, level)
			}
		}
		groupIDs = append(groupIDs, groupID)
	}
	sort.Strings(groupIDs)

	missing, err := uc.catalog.MissingGroups(ctx, groupIDs)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: unknown trading groups %s", domain.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}
