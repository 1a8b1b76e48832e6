package plan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/memory"
	plandto "github.com/LavaJover/shvark-ib-service/internal/usecase/dto/plan"
	"github.com/shopspring/decimal"
)

var seedTime = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

func seedIB(t *testing.T, store *memory.Store, id string, approval domain.IBApproval) {
	t.Helper()
	ctx := context.Background()
	if err := store.CreateIBRequest(ctx, &domain.IBRequest{
		ID: id, UserID: "user-" + id, Status: domain.IBRequestPending, CreatedAt: seedTime, UpdatedAt: seedTime,
	}); err != nil {
		t.Fatalf("create ib: %v", err)
	}
	if _, err := store.ApproveIBRequest(ctx, id, approval, seedTime, nil); err != nil {
		t.Fatalf("approve ib: %v", err)
	}
}

func newTestUsecase(t *testing.T) (*memory.Store, *DefaultPlanUsecase) {
	t.Helper()
	store := memory.NewStore()
	if err := store.UpsertGroups(context.Background(), []domain.TradingGroup{{ID: "std"}, {ID: "ecn"}}); err != nil {
		t.Fatalf("UpsertGroups: %v", err)
	}
	seedIB(t, store, "advanced", domain.IBApproval{IBType: domain.IBTypeMaster, PlanType: domain.PlanTypeAdvanced})
	seedIB(t, store, "normal", domain.IBApproval{IBType: domain.IBTypeMaster, PlanType: domain.PlanTypeNormal})
	seedIB(t, store, "sub", domain.IBApproval{IBType: domain.IBTypeSubIB, ReferrerID: "advanced", PlanType: domain.PlanTypeAdvanced})

	uc, err := NewDefaultPlanUsecase(store, store, store)
	if err != nil {
		t.Fatalf("NewDefaultPlanUsecase: %v", err)
	}
	return store, uc
}

func structure(levels map[int]string) plandto.PlanStructure {
	rates := make(map[int]decimal.Decimal, len(levels))
	for l, r := range levels {
		rates[l] = decimal.RequireFromString(r)
	}
	return plandto.PlanStructure{"std": rates}
}

func TestCreatePlan(t *testing.T) {
	_, uc := newTestUsecase(t)
	ctx := context.Background()

	p, err := uc.CreatePlan(ctx, &plandto.CreatePlanInput{
		OwnerIBID:   "advanced",
		Name:        " Tiered ",
		LevelsCount: 2,
		Structure:   structure(map[int]string{1: "0.5", 2: "0.25"}),
	})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if p.Name != "Tiered" || len(p.LinkToken) != linkTokenLength {
		t.Fatalf("plan = %+v", p)
	}

	byToken, err := uc.GetPlanByLinkToken(ctx, p.LinkToken)
	if err != nil {
		t.Fatalf("GetPlanByLinkToken: %v", err)
	}
	if byToken.ID != p.ID {
		t.Fatalf("token resolved to %s, want %s", byToken.ID, p.ID)
	}
	if rate := byToken.RateFor("std", 2); !rate.Value.Equal(decimal.RequireFromString("0.25")) {
		t.Fatalf("level 2 rate = %s", rate.Value)
	}

	second, err := uc.CreatePlan(ctx, &plandto.CreatePlanInput{
		OwnerIBID: "advanced", Name: "other", LevelsCount: 1, Structure: structure(map[int]string{1: "1"}),
	})
	if err != nil {
		t.Fatalf("second CreatePlan: %v", err)
	}
	if second.LinkToken == p.LinkToken {
		t.Fatalf("link tokens collide")
	}

	plans, err := uc.ListPlansByOwner(ctx, "advanced")
	if err != nil {
		t.Fatalf("ListPlansByOwner: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("plans = %d, want 2", len(plans))
	}
}

func TestCreatePlan_Validation(t *testing.T) {
	_, uc := newTestUsecase(t)

	tests := []struct {
		name  string
		input plandto.CreatePlanInput
		want  error
	}{
		{"normal plan type owner", plandto.CreatePlanInput{OwnerIBID: "normal", Name: "x", LevelsCount: 1, Structure: structure(map[int]string{1: "1"})}, domain.ErrValidation},
		{"sub-ib owner", plandto.CreatePlanInput{OwnerIBID: "sub", Name: "x", LevelsCount: 1, Structure: structure(map[int]string{1: "1"})}, domain.ErrValidation},
		{"unknown owner", plandto.CreatePlanInput{OwnerIBID: "ghost", Name: "x", LevelsCount: 1, Structure: structure(map[int]string{1: "1"})}, domain.ErrNotFound},
		{"blank name", plandto.CreatePlanInput{OwnerIBID: "advanced", Name: " ", LevelsCount: 1, Structure: structure(map[int]string{1: "1"})}, domain.ErrValidation},
		{"zero levels", plandto.CreatePlanInput{OwnerIBID: "advanced", Name: "x", LevelsCount: 0, Structure: structure(map[int]string{1: "1"})}, domain.ErrValidation},
		{"too many levels", plandto.CreatePlanInput{OwnerIBID: "advanced", Name: "x", LevelsCount: domain.MaxPlanLevels + 1, Structure: structure(map[int]string{1: "1"})}, domain.ErrValidation},
		{"level beyond count", plandto.CreatePlanInput{OwnerIBID: "advanced", Name: "x", LevelsCount: 1, Structure: structure(map[int]string{2: "1"})}, domain.ErrValidation},
		{"negative rate", plandto.CreatePlanInput{OwnerIBID: "advanced", Name: "x", LevelsCount: 1, Structure: structure(map[int]string{1: "-0.1"})}, domain.ErrValidation},
		{"empty structure", plandto.CreatePlanInput{OwnerIBID: "advanced", Name: "x", LevelsCount: 1}, domain.ErrValidation},
		{"unknown group", plandto.CreatePlanInput{OwnerIBID: "advanced", Name: "x", LevelsCount: 1,
			Structure: plandto.PlanStructure{"gold": {1: decimal.NewFromInt(1)}}}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			if _, err := uc.CreatePlan(context.Background(), &input); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUpdateAndDeletePlan(t *testing.T) {
	_, uc := newTestUsecase(t)
	ctx := context.Background()

	p, err := uc.CreatePlan(ctx, &plandto.CreatePlanInput{
		OwnerIBID: "advanced", Name: "v1", LevelsCount: 1, Structure: structure(map[int]string{1: "1"}),
	})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	updated, err := uc.UpdatePlan(ctx, &plandto.UpdatePlanInput{
		PlanID: p.ID, Name: "v2", LevelsCount: 3, Structure: structure(map[int]string{1: "0.6", 3: "0.1"}),
	})
	if err != nil {
		t.Fatalf("UpdatePlan: %v", err)
	}
	if updated.LinkToken != p.LinkToken || updated.OwnerIBID != "advanced" || updated.LevelsCount != 3 {
		t.Fatalf("updated = %+v", updated)
	}

	if _, err := uc.UpdatePlan(ctx, &plandto.UpdatePlanInput{PlanID: "ghost", Name: "x", LevelsCount: 1, Structure: structure(map[int]string{1: "1"})}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("update unknown err = %v, want ErrNotFound", err)
	}

	if err := uc.DeletePlan(ctx, p.ID); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}
	if _, err := uc.GetPlan(ctx, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("get deleted err = %v, want ErrNotFound", err)
	}
	if _, err := uc.GetPlanByLinkToken(ctx, p.LinkToken); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("token of deleted plan err = %v, want ErrNotFound", err)
	}
}
