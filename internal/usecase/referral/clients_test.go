package referral

import (
	"context"
	"errors"
	"testing"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/memory"
	clientdto "github.com/LavaJover/shvark-ib-service/internal/usecase/dto/client"
	"github.com/shopspring/decimal"
)

func newClientUsecase(store *memory.Store) *DefaultClientUsecase {
	return NewDefaultClientUsecase(store, store, store, NewDefaultGraphUsecase(store, 0, 0, nil))
}

func TestRegisterClient(t *testing.T) {
	store := memory.NewStore()
	approveIB(t, store, "A", "")
	approveIB(t, store, "B", "")
	createIB(t, store, "pending")
	uc := newClientUsecase(store)
	ctx := context.Background()

	ref, err := uc.RegisterClient(ctx, &clientdto.RegisterClientInput{ClientUserID: "c1", IBID: "A"})
	if err != nil {
		t.Fatalf("RegisterClient: %v", err)
	}
	if ref.IBID != "A" {
		t.Fatalf("ref = %+v", ref)
	}

	again, err := uc.RegisterClient(ctx, &clientdto.RegisterClientInput{ClientUserID: "c1", IBID: "A"})
	if err != nil {
		t.Fatalf("repeat RegisterClient: %v", err)
	}
	if !again.CreatedAt.Equal(ref.CreatedAt) {
		t.Fatalf("repeat registration returned a new binding")
	}

	if _, err := uc.RegisterClient(ctx, &clientdto.RegisterClientInput{ClientUserID: "c1", IBID: "B"}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("rebind err = %v, want ErrConflict", err)
	}
	if _, err := uc.RegisterClient(ctx, &clientdto.RegisterClientInput{ClientUserID: "c2", IBID: "pending"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("pending ib err = %v, want ErrNotFound", err)
	}
	if _, err := uc.RegisterClient(ctx, &clientdto.RegisterClientInput{ClientUserID: "c2"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("missing ib err = %v, want ErrValidation", err)
	}

	clients, err := uc.ListClientsByIB(ctx, "A")
	if err != nil {
		t.Fatalf("ListClientsByIB: %v", err)
	}
	if len(clients) != 1 || clients[0].ClientUserID != "c1" {
		t.Fatalf("clients = %+v", clients)
	}
}

func TestRegisterClient_PlanMustBelongToChain(t *testing.T) {
	store := memory.NewStore()
	approveIB(t, store, "M", "")
	approveIB(t, store, "A", "M")
	approveIB(t, store, "other", "")
	ctx := context.Background()

	for _, p := range []*domain.CommissionPlan{
		{ID: "p-m", OwnerIBID: "M", Name: "m", LevelsCount: 1, LinkToken: "tok-m",
			Structure: map[string]map[int]decimal.Decimal{"std": {1: decimal.NewFromInt(1)}}},
		{ID: "p-o", OwnerIBID: "other", Name: "o", LevelsCount: 1, LinkToken: "tok-o",
			Structure: map[string]map[int]decimal.Decimal{"std": {1: decimal.NewFromInt(1)}}},
	} {
		if err := store.CreatePlan(ctx, p); err != nil {
			t.Fatalf("CreatePlan: %v", err)
		}
	}

	uc := newClientUsecase(store)

	ref, err := uc.RegisterClient(ctx, &clientdto.RegisterClientInput{ClientUserID: "c1", IBID: "A", PlanLinkToken: "tok-m"})
	if err != nil {
		t.Fatalf("RegisterClient: %v", err)
	}
	if ref.PlanID != "p-m" {
		t.Fatalf("plan id = %q, want p-m", ref.PlanID)
	}

	if _, err := uc.RegisterClient(ctx, &clientdto.RegisterClientInput{ClientUserID: "c2", IBID: "A", PlanLinkToken: "tok-o"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("foreign plan err = %v, want ErrValidation", err)
	}
	if _, err := uc.RegisterClient(ctx, &clientdto.RegisterClientInput{ClientUserID: "c3", IBID: "A", PlanLinkToken: "nope"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown token err = %v, want ErrNotFound", err)
	}
	if _, err := uc.RegisterClient(ctx, &clientdto.RegisterClientInput{ClientUserID: "c4", IBID: "M", PlanLinkToken: "tok-m"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("own plan err = %v, want ErrValidation", err)
	}
	if _, err := uc.GetClientReferral(ctx, "c4"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("rejected client was bound: %v", err)
	}
}
