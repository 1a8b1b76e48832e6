package ibrequest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/memory"
	ibrequestdto "github.com/LavaJover/shvark-ib-service/internal/usecase/dto/ibrequest"
	"github.com/LavaJover/shvark-ib-service/internal/usecase/referral"
	"github.com/shopspring/decimal"
)

type recordingEvents struct {
	mu     sync.Mutex
	events []domain.IBRequestEvent
	done   chan struct{}
}

func newRecordingEvents() *recordingEvents {
	return &recordingEvents{done: make(chan struct{}, 16)}
}

func (r *recordingEvents) PublishIBRequestEvent(_ context.Context, event domain.IBRequestEvent) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recordingEvents) PublishWithdrawalEvent(context.Context, domain.WithdrawalEvent) error {
	return nil
}

func (r *recordingEvents) wait(t *testing.T, n int) []domain.IBRequestEvent {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i+1)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.IBRequestEvent(nil), r.events...)
}

func rates(kv ...string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = decimal.RequireFromString(kv[i+1])
	}
	return out
}

func newTestUsecase(t *testing.T, events domain.EventPublisher) (*memory.Store, *DefaultIBRequestUsecase) {
	t.Helper()
	store := memory.NewStore()
	if err := store.UpsertGroups(context.Background(), []domain.TradingGroup{
		{ID: "std", Name: "Standard"},
		{ID: "ecn", Name: "ECN"},
	}); err != nil {
		t.Fatalf("UpsertGroups: %v", err)
	}
	graph := referral.NewDefaultGraphUsecase(store, 0, 0, nil)
	return store, NewDefaultIBRequestUsecase(store, store, store, graph, events, nil)
}

func submit(t *testing.T, uc *DefaultIBRequestUsecase, userID string) *domain.IBRequest {
	t.Helper()
	req, err := uc.SubmitIBRequest(context.Background(), &ibrequestdto.SubmitIBRequestInput{UserID: userID})
	if err != nil {
		t.Fatalf("SubmitIBRequest(%s): %v", userID, err)
	}
	return req
}

func approveMaster(t *testing.T, uc *DefaultIBRequestUsecase, id string) *domain.IBRequest {
	t.Helper()
	ib, err := uc.ApproveIBRequest(context.Background(), &ibrequestdto.ApproveIBRequestInput{
		RequestID:  id,
		IBType:     domain.IBTypeMaster,
		GroupRates: rates("std", "2"),
	})
	if err != nil {
		t.Fatalf("ApproveIBRequest(%s): %v", id, err)
	}
	return ib
}

func TestApproveIBRequest_OpensAccountAndStoresRates(t *testing.T) {
	store, uc := newTestUsecase(t, nil)
	ctx := context.Background()

	req := submit(t, uc, "user-1")
	if req.Status != domain.IBRequestPending {
		t.Fatalf("status = %s", req.Status)
	}

	ib, err := uc.ApproveIBRequest(ctx, &ibrequestdto.ApproveIBRequestInput{
		RequestID:               req.ID,
		IBType:                  domain.IBTypeMaster,
		GroupRates:              rates("std", "1.5", "ecn", "0.75"),
		PlanType:                domain.PlanTypeAdvanced,
		ShowCommissionStructure: true,
	})
	if err != nil {
		t.Fatalf("ApproveIBRequest: %v", err)
	}
	if ib.Status != domain.IBRequestApproved || ib.ApprovedAt == nil || ib.PlanType != domain.PlanTypeAdvanced {
		t.Fatalf("approved ib = %+v", ib)
	}

	got, err := uc.GetGroupRates(ctx, ib.ID)
	if err != nil {
		t.Fatalf("GetGroupRates: %v", err)
	}
	if len(got) != 2 || got[0].GroupID != "ecn" || got[1].GroupID != "std" {
		t.Fatalf("group rates = %+v", got)
	}

	account, err := store.GetAccount(ctx, ib.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !account.TotalCommission.IsZero() {
		t.Fatalf("new account total = %s", account.TotalCommission)
	}

	if _, err := uc.ApproveIBRequest(ctx, &ibrequestdto.ApproveIBRequestInput{RequestID: ib.ID, IBType: domain.IBTypeMaster}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("second approval err = %v, want ErrConflict", err)
	}
}

func TestApproveIBRequest_Validation(t *testing.T) {
	_, uc := newTestUsecase(t, nil)
	master := approveMaster(t, uc, submit(t, uc, "master").ID)
	pending := submit(t, uc, "applicant")

	tests := []struct {
		name  string
		input ibrequestdto.ApproveIBRequestInput
		want  error
	}{
		{"bad type", ibrequestdto.ApproveIBRequestInput{RequestID: pending.ID, IBType: "GOLD"}, domain.ErrValidation},
		{"sub-ib without referrer", ibrequestdto.ApproveIBRequestInput{RequestID: pending.ID, IBType: domain.IBTypeSubIB}, domain.ErrValidation},
		{"bad plan type", ibrequestdto.ApproveIBRequestInput{RequestID: pending.ID, IBType: domain.IBTypeMaster, PlanType: "VIP"}, domain.ErrValidation},
		{"negative rate", ibrequestdto.ApproveIBRequestInput{RequestID: pending.ID, IBType: domain.IBTypeMaster, GroupRates: rates("std", "-1")}, domain.ErrValidation},
		{"unknown group", ibrequestdto.ApproveIBRequestInput{RequestID: pending.ID, IBType: domain.IBTypeMaster, GroupRates: rates("gold", "1")}, domain.ErrValidation},
		{"self referral", ibrequestdto.ApproveIBRequestInput{RequestID: pending.ID, IBType: domain.IBTypeSubIB, ReferrerID: pending.ID}, domain.ErrCycle},
		{"unknown referrer", ibrequestdto.ApproveIBRequestInput{RequestID: pending.ID, IBType: domain.IBTypeSubIB, ReferrerID: "ghost"}, domain.ErrNotFound},
		{"unknown request", ibrequestdto.ApproveIBRequestInput{RequestID: "ghost", IBType: domain.IBTypeSubIB, ReferrerID: master.ID}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			if _, err := uc.ApproveIBRequest(context.Background(), &input); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	got, err := uc.GetIBRequest(context.Background(), pending.ID)
	if err != nil {
		t.Fatalf("GetIBRequest: %v", err)
	}
	if got.Status != domain.IBRequestPending {
		t.Fatalf("status after refused approvals = %s", got.Status)
	}
}

func TestSubmitIBRequest_DuplicateUser(t *testing.T) {
	_, uc := newTestUsecase(t, nil)
	submit(t, uc, "user-1")

	_, err := uc.SubmitIBRequest(context.Background(), &ibrequestdto.SubmitIBRequestInput{UserID: "user-1"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	_, err = uc.SubmitIBRequest(context.Background(), &ibrequestdto.SubmitIBRequestInput{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("missing user err = %v, want ErrValidation", err)
	}
}

func TestRejectIBRequest(t *testing.T) {
	_, uc := newTestUsecase(t, nil)
	ctx := context.Background()
	req := submit(t, uc, "user-1")

	if _, err := uc.RejectIBRequest(ctx, &ibrequestdto.RejectIBRequestInput{RequestID: req.ID, Reason: "  "}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank reason err = %v, want ErrValidation", err)
	}

	rejected, err := uc.RejectIBRequest(ctx, &ibrequestdto.RejectIBRequestInput{RequestID: req.ID, Reason: " incomplete KYC "})
	if err != nil {
		t.Fatalf("RejectIBRequest: %v", err)
	}
	if rejected.Status != domain.IBRequestRejected || rejected.RejectionReason != "incomplete KYC" {
		t.Fatalf("rejected = %+v", rejected)
	}

	if _, err := uc.ApproveIBRequest(ctx, &ibrequestdto.ApproveIBRequestInput{RequestID: req.ID, IBType: domain.IBTypeMaster}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("approve after reject err = %v, want ErrConflict", err)
	}
}

func TestChangeIBType(t *testing.T) {
	_, uc := newTestUsecase(t, nil)
	ctx := context.Background()
	a := approveMaster(t, uc, submit(t, uc, "a").ID)
	b := approveMaster(t, uc, submit(t, uc, "b").ID)

	sub, err := uc.ChangeIBType(ctx, &ibrequestdto.ChangeIBTypeInput{RequestID: b.ID, IBType: domain.IBTypeSubIB, ReferrerID: a.ID})
	if err != nil {
		t.Fatalf("ChangeIBType to sub-ib: %v", err)
	}
	if sub.ReferrerID != a.ID {
		t.Fatalf("referrer = %q, want %q", sub.ReferrerID, a.ID)
	}

	if _, err := uc.ChangeIBType(ctx, &ibrequestdto.ChangeIBTypeInput{RequestID: a.ID, IBType: domain.IBTypeSubIB, ReferrerID: b.ID}); !errors.Is(err, domain.ErrCycle) {
		t.Fatalf("cycle err = %v, want ErrCycle", err)
	}

	master, err := uc.ChangeIBType(ctx, &ibrequestdto.ChangeIBTypeInput{RequestID: b.ID, IBType: domain.IBTypeMaster, ReferrerID: a.ID})
	if err != nil {
		t.Fatalf("ChangeIBType to master: %v", err)
	}
	if master.ReferrerID != "" {
		t.Fatalf("master kept referrer %q", master.ReferrerID)
	}

	pending := submit(t, uc, "c")
	if _, err := uc.ChangeIBType(ctx, &ibrequestdto.ChangeIBTypeInput{RequestID: pending.ID, IBType: domain.IBTypeMaster}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("pending change err = %v, want ErrConflict", err)
	}
}

func TestSetBannedAndGroupRates(t *testing.T) {
	_, uc := newTestUsecase(t, nil)
	ctx := context.Background()
	ib := approveMaster(t, uc, submit(t, uc, "a").ID)

	banned, err := uc.SetBanned(ctx, &ibrequestdto.SetBannedInput{RequestID: ib.ID, Banned: true})
	if err != nil {
		t.Fatalf("SetBanned: %v", err)
	}
	if !banned.IsBanned {
		t.Fatalf("ib not banned")
	}

	replaced, err := uc.SetGroupRates(ctx, &ibrequestdto.SetGroupRatesInput{IBID: ib.ID, GroupRates: rates("ecn", "3")})
	if err != nil {
		t.Fatalf("SetGroupRates: %v", err)
	}
	if len(replaced) != 1 || replaced[0].GroupID != "ecn" {
		t.Fatalf("replaced = %+v", replaced)
	}
	got, err := uc.GetGroupRates(ctx, ib.ID)
	if err != nil {
		t.Fatalf("GetGroupRates: %v", err)
	}
	if len(got) != 1 || !got[0].Rate.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("rates after replace = %+v", got)
	}

	pending := submit(t, uc, "b")
	if _, err := uc.SetGroupRates(ctx, &ibrequestdto.SetGroupRatesInput{IBID: pending.ID, GroupRates: rates("std", "1")}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("pending rates err = %v, want ErrConflict", err)
	}
	if _, err := uc.GetGroupRates(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown ib err = %v, want ErrNotFound", err)
	}
}

func TestListIBRequests(t *testing.T) {
	_, uc := newTestUsecase(t, nil)
	approveMaster(t, uc, submit(t, uc, "a").ID)
	submit(t, uc, "b")
	submit(t, uc, "c")

	out, err := uc.ListIBRequests(context.Background(), domain.IBRequestFilter{Status: domain.IBRequestPending, Limit: 1})
	if err != nil {
		t.Fatalf("ListIBRequests: %v", err)
	}
	if out.Total != 2 || len(out.Requests) != 1 || out.Page != 1 || out.Limit != 1 {
		t.Fatalf("out = %+v", out)
	}
}

func TestWorkflowPublishesEvents(t *testing.T) {
	events := newRecordingEvents()
	_, uc := newTestUsecase(t, events)

	req := submit(t, uc, "user-1")
	approveMaster(t, uc, req.ID)

	got := events.wait(t, 2)
	actions := map[string]bool{}
	for _, e := range got {
		if e.IBID != req.ID {
			t.Errorf("event for %s, want %s", e.IBID, req.ID)
		}
		actions[e.Action] = true
	}
	if !actions["submitted"] || !actions["approved"] {
		t.Fatalf("actions = %v", actions)
	}
}
