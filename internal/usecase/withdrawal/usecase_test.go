package withdrawal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/memory"
	withdrawaldto "github.com/LavaJover/shvark-ib-service/internal/usecase/dto/withdrawal"
	"github.com/shopspring/decimal"
)

var seedTime = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// seedFundedIB approves a master IB and credits its account with balance.
func seedFundedIB(t *testing.T, store *memory.Store, id, balance string) {
	t.Helper()
	ctx := context.Background()

	if err := store.CreateIBRequest(ctx, &domain.IBRequest{
		ID:        id,
		UserID:    "user-" + id,
		Status:    domain.IBRequestPending,
		CreatedAt: seedTime,
		UpdatedAt: seedTime,
	}); err != nil {
		t.Fatalf("create ib: %v", err)
	}
	if _, err := store.ApproveIBRequest(ctx, id, domain.IBApproval{IBType: domain.IBTypeMaster}, seedTime, nil); err != nil {
		t.Fatalf("approve ib: %v", err)
	}

	entry := &domain.CommissionLedgerEntry{
		ID:             "seed-" + id,
		IdempotencyKey: domain.EntryKey("seed-trade", id, domain.CommissionDirect, 0),
		IBID:           id,
		TradeID:        "seed-trade",
		Kind:           domain.CommissionDirect,
		GroupID:        "std",
		Volume:         d("1"),
		Rate:           d(balance),
		Amount:         d(balance),
		TradeTime:      seedTime,
		CreatedAt:      seedTime,
	}
	if _, err := store.RecordEntries(ctx, []*domain.CommissionLedgerEntry{entry}); err != nil {
		t.Fatalf("record entries: %v", err)
	}
}

func request(t *testing.T, uc *DefaultWithdrawalUsecase, ibID, amount string) *domain.WithdrawalRequest {
	t.Helper()
	w, err := uc.RequestWithdrawal(context.Background(), &withdrawaldto.RequestWithdrawalInput{
		IBID:          ibID,
		Amount:        d(amount),
		PaymentMethod: "bank_transfer",
	})
	if err != nil {
		t.Fatalf("RequestWithdrawal: %v", err)
	}
	return w
}

func TestApproveWithdrawal_InsufficientBalanceKeepsPending(t *testing.T) {
	store := memory.NewStore()
	seedFundedIB(t, store, "ib-1", "300")
	uc := NewDefaultWithdrawalUsecase(store, store, nil, nil)
	ctx := context.Background()

	w := request(t, uc, "ib-1", "500")
	if w.UserID != "user-ib-1" || w.Status != domain.WithdrawalPending {
		t.Fatalf("requested withdrawal = %+v", w)
	}

	if _, err := uc.ApproveWithdrawal(ctx, w.ID); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("approve err = %v, want ErrInsufficientBalance", err)
	}

	got, err := uc.GetWithdrawal(ctx, w.ID)
	if err != nil {
		t.Fatalf("GetWithdrawal: %v", err)
	}
	if got.Status != domain.WithdrawalPending {
		t.Fatalf("status = %s, want %s", got.Status, domain.WithdrawalPending)
	}

	account, err := store.GetAccount(ctx, "ib-1")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !account.AvailableBalance().Equal(d("300")) {
		t.Fatalf("available = %s, want 300", account.AvailableBalance())
	}
}

func TestApproveWithdrawal_DebitsAccountOnce(t *testing.T) {
	store := memory.NewStore()
	seedFundedIB(t, store, "ib-1", "300")
	uc := NewDefaultWithdrawalUsecase(store, store, nil, nil)
	ctx := context.Background()

	w := request(t, uc, "ib-1", "120")
	approved, err := uc.ApproveWithdrawal(ctx, w.ID)
	if err != nil {
		t.Fatalf("ApproveWithdrawal: %v", err)
	}
	if approved.Status != domain.WithdrawalApproved || approved.DistributionID == "" || approved.ApprovedAt == nil {
		t.Fatalf("approved = %+v", approved)
	}

	if _, err := uc.ApproveWithdrawal(ctx, w.ID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("second approve err = %v, want ErrConflict", err)
	}
	if _, err := uc.RejectWithdrawal(ctx, &withdrawaldto.RejectWithdrawalInput{WithdrawalID: w.ID, Reason: "late"}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("reject after approve err = %v, want ErrConflict", err)
	}

	account, err := store.GetAccount(ctx, "ib-1")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !account.DistributedCommission.Equal(d("120")) || !account.AvailableBalance().Equal(d("180")) {
		t.Fatalf("distributed=%s available=%s", account.DistributedCommission, account.AvailableBalance())
	}

	dists, total, err := store.ListDistributions(ctx, "ib-1", 1, 10)
	if err != nil {
		t.Fatalf("ListDistributions: %v", err)
	}
	if total != 1 || dists[0].Source != domain.DistributionWithdrawal || dists[0].WithdrawalID != w.ID {
		t.Fatalf("distributions = %+v", dists)
	}
}

func TestApproveWithdrawal_ConcurrentApprovalsNeverOverdraw(t *testing.T) {
	store := memory.NewStore()
	seedFundedIB(t, store, "ib-1", "300")
	uc := NewDefaultWithdrawalUsecase(store, store, nil, nil)

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, request(t, uc, "ib-1", "100").ID)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		approved int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := uc.ApproveWithdrawal(context.Background(), id)
			if err == nil {
				mu.Lock()
				approved++
				mu.Unlock()
				return
			}
			if !errors.Is(err, domain.ErrInsufficientBalance) {
				t.Errorf("approve %s: %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	if approved != 3 {
		t.Fatalf("approved %d withdrawals, want 3", approved)
	}
	account, err := store.GetAccount(context.Background(), "ib-1")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !account.AvailableBalance().IsZero() {
		t.Fatalf("available = %s, want 0", account.AvailableBalance())
	}
}

func TestRequestWithdrawal_Validation(t *testing.T) {
	store := memory.NewStore()
	seedFundedIB(t, store, "ib-1", "10")
	if err := store.CreateIBRequest(context.Background(), &domain.IBRequest{
		ID: "pending", UserID: "u-p", Status: domain.IBRequestPending, CreatedAt: seedTime, UpdatedAt: seedTime,
	}); err != nil {
		t.Fatalf("create pending ib: %v", err)
	}
	seedFundedIB(t, store, "banned", "10")
	if _, err := store.SetIBBanned(context.Background(), "banned", true, seedTime); err != nil {
		t.Fatalf("ban ib: %v", err)
	}
	uc := NewDefaultWithdrawalUsecase(store, store, nil, nil)

	tests := []struct {
		name  string
		input withdrawaldto.RequestWithdrawalInput
		want  error
	}{
		{"zero amount", withdrawaldto.RequestWithdrawalInput{IBID: "ib-1", Amount: decimal.Zero, PaymentMethod: "card"}, domain.ErrValidation},
		{"negative amount", withdrawaldto.RequestWithdrawalInput{IBID: "ib-1", Amount: d("-5"), PaymentMethod: "card"}, domain.ErrValidation},
		{"no payment method", withdrawaldto.RequestWithdrawalInput{IBID: "ib-1", Amount: d("5"), PaymentMethod: "  "}, domain.ErrValidation},
		{"unknown ib", withdrawaldto.RequestWithdrawalInput{IBID: "ghost", Amount: d("5"), PaymentMethod: "card"}, domain.ErrNotFound},
		{"unapproved ib", withdrawaldto.RequestWithdrawalInput{IBID: "pending", Amount: d("5"), PaymentMethod: "card"}, domain.ErrNotFound},
		{"banned ib", withdrawaldto.RequestWithdrawalInput{IBID: "banned", Amount: d("5"), PaymentMethod: "card"}, domain.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			if _, err := uc.RequestWithdrawal(context.Background(), &input); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRejectWithdrawal(t *testing.T) {
	store := memory.NewStore()
	seedFundedIB(t, store, "ib-1", "50")
	uc := NewDefaultWithdrawalUsecase(store, store, nil, nil)
	ctx := context.Background()

	w := request(t, uc, "ib-1", "20")
	if _, err := uc.RejectWithdrawal(ctx, &withdrawaldto.RejectWithdrawalInput{WithdrawalID: w.ID, Reason: " "}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank reason err = %v, want ErrValidation", err)
	}

	rejected, err := uc.RejectWithdrawal(ctx, &withdrawaldto.RejectWithdrawalInput{WithdrawalID: w.ID, Reason: "details mismatch"})
	if err != nil {
		t.Fatalf("RejectWithdrawal: %v", err)
	}
	if rejected.Status != domain.WithdrawalRejected || rejected.RejectionReason != "details mismatch" {
		t.Fatalf("rejected = %+v", rejected)
	}
	if _, err := uc.ApproveWithdrawal(ctx, w.ID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("approve after reject err = %v, want ErrConflict", err)
	}

	list, err := uc.ListWithdrawals(ctx, domain.WithdrawalFilter{IBID: "ib-1", Status: domain.WithdrawalRejected})
	if err != nil {
		t.Fatalf("ListWithdrawals: %v", err)
	}
	if list.Total != 1 {
		t.Fatalf("rejected withdrawals = %d, want 1", list.Total)
	}
}
