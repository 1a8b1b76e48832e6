package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var at = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestIBRequest_Transitions(t *testing.T) {
	r := &IBRequest{ID: "ib-1", Status: IBRequestPending}

	if err := r.SetBanned(true, at); !errors.Is(err, ErrConflict) {
		t.Fatalf("ban pending err = %v, want ErrConflict", err)
	}
	if err := r.Approve(IBApproval{IBType: IBTypeMaster, ReferrerID: "ignored"}, at); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if r.ReferrerID != "" || !r.IsApprovedIB() || r.ApprovedAt == nil {
		t.Fatalf("approved master = %+v", r)
	}
	if err := r.Reject("late", at); !errors.Is(err, ErrConflict) {
		t.Fatalf("reject approved err = %v, want ErrConflict", err)
	}

	if err := r.ChangeType(IBTypeSubIB, "parent", at); err != nil {
		t.Fatalf("ChangeType: %v", err)
	}
	if r.ReferrerID != "parent" {
		t.Fatalf("referrer = %q", r.ReferrerID)
	}
	if err := r.ChangeType(IBTypeMaster, "parent", at); err != nil {
		t.Fatalf("ChangeType: %v", err)
	}
	if r.ReferrerID != "" {
		t.Fatalf("master kept referrer %q", r.ReferrerID)
	}
}

func TestWithdrawal_Terminal(t *testing.T) {
	w := &WithdrawalRequest{ID: "w-1", Status: WithdrawalPending}
	if err := w.Reject("no", at); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if err := w.Approve("d-1", at); !errors.Is(err, ErrConflict) {
		t.Fatalf("approve rejected err = %v, want ErrConflict", err)
	}
	if err := w.Reject("again", at); !errors.Is(err, ErrConflict) {
		t.Fatalf("reject rejected err = %v, want ErrConflict", err)
	}
}

func TestAccount_CreditDebit(t *testing.T) {
	a := NewIBCommissionAccount("ib-1", at)
	a.Credit(&CommissionLedgerEntry{Kind: CommissionDirect, Amount: decimal.NewFromInt(7)}, at)
	a.Credit(&CommissionLedgerEntry{Kind: CommissionResidual, Amount: decimal.NewFromInt(3)}, at)

	if !a.TotalCommission.Equal(decimal.NewFromInt(10)) || !a.DirectCommission.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("account = %+v", a)
	}
	if err := a.Debit(decimal.RequireFromString("10.01"), at); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("overdraw err = %v, want ErrInsufficientBalance", err)
	}
	if err := a.Debit(decimal.NewFromInt(10), at); err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if !a.AvailableBalance().IsZero() {
		t.Fatalf("available = %s, want 0", a.AvailableBalance())
	}
}

func TestPlan_RateFor(t *testing.T) {
	p := &CommissionPlan{
		LevelsCount: 2,
		Structure:   map[string]map[int]decimal.Decimal{"std": {1: decimal.NewFromInt(1), 3: decimal.NewFromInt(9)}},
	}
	if r := p.RateFor("std", 1); !r.Configured || r.Source != RateSourcePlan {
		t.Fatalf("level 1 = %+v", r)
	}
	if r := p.RateFor("std", 2); r.Configured {
		t.Fatalf("level 2 without rate = %+v", r)
	}
	if r := p.RateFor("std", 3); r.Configured {
		t.Fatalf("level beyond count = %+v", r)
	}
	var none *CommissionPlan
	if r := none.RateFor("std", 1); r.Configured {
		t.Fatalf("nil plan = %+v", r)
	}
}

func TestParseLevelLabel(t *testing.T) {
	for label, want := range map[string]int{"L1": 1, "L5": 5} {
		got, err := ParseLevelLabel(label)
		if err != nil || got != want {
			t.Fatalf("ParseLevelLabel(%q) = %d, %v; want %d", label, got, err, want)
		}
		if LevelLabel(got) != label {
			t.Fatalf("LevelLabel(%d) = %q", got, LevelLabel(got))
		}
	}
	for _, label := range []string{"1", "L0", "L6", "l1", "L+1", "L01", ""} {
		if _, err := ParseLevelLabel(label); !errors.Is(err, ErrValidation) {
			t.Fatalf("ParseLevelLabel(%q) err = %v, want ErrValidation", label, err)
		}
	}
}
