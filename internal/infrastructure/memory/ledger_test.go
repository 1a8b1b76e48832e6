package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/shopspring/decimal"
)

func entry(tradeID, ibID string, kind domain.CommissionKind, level int, amount string) *domain.CommissionLedgerEntry {
	a := decimal.RequireFromString(amount)
	return &domain.CommissionLedgerEntry{
		ID:             tradeID + "-" + ibID,
		IdempotencyKey: domain.EntryKey(tradeID, ibID, kind, level),
		IBID:           ibID,
		TradeID:        tradeID,
		Kind:           kind,
		Level:          level,
		GroupID:        "std",
		Volume:         decimal.NewFromInt(1),
		Rate:           a,
		Amount:         a,
		TradeTime:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRecordEntries_SkipsKnownKeys(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	batch := []*domain.CommissionLedgerEntry{
		entry("T1", "A", domain.CommissionDirect, 0, "10"),
		entry("T1", "B", domain.CommissionResidual, 1, "5"),
		entry("T1", "B", domain.CommissionResidual, 1, "5"),
	}
	got, err := s.RecordEntries(ctx, batch)
	if err != nil {
		t.Fatalf("RecordEntries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("inserted = %d, want 2", len(got))
	}

	got, err = s.RecordEntries(ctx, batch)
	if err != nil {
		t.Fatalf("replay RecordEntries: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("replay inserted = %d, want 0", len(got))
	}

	b, err := s.GetAccount(ctx, "B")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !b.TotalCommission.Equal(decimal.NewFromInt(5)) || !b.ResidualCommission.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("B account = %+v", b)
	}
}

func TestRecordEntries_RecordsEachTradeOnce(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if _, err := s.RecordEntries(ctx, []*domain.CommissionLedgerEntry{
		entry("T1", "A", domain.CommissionDirect, 0, "10"),
	}); err != nil {
		t.Fatalf("RecordEntries: %v", err)
	}

	// A later calculation of T1 with a new beneficiary is still the same trade.
	got, err := s.RecordEntries(ctx, []*domain.CommissionLedgerEntry{
		entry("T1", "A", domain.CommissionDirect, 0, "10"),
		entry("T1", "B", domain.CommissionResidual, 1, "5"),
		entry("T2", "B", domain.CommissionResidual, 1, "3"),
	})
	if err != nil {
		t.Fatalf("RecordEntries: %v", err)
	}
	if len(got) != 1 || got[0].TradeID != "T2" {
		t.Fatalf("inserted = %+v, want only T2", got)
	}

	b, err := s.GetAccount(ctx, "B")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !b.TotalCommission.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("B total = %s, want 3", b.TotalCommission)
	}
}

func TestGetLevelTotals_DirectFirst(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if _, err := s.RecordEntries(ctx, []*domain.CommissionLedgerEntry{
		entry("T1", "A", domain.CommissionResidual, 2, "1"),
		entry("T2", "A", domain.CommissionResidual, 1, "2"),
		entry("T3", "A", domain.CommissionResidual, 1, "3"),
		entry("T4", "A", domain.CommissionDirect, 0, "4"),
	}); err != nil {
		t.Fatalf("RecordEntries: %v", err)
	}

	totals, err := s.GetLevelTotals(ctx, "A")
	if err != nil {
		t.Fatalf("GetLevelTotals: %v", err)
	}
	if len(totals) != 3 {
		t.Fatalf("totals = %+v", totals)
	}
	if totals[0].Kind != domain.CommissionDirect || totals[1].Level != 1 || totals[2].Level != 2 {
		t.Fatalf("order = %+v", totals)
	}
	if !totals[1].Amount.Equal(decimal.NewFromInt(5)) || totals[1].Trades != 2 {
		t.Fatalf("level 1 = %+v", totals[1])
	}
}

func TestDistribute_Balance(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.Distribute(ctx, &domain.Distribution{ID: "d0", IBID: "A", Amount: decimal.NewFromInt(1)}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("distribute without account err = %v, want ErrNotFound", err)
	}

	if _, err := s.RecordEntries(ctx, []*domain.CommissionLedgerEntry{entry("T1", "A", domain.CommissionDirect, 0, "10")}); err != nil {
		t.Fatalf("RecordEntries: %v", err)
	}
	if err := s.Distribute(ctx, &domain.Distribution{ID: "d1", IBID: "A", Amount: decimal.NewFromInt(11)}); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("overdraw err = %v, want ErrInsufficientBalance", err)
	}
	if err := s.Distribute(ctx, &domain.Distribution{ID: "d2", IBID: "A", Amount: decimal.NewFromInt(10)}); err != nil {
		t.Fatalf("Distribute: %v", err)
	}

	_, total, err := s.ListDistributions(ctx, "A", 1, 10)
	if err != nil {
		t.Fatalf("ListDistributions: %v", err)
	}
	if total != 1 {
		t.Fatalf("distributions = %d, want 1", total)
	}
}

func TestReconcileAccount_RepairsDrift(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if _, err := s.RecordEntries(ctx, []*domain.CommissionLedgerEntry{
		entry("T1", "A", domain.CommissionDirect, 0, "10"),
		entry("T2", "A", domain.CommissionResidual, 1, "2.5"),
	}); err != nil {
		t.Fatalf("RecordEntries: %v", err)
	}
	if err := s.Distribute(ctx, &domain.Distribution{ID: "d1", IBID: "A", Amount: decimal.NewFromInt(3)}); err != nil {
		t.Fatalf("Distribute: %v", err)
	}

	res, err := s.ReconcileAccount(ctx, "A")
	if err != nil {
		t.Fatalf("ReconcileAccount: %v", err)
	}
	if res.Repaired {
		t.Fatalf("consistent account reported as repaired")
	}

	s.mu.Lock()
	s.accounts["A"].TotalCommission = decimal.NewFromInt(99)
	s.accounts["A"].DistributedCommission = decimal.Zero
	s.mu.Unlock()

	res, err = s.ReconcileAccount(ctx, "A")
	if err != nil {
		t.Fatalf("ReconcileAccount: %v", err)
	}
	if !res.Repaired || !res.Before.TotalCommission.Equal(decimal.NewFromInt(99)) {
		t.Fatalf("res = %+v", res)
	}

	a, err := s.GetAccount(ctx, "A")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !a.TotalCommission.Equal(decimal.RequireFromString("12.5")) || !a.DistributedCommission.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("repaired account = %+v", a)
	}
	if !a.DirectCommission.Equal(decimal.NewFromInt(10)) || !a.ResidualCommission.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("repaired split = %+v", a)
	}
}
