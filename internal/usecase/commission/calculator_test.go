package commission

import (
	"testing"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func trade(id, group, volume string) domain.TradeVolumeEvent {
	return domain.TradeVolumeEvent{
		TradeID:      id,
		ClientUserID: "client-1",
		GroupID:      group,
		Volume:       d(volume),
		Timestamp:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func member(id string, rates map[string]string) ChainMember {
	table := make(RateTable, len(rates))
	for g, r := range rates {
		table[g] = d(r)
	}
	return ChainMember{IBID: id, Rates: table}
}

type want struct {
	ib     string
	kind   domain.CommissionKind
	level  int
	amount string
}

func assertEntries(t *testing.T, got []*domain.CommissionLedgerEntry, expected []want) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("got %d entries, want %d: %+v", len(got), len(expected), got)
	}
	for i, w := range expected {
		e := got[i]
		if e.IBID != w.ib || e.Kind != w.kind || e.Level != w.level {
			t.Errorf("entry %d = %s/%s/%d, want %s/%s/%d", i, e.IBID, e.Kind, e.Level, w.ib, w.kind, w.level)
		}
		if !e.Amount.Equal(d(w.amount)) {
			t.Errorf("entry %d amount = %s, want %s", i, e.Amount, w.amount)
		}
		if e.IdempotencyKey != domain.EntryKey(e.TradeID, e.IBID, e.Kind, e.Level) {
			t.Errorf("entry %d key = %q", i, e.IdempotencyKey)
		}
	}
}

func TestCalculate_DifferentialChain(t *testing.T) {
	// C trades through A <- B <- C with rates 1.0, 1.5 and 2.0.
	entries := Calculate(Calculation{
		Trade:  trade("T1", "std", "10"),
		Direct: member("A", map[string]string{"std": "1.0"}),
		Ancestors: []ChainMember{
			member("B", map[string]string{"std": "1.5"}),
			member("C", map[string]string{"std": "2.0"}),
		},
	})

	assertEntries(t, entries, []want{
		{"A", domain.CommissionDirect, 0, "10"},
		{"B", domain.CommissionResidual, 1, "5"},
		{"C", domain.CommissionResidual, 2, "5"},
	})
	if total := Total(entries); !total.Equal(d("20")) {
		t.Errorf("total = %s, want 20", total)
	}
}

func TestCalculate_TruncatesToLedgerScale(t *testing.T) {
	entries := Calculate(Calculation{
		Trade:  trade("T9", "std", "0.12345678"),
		Direct: member("A", map[string]string{"std": "1.23456789"}),
		Ancestors: []ChainMember{
			member("B", map[string]string{"std": "2.5"}),
		},
	})

	// 0.12345678 * 1.23456789 = 0.152415777...; 0.12345678 * 1.26543211 = 0.156226173...
	assertEntries(t, entries, []want{
		{"A", domain.CommissionDirect, 0, "0.15241577"},
		{"B", domain.CommissionResidual, 1, "0.15622617"},
	})
	for i, e := range entries {
		if e.Amount.Exponent() < -domain.AmountScale {
			t.Errorf("entry %d amount %s has more than %d decimals", i, e.Amount, domain.AmountScale)
		}
	}
	if limit := d("0.12345678").Mul(d("2.5")); Total(entries).GreaterThan(limit) {
		t.Errorf("total %s exceeds volume times top rate %s", Total(entries), limit)
	}
}

func TestCalculate_AncestorRateNotAbovePaidEarnsNothing(t *testing.T) {
	entries := Calculate(Calculation{
		Trade:  trade("T2", "std", "4"),
		Direct: member("A", map[string]string{"std": "2"}),
		Ancestors: []ChainMember{
			member("B", map[string]string{"std": "1"}),
			member("C", map[string]string{"std": "2"}),
			member("D", map[string]string{"std": "3"}),
		},
	})

	assertEntries(t, entries, []want{
		{"A", domain.CommissionDirect, 0, "8"},
		{"D", domain.CommissionResidual, 3, "4"},
	})
}

func TestCalculate_UnconfiguredRates(t *testing.T) {
	t.Run("direct without rate still passes residuals up", func(t *testing.T) {
		entries := Calculate(Calculation{
			Trade:     trade("T3", "ecn", "2"),
			Direct:    member("A", map[string]string{"std": "5"}),
			Ancestors: []ChainMember{member("B", map[string]string{"ecn": "1.25"})},
		})
		assertEntries(t, entries, []want{
			{"B", domain.CommissionResidual, 1, "2.5"},
		})
	})

	t.Run("configured zero pays nothing", func(t *testing.T) {
		entries := Calculate(Calculation{
			Trade:     trade("T4", "std", "2"),
			Direct:    member("A", map[string]string{"std": "0"}),
			Ancestors: []ChainMember{member("B", map[string]string{})},
		})
		if len(entries) != 0 {
			t.Fatalf("got %d entries, want none", len(entries))
		}
	})

	t.Run("zero volume pays nothing", func(t *testing.T) {
		entries := Calculate(Calculation{
			Trade:  trade("T5", "std", "0"),
			Direct: member("A", map[string]string{"std": "1"}),
		})
		if entries != nil {
			t.Fatalf("got %d entries, want none", len(entries))
		}
	})
}

func TestCalculate_PlanLevels(t *testing.T) {
	plan := &domain.CommissionPlan{
		ID:          "plan-1",
		OwnerIBID:   "M",
		LevelsCount: 2,
		Structure: map[string]map[int]decimal.Decimal{
			"std": {1: d("0.4"), 2: d("0.2")},
		},
	}

	entries := Calculate(Calculation{
		Trade:  trade("T6", "std", "10"),
		Direct: member("A", map[string]string{"std": "1"}),
		Ancestors: []ChainMember{
			member("B", map[string]string{"std": "3"}),
			member("M", map[string]string{"std": "2"}),
			member("X", map[string]string{"std": "4"}),
		},
		Plan: plan,
	})

	// Levels 1 and 2 pay the plan as is; level 3 pays above B's own rate.
	assertEntries(t, entries, []want{
		{"A", domain.CommissionDirect, 0, "10"},
		{"B", domain.CommissionResidual, 1, "4"},
		{"M", domain.CommissionResidual, 2, "2"},
		{"X", domain.CommissionResidual, 3, "10"},
	})
}

func TestCalculate_LevelCap(t *testing.T) {
	entries := Calculate(Calculation{
		Trade:  trade("T7", "std", "1"),
		Direct: member("A", map[string]string{"std": "1"}),
		Ancestors: []ChainMember{
			member("B", map[string]string{"std": "2"}),
			member("C", map[string]string{"std": "3"}),
			member("D", map[string]string{"std": "4"}),
		},
		MaxLevels: 2,
	})

	assertEntries(t, entries, []want{
		{"A", domain.CommissionDirect, 0, "1"},
		{"B", domain.CommissionResidual, 1, "1"},
		{"C", domain.CommissionResidual, 2, "1"},
	})
}

func TestResolveRate(t *testing.T) {
	plan := &domain.CommissionPlan{
		LevelsCount: 1,
		Structure:   map[string]map[int]decimal.Decimal{"std": {1: d("0.7")}},
	}
	rates := RateTable{"std": d("1.5")}

	tests := []struct {
		name   string
		group  string
		level  int
		plan   *domain.CommissionPlan
		value  string
		source domain.RateSource
	}{
		{"own rate at level 0 ignores plan", "std", 0, plan, "1.5", domain.RateSourceGroup},
		{"plan covers level 1", "std", 1, plan, "0.7", domain.RateSourcePlan},
		{"level beyond plan falls back", "std", 2, plan, "1.5", domain.RateSourceGroup},
		{"no plan", "std", 1, nil, "1.5", domain.RateSourceGroup},
		{"unknown group", "ecn", 0, nil, "0", domain.RateSourceNone},
		{"plan without the group", "ecn", 1, plan, "0", domain.RateSourceNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveRate(rates, tt.group, tt.level, tt.plan)
			if got.Source != tt.source {
				t.Errorf("source = %q, want %q", got.Source, tt.source)
			}
			if !got.Value.Equal(d(tt.value)) {
				t.Errorf("value = %s, want %s", got.Value, tt.value)
			}
			if got.Configured != (tt.source != domain.RateSourceNone) {
				t.Errorf("configured = %v", got.Configured)
			}
		})
	}
}
