package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

func TestNilMetricsAreNoop(t *testing.T) {
	var m *IBMetrics
	m.RecordTrade("ok", time.Now())
	m.RecordLedgerEntry("DIRECT", decimal.NewFromInt(1))
	m.RecordDistribution("MANUAL", "ok", decimal.NewFromInt(1))
	m.RecordReconcileJob("COMPLETED", 2)
}

func TestRecordLedgerEntry(t *testing.T) {
	m := NewIBMetrics(prometheus.NewRegistry())

	m.RecordLedgerEntry("DIRECT", decimal.RequireFromString("10.5"))
	m.RecordLedgerEntry("DIRECT", decimal.RequireFromString("4.5"))

	if got := testutil.ToFloat64(m.LedgerEntriesTotal.WithLabelValues("DIRECT")); got != 2 {
		t.Errorf("entries = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.LedgerAmountTotal.WithLabelValues("DIRECT")); got != 15 {
		t.Errorf("amount = %v, want 15", got)
	}
}

func TestRecordDistributionCountsAmountOnlyOnSuccess(t *testing.T) {
	m := NewIBMetrics(prometheus.NewRegistry())

	m.RecordDistribution("WITHDRAWAL", "insufficient_balance", decimal.NewFromInt(500))
	m.RecordDistribution("WITHDRAWAL", "ok", decimal.NewFromInt(300))

	if got := testutil.ToFloat64(m.DistributedAmountTotal.WithLabelValues("WITHDRAWAL")); got != 300 {
		t.Errorf("distributed = %v, want 300", got)
	}
}
