package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// IBMetrics holds the commission engine's metrics. A nil *IBMetrics is valid
// and records nothing.
type IBMetrics struct {
	// Trades consumed from the trading platform
	TradesProcessedTotal    *prometheus.CounterVec
	TradeProcessingDuration *prometheus.HistogramVec

	// Ledger
	LedgerEntriesTotal     *prometheus.CounterVec
	LedgerAmountTotal      *prometheus.CounterVec
	DuplicateEntriesTotal  prometheus.Counter
	DistributionsTotal     *prometheus.CounterVec
	DistributedAmountTotal *prometheus.CounterVec

	// Workflows
	IBRequestsTotal         *prometheus.CounterVec
	WithdrawalsTotal        *prometheus.CounterVec
	ReferralRejectionsTotal *prometheus.CounterVec

	// Reconciliation
	AccountsRepairedTotal prometheus.Counter
	ReconcileJobsTotal    *prometheus.CounterVec
}

func NewIBMetrics(reg prometheus.Registerer) *IBMetrics {
	factory := promauto.With(reg)

	return &IBMetrics{
		TradesProcessedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ib_trades_processed_total",
				Help: "Trade volume events processed, by outcome",
			},
			[]string{"result"},
		),
		TradeProcessingDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ib_trade_processing_duration_seconds",
				Help:    "Time to calculate and record commission for one trade",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		LedgerEntriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ib_ledger_entries_total",
				Help: "Commission ledger entries appended, by kind",
			},
			[]string{"kind"},
		),
		LedgerAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ib_ledger_amount_total",
				Help: "Commission amount credited, by kind",
			},
			[]string{"kind"},
		),
		DuplicateEntriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ib_ledger_duplicate_entries_total",
				Help: "Ledger entries skipped because their idempotency key already existed",
			},
		),
		DistributionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ib_distributions_total",
				Help: "Commission distributions, by source and outcome",
			},
			[]string{"source", "result"},
		),
		DistributedAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ib_distributed_amount_total",
				Help: "Commission amount distributed, by source",
			},
			[]string{"source"},
		),
		IBRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ib_requests_total",
				Help: "IB request workflow transitions",
			},
			[]string{"action"},
		),
		WithdrawalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ib_withdrawals_total",
				Help: "Withdrawal workflow transitions",
			},
			[]string{"action"},
		),
		ReferralRejectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ib_referral_rejections_total",
				Help: "Referral assignments rejected by the graph check",
			},
			[]string{"reason"},
		),
		AccountsRepairedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ib_accounts_repaired_total",
				Help: "Commission accounts whose aggregates drifted from the ledger",
			},
		),
		ReconcileJobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ib_reconcile_jobs_total",
				Help: "Reconciliation jobs, by final status",
			},
			[]string{"status"},
		),
	}
}

func (m *IBMetrics) RecordTrade(result string, started time.Time) {
	if m == nil {
		return
	}
	m.TradesProcessedTotal.WithLabelValues(result).Inc()
	m.TradeProcessingDuration.WithLabelValues(result).Observe(time.Since(started).Seconds())
}

func (m *IBMetrics) RecordLedgerEntry(kind string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.LedgerEntriesTotal.WithLabelValues(kind).Inc()
	m.LedgerAmountTotal.WithLabelValues(kind).Add(amount.InexactFloat64())
}

func (m *IBMetrics) RecordDuplicateEntries(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DuplicateEntriesTotal.Add(float64(n))
}

func (m *IBMetrics) RecordDistribution(source, result string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.DistributionsTotal.WithLabelValues(source, result).Inc()
	if result == "ok" {
		m.DistributedAmountTotal.WithLabelValues(source).Add(amount.InexactFloat64())
	}
}

func (m *IBMetrics) RecordIBRequest(action string) {
	if m == nil {
		return
	}
	m.IBRequestsTotal.WithLabelValues(action).Inc()
}

func (m *IBMetrics) RecordWithdrawal(action string) {
	if m == nil {
		return
	}
	m.WithdrawalsTotal.WithLabelValues(action).Inc()
}

func (m *IBMetrics) RecordReferralRejection(reason string) {
	if m == nil {
		return
	}
	m.ReferralRejectionsTotal.WithLabelValues(reason).Inc()
}

func (m *IBMetrics) RecordReconcileJob(status string, repaired int) {
	if m == nil {
		return
	}
	m.ReconcileJobsTotal.WithLabelValues(status).Inc()
	m.AccountsRepairedTotal.Add(float64(repaired))
}
