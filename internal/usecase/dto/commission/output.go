package commissiondto

import (
	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/shopspring/decimal"
)

type TradeOutcome string

const (
	TradeRecorded   TradeOutcome = "recorded"
	TradeDuplicate  TradeOutcome = "duplicate"
	TradeNoDirectIB TradeOutcome = "no_direct_ib"
	TradeNoRate     TradeOutcome = "no_rate"
)

type ProcessTradeOutput struct {
	TradeID  string
	Outcome  TradeOutcome
	DirectIB string
	Entries  []*domain.CommissionLedgerEntry
	Inserted int
	Total    decimal.Decimal
}

type ListEntriesOutput struct {
	Entries []*domain.CommissionLedgerEntry
	Total   int64
	Page    int
	Limit   int
}

type ListDistributionsOutput struct {
	Distributions []*domain.Distribution
	Total         int64
	Page          int
	Limit         int
}
