package commission

import (
	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/shopspring/decimal"
)

const DefaultMaxResidualLevels = 10

type ChainMember struct {
	IBID  string
	Rates RateTable
}

type Calculation struct {
	Trade     domain.TradeVolumeEvent
	Direct    ChainMember
	Ancestors []ChainMember // nearest first
	Plan      *domain.CommissionPlan
	MaxLevels int
}

// Calculate turns one trade into ledger entries.
//
// The trading IB earns volume x its own rate. Walking up the chain, each
// ancestor earns volume x (its rate - the highest rate already paid below it),
// and nothing when its rate does not exceed that. Levels covered by a plan are
// paid the plan's rate as is.
func Calculate(c Calculation) []*domain.CommissionLedgerEntry {
	trade := c.Trade
	if !trade.Volume.IsPositive() {
		return nil
	}

	maxLevels := c.MaxLevels
	if maxLevels <= 0 {
		maxLevels = DefaultMaxResidualLevels
	}

	var entries []*domain.CommissionLedgerEntry

	directRate := ResolveRate(c.Direct.Rates, trade.GroupID, 0, c.Plan)
	if directRate.Configured && directRate.Value.IsPositive() {
		entries = append(entries, newEntry(trade, c.Direct.IBID, domain.CommissionDirect, 0, directRate.Value))
	}

	paid := directRate.OrZero()
	for i, ancestor := range c.Ancestors {
		level := i + 1
		if level > maxLevels {
			break
		}

		rate := ResolveRate(ancestor.Rates, trade.GroupID, level, c.Plan)

		if rate.Source == domain.RateSourcePlan {
			if rate.Value.IsPositive() {
				entries = append(entries, newEntry(trade, ancestor.IBID, domain.CommissionResidual, level, rate.Value))
			}
			// Plan levels still raise the floor for differential levels above them.
			if own, ok := ancestor.Rates[trade.GroupID]; ok && own.GreaterThan(paid) {
				paid = own
			}
			continue
		}

		if !rate.Configured || rate.Value.LessThanOrEqual(paid) {
			continue
		}

		entries = append(entries, newEntry(trade, ancestor.IBID, domain.CommissionResidual, level, rate.Value.Sub(paid)))
		paid = rate.Value
	}

	return entries
}

// newEntry truncates to the ledger scale so no trade pays out more than its
// exact volume times rate and every storage keeps the same digits.
func newEntry(trade domain.TradeVolumeEvent, ibID string, kind domain.CommissionKind, level int, rate decimal.Decimal) *domain.CommissionLedgerEntry {
	volume := trade.Volume.Truncate(domain.AmountScale)
	rate = rate.Truncate(domain.AmountScale)
	return &domain.CommissionLedgerEntry{
		IdempotencyKey: domain.EntryKey(trade.TradeID, ibID, kind, level),
		IBID:           ibID,
		TradeID:        trade.TradeID,
		Kind:           kind,
		Level:          level,
		GroupID:        trade.GroupID,
		Volume:         volume,
		Rate:           rate,
		Amount:         volume.Mul(rate).Truncate(domain.AmountScale),
		TradeTime:      trade.Timestamp,
	}
}

// Total sums the amounts of entries.
func Total(entries []*domain.CommissionLedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}
