package commission

import (
	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/shopspring/decimal"
)

// RateTable is one IB's configured pip-per-lot rates keyed by trading group.
type RateTable map[string]decimal.Decimal

// ResolveRate returns the rate that applies to an IB at a hierarchy level of a
// trade's referral chain, level 0 being the trading IB itself.
//
// A plan covering the level wins. Otherwise the IB's own group rate is
// returned; for levels above 0 the calculator pays it differentially.
func ResolveRate(rates RateTable, groupID string, level int, plan *domain.CommissionPlan) domain.Rate {
	if plan != nil && level >= 1 && level <= plan.LevelsCount {
		return plan.RateFor(groupID, level)
	}

	v, ok := rates[groupID]
	if !ok {
		return domain.NotConfigured()
	}
	return domain.Rate{Value: v, Configured: true, Source: domain.RateSourceGroup}
}
