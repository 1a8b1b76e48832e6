package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// GroupPipRate is the pip-per-lot rate an IB earns on one trading group.
type GroupPipRate struct {
	IBID      string
	GroupID   string
	Rate      decimal.Decimal
	UpdatedAt time.Time
}

type RateSource string

const (
	RateSourceNone  RateSource = ""
	RateSourceGroup RateSource = "GROUP"
	RateSourcePlan  RateSource = "PLAN"
)

// Rate is a resolved commission rate. A rate that is not configured is
// different from a configured zero, but both pay nothing.
type Rate struct {
	Value      decimal.Decimal
	Configured bool
	Source     RateSource
}

func NotConfigured() Rate {
	return Rate{Value: decimal.Zero}
}

func (r Rate) OrZero() decimal.Decimal {
	if !r.Configured {
		return decimal.Zero
	}
	return r.Value
}

type TradingGroup struct {
	ID        string
	Name      string
	UpdatedAt time.Time
}

// GroupCatalog holds the trading groups known to the trading platform.
type GroupCatalog interface {
	UpsertGroups(ctx context.Context, groups []TradingGroup) error
	ListGroups(ctx context.Context) ([]TradingGroup, error)
	// MissingGroups returns the ids from groupIDs that are not in the catalog.
	MissingGroups(ctx context.Context, groupIDs []string) ([]string, error)
}
