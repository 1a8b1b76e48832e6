package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const MaxPlanLevels = 5

// CommissionPlan is a master IB's custom plan. Structure maps a trading
// group to per-level rates, level 1 being the direct referrer of the trading IB.
type CommissionPlan struct {
	ID          string
	OwnerIBID   string
	Name        string
	LevelsCount int
	Structure   map[string]map[int]decimal.Decimal
	LinkToken   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LevelLabel renders a plan level the way plans are edited: L1, L2, ...
func LevelLabel(level int) string {
	return "L" + strconv.Itoa(level)
}

// ParseLevelLabel accepts L1..L5.
func ParseLevelLabel(label string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(label, "L"))
	if err != nil || n < 1 || n > MaxPlanLevels || label != LevelLabel(n) {
		return 0, fmt.Errorf("%w: plan level %q must be one of L1..L%d", ErrValidation, label, MaxPlanLevels)
	}
	return n, nil
}

func (p *CommissionPlan) RateFor(groupID string, level int) Rate {
	if p == nil || level < 1 || level > p.LevelsCount {
		return NotConfigured()
	}
	levels, ok := p.Structure[groupID]
	if !ok {
		return NotConfigured()
	}
	v, ok := levels[level]
	if !ok {
		return NotConfigured()
	}
	return Rate{Value: v, Configured: true, Source: RateSourcePlan}
}

func (p *CommissionPlan) GroupIDs() []string {
	ids := make([]string, 0, len(p.Structure))
	for id := range p.Structure {
		ids = append(ids, id)
	}
	return ids
}

type CommissionPlanRepository interface {
	CreatePlan(ctx context.Context, plan *CommissionPlan) error
	UpdatePlan(ctx context.Context, plan *CommissionPlan) error
	DeletePlan(ctx context.Context, id string) error
	GetPlanByID(ctx context.Context, id string) (*CommissionPlan, error)
	GetPlanByLinkToken(ctx context.Context, token string) (*CommissionPlan, error)
	ListPlansByOwner(ctx context.Context, ownerIBID string) ([]*CommissionPlan, error)
}
