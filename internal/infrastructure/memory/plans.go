package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/shopspring/decimal"
)

func copyPlan(p *domain.CommissionPlan) *domain.CommissionPlan {
	c := *p
	c.Structure = make(map[string]map[int]decimal.Decimal, len(p.Structure))
	for groupID, levels := range p.Structure {
		lc := make(map[int]decimal.Decimal, len(levels))
		for level, rate := range levels {
			lc[level] = rate
		}
		c.Structure[groupID] = lc
	}
	return &c
}

func (s *Store) CreatePlan(ctx context.Context, plan *domain.CommissionPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[plan.ID]; ok {
		return fmt.Errorf("%w: plan %s already exists", domain.ErrConflict, plan.ID)
	}
	for _, p := range s.plans {
		if p.LinkToken == plan.LinkToken {
			return fmt.Errorf("%w: link token already in use", domain.ErrConflict)
		}
	}
	s.plans[plan.ID] = copyPlan(plan)
	return nil
}

func (s *Store) UpdatePlan(ctx context.Context, plan *domain.CommissionPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[plan.ID]; !ok {
		return fmt.Errorf("%w: plan %s", domain.ErrNotFound, plan.ID)
	}
	s.plans[plan.ID] = copyPlan(plan)
	return nil
}

func (s *Store) DeletePlan(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[id]; !ok {
		return fmt.Errorf("%w: plan %s", domain.ErrNotFound, id)
	}
	delete(s.plans, id)
	return nil
}

func (s *Store) GetPlanByID(ctx context.Context, id string) (*domain.CommissionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[id]
	if !ok {
		return nil, fmt.Errorf("%w: plan %s", domain.ErrNotFound, id)
	}
	return copyPlan(p), nil
}

func (s *Store) GetPlanByLinkToken(ctx context.Context, token string) (*domain.CommissionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.plans {
		if p.LinkToken == token {
			return copyPlan(p), nil
		}
	}
	return nil, fmt.Errorf("%w: plan with link token %s", domain.ErrNotFound, token)
}

func (s *Store) ListPlansByOwner(ctx context.Context, ownerIBID string) ([]*domain.CommissionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.CommissionPlan
	for _, p := range s.plans {
		if p.OwnerIBID == ownerIBID {
			out = append(out, copyPlan(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
