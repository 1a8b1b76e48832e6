package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
)

func copyIBRequest(r *domain.IBRequest) *domain.IBRequest {
	c := *r
	return &c
}

func (s *Store) CreateIBRequest(ctx context.Context, req *domain.IBRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ibRequests[req.ID]; ok {
		return fmt.Errorf("%w: ib request %s already exists", domain.ErrConflict, req.ID)
	}
	for _, existing := range s.ibRequests {
		if existing.UserID == req.UserID {
			return fmt.Errorf("%w: user %s already has an ib request", domain.ErrConflict, req.UserID)
		}
	}
	s.ibRequests[req.ID] = copyIBRequest(req)
	return nil
}

func (s *Store) GetIBRequestByID(ctx context.Context, id string) (*domain.IBRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupIB(ctx, id)
}

// lookupIB is the NodeLookup used while the store lock is held.
func (s *Store) lookupIB(_ context.Context, id string) (*domain.IBRequest, error) {
	r, ok := s.ibRequests[id]
	if !ok {
		return nil, fmt.Errorf("%w: ib request %s", domain.ErrNotFound, id)
	}
	return copyIBRequest(r), nil
}

func (s *Store) GetIBRequestByUserID(ctx context.Context, userID string) (*domain.IBRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.ibRequests {
		if r.UserID == userID {
			return copyIBRequest(r), nil
		}
	}
	return nil, fmt.Errorf("%w: ib request for user %s", domain.ErrNotFound, userID)
}

func (s *Store) ListIBRequests(ctx context.Context, filter domain.IBRequestFilter) ([]*domain.IBRequest, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*domain.IBRequest
	for _, r := range s.ibRequests {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.IBType != "" && r.IBType != filter.IBType {
			continue
		}
		matched = append(matched, r)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	start, end := page(len(matched), filter.Page, filter.Limit)
	out := make([]*domain.IBRequest, 0, end-start)
	for _, r := range matched[start:end] {
		out = append(out, copyIBRequest(r))
	}
	return out, int64(len(matched)), nil
}

func (s *Store) GetReferrals(ctx context.Context, referrerIDs []string) ([]*domain.IBRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]struct{}, len(referrerIDs))
	for _, id := range referrerIDs {
		wanted[id] = struct{}{}
	}

	var out []*domain.IBRequest
	for _, id := range sortedKeys(s.ibRequests) {
		r := s.ibRequests[id]
		if r.ReferrerID == "" || !r.IsApprovedIB() {
			continue
		}
		if _, ok := wanted[r.ReferrerID]; ok {
			out = append(out, copyIBRequest(r))
		}
	}
	return out, nil
}

func (s *Store) ApproveIBRequest(ctx context.Context, id string, approval domain.IBApproval, at time.Time, check domain.ReferralCheck) (*domain.IBRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.ibRequests[id]
	if !ok {
		return nil, fmt.Errorf("%w: ib request %s", domain.ErrNotFound, id)
	}
	updated := copyIBRequest(current)
	if err := updated.Approve(approval, at); err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(ctx, s.lookupIB); err != nil {
			return nil, err
		}
	}

	s.ibRequests[id] = updated
	s.replaceGroupRates(id, approval.GroupRates)
	if _, ok := s.accounts[id]; !ok {
		s.accounts[id] = domain.NewIBCommissionAccount(id, at)
	}
	return copyIBRequest(updated), nil
}

func (s *Store) RejectIBRequest(ctx context.Context, id, reason string, at time.Time) (*domain.IBRequest, error) {
	return s.mutateIBRequest(id, func(r *domain.IBRequest) error {
		return r.Reject(reason, at)
	})
}

func (s *Store) ChangeIBType(ctx context.Context, id string, newType domain.IBType, referrerID string, at time.Time, check domain.ReferralCheck) (*domain.IBRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.ibRequests[id]
	if !ok {
		return nil, fmt.Errorf("%w: ib request %s", domain.ErrNotFound, id)
	}
	updated := copyIBRequest(current)
	if err := updated.ChangeType(newType, referrerID, at); err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(ctx, s.lookupIB); err != nil {
			return nil, err
		}
	}
	s.ibRequests[id] = updated
	return copyIBRequest(updated), nil
}

func (s *Store) SetIBBanned(ctx context.Context, id string, banned bool, at time.Time) (*domain.IBRequest, error) {
	return s.mutateIBRequest(id, func(r *domain.IBRequest) error {
		return r.SetBanned(banned, at)
	})
}

func (s *Store) mutateIBRequest(id string, fn func(*domain.IBRequest) error) (*domain.IBRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.ibRequests[id]
	if !ok {
		return nil, fmt.Errorf("%w: ib request %s", domain.ErrNotFound, id)
	}
	updated := copyIBRequest(current)
	if err := fn(updated); err != nil {
		return nil, err
	}
	s.ibRequests[id] = updated
	return copyIBRequest(updated), nil
}

func (s *Store) GetGroupRates(ctx context.Context, ibID string) ([]domain.GroupPipRate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rates := s.groupRates[ibID]
	out := make([]domain.GroupPipRate, 0, len(rates))
	for _, groupID := range sortedKeys(rates) {
		out = append(out, rates[groupID])
	}
	return out, nil
}

func (s *Store) GetGroupRatesFor(ctx context.Context, ibIDs []string, groupID string) (map[string]domain.GroupPipRate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]domain.GroupPipRate, len(ibIDs))
	for _, ibID := range ibIDs {
		if r, ok := s.groupRates[ibID][groupID]; ok {
			out[ibID] = r
		}
	}
	return out, nil
}

func (s *Store) ReplaceGroupRates(ctx context.Context, ibID string, rates []domain.GroupPipRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.ibRequests[ibID]
	if !ok {
		return fmt.Errorf("%w: ib request %s", domain.ErrNotFound, ibID)
	}
	if !r.IsApprovedIB() {
		return fmt.Errorf("%w: ib %s is %s", domain.ErrConflict, ibID, r.Status)
	}
	s.replaceGroupRates(ibID, rates)
	return nil
}

func (s *Store) replaceGroupRates(ibID string, rates []domain.GroupPipRate) {
	m := make(map[string]domain.GroupPipRate, len(rates))
	for _, r := range rates {
		r.IBID = ibID
		m[r.GroupID] = r
	}
	s.groupRates[ibID] = m
}
