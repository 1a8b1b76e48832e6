package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
)

func copyWithdrawal(w *domain.WithdrawalRequest) *domain.WithdrawalRequest {
	c := *w
	return &c
}

func (s *Store) CreateWithdrawal(ctx context.Context, w *domain.WithdrawalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.withdrawals[w.ID]; ok {
		return fmt.Errorf("%w: withdrawal %s already exists", domain.ErrConflict, w.ID)
	}
	s.withdrawals[w.ID] = copyWithdrawal(w)
	return nil
}

func (s *Store) GetWithdrawalByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.withdrawals[id]
	if !ok {
		return nil, fmt.Errorf("%w: withdrawal %s", domain.ErrNotFound, id)
	}
	return copyWithdrawal(w), nil
}

func (s *Store) ListWithdrawals(ctx context.Context, filter domain.WithdrawalFilter) ([]*domain.WithdrawalRequest, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*domain.WithdrawalRequest
	for _, w := range s.withdrawals {
		if filter.IBID != "" && w.IBID != filter.IBID {
			continue
		}
		if filter.Status != "" && w.Status != filter.Status {
			continue
		}
		matched = append(matched, w)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	start, end := page(len(matched), filter.Page, filter.Limit)
	out := make([]*domain.WithdrawalRequest, 0, end-start)
	for _, w := range matched[start:end] {
		out = append(out, copyWithdrawal(w))
	}
	return out, int64(len(matched)), nil
}

func (s *Store) ApproveWithdrawal(ctx context.Context, id string, d *domain.Distribution, at time.Time) (*domain.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.withdrawals[id]
	if !ok {
		return nil, fmt.Errorf("%w: withdrawal %s", domain.ErrNotFound, id)
	}
	updated := copyWithdrawal(current)
	if err := updated.Approve(d.ID, at); err != nil {
		return nil, err
	}

	dist := *d
	dist.IBID = current.IBID
	dist.Amount = current.Amount
	dist.WithdrawalID = current.ID
	if err := s.distribute(&dist); err != nil {
		return nil, err
	}

	s.withdrawals[id] = updated
	return copyWithdrawal(updated), nil
}

func (s *Store) RejectWithdrawal(ctx context.Context, id, reason string, at time.Time) (*domain.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.withdrawals[id]
	if !ok {
		return nil, fmt.Errorf("%w: withdrawal %s", domain.ErrNotFound, id)
	}
	updated := copyWithdrawal(current)
	if err := updated.Reject(reason, at); err != nil {
		return nil, err
	}
	s.withdrawals[id] = updated
	return copyWithdrawal(updated), nil
}
