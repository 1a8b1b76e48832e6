package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/shopspring/decimal"
)

func (s *Store) RecordEntries(ctx context.Context, entries []*domain.CommissionLedgerEntry) ([]*domain.CommissionLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var inserted []*domain.CommissionLedgerEntry
	batch := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := s.trades[e.TradeID]; ok {
			continue
		}
		if _, ok := s.entryKeys[e.IdempotencyKey]; ok {
			continue
		}
		if _, ok := batch[e.IdempotencyKey]; ok {
			continue
		}
		batch[e.IdempotencyKey] = struct{}{}

		c := *e
		s.entries = append(s.entries, &c)
		s.entryKeys[e.IdempotencyKey] = struct{}{}

		account, ok := s.accounts[e.IBID]
		if !ok {
			account = domain.NewIBCommissionAccount(e.IBID, now)
			s.accounts[e.IBID] = account
		}
		account.Credit(&c, now)
		inserted = append(inserted, e)
	}
	for _, e := range entries {
		s.trades[e.TradeID] = struct{}{}
	}
	return inserted, nil
}

func (s *Store) Distribute(ctx context.Context, d *domain.Distribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.distribute(d)
}

func (s *Store) distribute(d *domain.Distribution) error {
	account, ok := s.accounts[d.IBID]
	if !ok {
		return fmt.Errorf("%w: commission account of ib %s", domain.ErrNotFound, d.IBID)
	}
	if err := account.Debit(d.Amount, d.CreatedAt); err != nil {
		return err
	}
	c := *d
	s.distributions = append(s.distributions, &c)
	return nil
}

func (s *Store) GetAccount(ctx context.Context, ibID string) (*domain.IBCommissionAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[ibID]
	if !ok {
		return nil, fmt.Errorf("%w: commission account of ib %s", domain.ErrNotFound, ibID)
	}
	c := *account
	return &c, nil
}

func (s *Store) ListAccountIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.accounts), nil
}

func (s *Store) GetLevelTotals(ctx context.Context, ibID string) ([]domain.LevelTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type bucket struct {
		kind  domain.CommissionKind
		level int
	}
	totals := make(map[bucket]*domain.LevelTotal)
	trades := make(map[bucket]map[string]struct{})
	for _, e := range s.entries {
		if e.IBID != ibID {
			continue
		}
		b := bucket{e.Kind, e.Level}
		t, ok := totals[b]
		if !ok {
			t = &domain.LevelTotal{Kind: e.Kind, Level: e.Level, Amount: decimal.Zero}
			totals[b] = t
			trades[b] = make(map[string]struct{})
		}
		t.Amount = t.Amount.Add(e.Amount)
		trades[b][e.TradeID] = struct{}{}
	}

	out := make([]domain.LevelTotal, 0, len(totals))
	for b, t := range totals {
		t.Trades = int64(len(trades[b]))
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind == domain.CommissionDirect
		}
		return out[i].Level < out[j].Level
	})
	return out, nil
}

func (s *Store) GetEntriesByTradeID(ctx context.Context, tradeID string) ([]*domain.CommissionLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.CommissionLedgerEntry
	for _, e := range s.entries {
		if e.TradeID == tradeID {
			c := *e
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

func (s *Store) ListEntries(ctx context.Context, filter domain.LedgerFilter) ([]*domain.CommissionLedgerEntry, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*domain.CommissionLedgerEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if filter.IBID != "" && e.IBID != filter.IBID {
			continue
		}
		if filter.Kind != "" && e.Kind != filter.Kind {
			continue
		}
		if !filter.DateFrom.IsZero() && e.TradeTime.Before(filter.DateFrom) {
			continue
		}
		if !filter.DateTo.IsZero() && e.TradeTime.After(filter.DateTo) {
			continue
		}
		matched = append(matched, e)
	}

	start, end := page(len(matched), filter.Page, filter.Limit)
	out := make([]*domain.CommissionLedgerEntry, 0, end-start)
	for _, e := range matched[start:end] {
		c := *e
		out = append(out, &c)
	}
	return out, int64(len(matched)), nil
}

func (s *Store) ListDistributions(ctx context.Context, ibID string, pageNum, limit int) ([]*domain.Distribution, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*domain.Distribution
	for i := len(s.distributions) - 1; i >= 0; i-- {
		if ibID == "" || s.distributions[i].IBID == ibID {
			matched = append(matched, s.distributions[i])
		}
	}

	start, end := page(len(matched), pageNum, limit)
	out := make([]*domain.Distribution, 0, end-start)
	for _, d := range matched[start:end] {
		c := *d
		out = append(out, &c)
	}
	return out, int64(len(matched)), nil
}

func (s *Store) ReconcileAccount(ctx context.Context, ibID string) (*domain.AccountReconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[ibID]
	if !ok {
		return nil, fmt.Errorf("%w: commission account of ib %s", domain.ErrNotFound, ibID)
	}

	after := *account
	after.TotalCommission = decimal.Zero
	after.DirectCommission = decimal.Zero
	after.ResidualCommission = decimal.Zero
	after.DistributedCommission = decimal.Zero
	for _, e := range s.entries {
		if e.IBID == ibID {
			after.Credit(e, account.UpdatedAt)
		}
	}
	for _, d := range s.distributions {
		if d.IBID == ibID {
			after.DistributedCommission = after.DistributedCommission.Add(d.Amount)
		}
	}

	res := &domain.AccountReconciliation{IBID: ibID, Before: *account, After: after}
	if !sameAggregates(account, &after) {
		after.UpdatedAt = time.Now()
		res.After = after
		res.Repaired = true
		*account = after
	}
	return res, nil
}

func sameAggregates(a, b *domain.IBCommissionAccount) bool {
	return a.TotalCommission.Equal(b.TotalCommission) &&
		a.DirectCommission.Equal(b.DirectCommission) &&
		a.ResidualCommission.Equal(b.ResidualCommission) &&
		a.DistributedCommission.Equal(b.DistributedCommission)
}
