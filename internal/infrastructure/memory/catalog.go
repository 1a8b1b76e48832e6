package memory

import (
	"context"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
)

func (s *Store) UpsertGroups(ctx context.Context, groups []domain.TradingGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range groups {
		s.groups[g.ID] = g
	}
	return nil
}

func (s *Store) ListGroups(ctx context.Context) ([]domain.TradingGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.TradingGroup, 0, len(s.groups))
	for _, id := range sortedKeys(s.groups) {
		out = append(out, s.groups[id])
	}
	return out, nil
}

func (s *Store) MissingGroups(ctx context.Context, groupIDs []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var missing []string
	for _, id := range groupIDs {
		if _, ok := s.groups[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
