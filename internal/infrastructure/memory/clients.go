package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
)

func (s *Store) CreateClientReferral(ctx context.Context, ref *domain.ClientReferral) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[ref.ClientUserID]; ok {
		return fmt.Errorf("%w: client %s is already referred", domain.ErrConflict, ref.ClientUserID)
	}
	c := *ref
	s.clients[ref.ClientUserID] = &c
	return nil
}

func (s *Store) GetClientReferral(ctx context.Context, clientUserID string) (*domain.ClientReferral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok := s.clients[clientUserID]
	if !ok {
		return nil, fmt.Errorf("%w: client %s", domain.ErrNotFound, clientUserID)
	}
	c := *ref
	return &c, nil
}

func (s *Store) ListClientsByIB(ctx context.Context, ibID string) ([]*domain.ClientReferral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.ClientReferral
	for _, ref := range s.clients {
		if ref.IBID == ibID {
			c := *ref
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientUserID < out[j].ClientUserID })
	return out, nil
}
