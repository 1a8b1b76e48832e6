package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
)

func (s *Store) CreateJobIfIdle(ctx context.Context, job *domain.ReconcileJob, staleBefore time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.jobs {
		if !existing.IsActive() {
			continue
		}
		if existing.UpdatedAt.Before(staleBefore) {
			existing.Abandon(time.Now())
			continue
		}
		return fmt.Errorf("%w: reconcile job %s is %s", domain.ErrConflict, existing.ID, existing.Status)
	}

	c := *job
	s.jobs[job.ID] = &c
	return nil
}

func (s *Store) UpdateJob(ctx context.Context, job *domain.ReconcileJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; !ok {
		return fmt.Errorf("%w: reconcile job %s", domain.ErrNotFound, job.ID)
	}
	c := *job
	s.jobs[job.ID] = &c
	return nil
}

func (s *Store) GetJobByID(ctx context.Context, id string) (*domain.ReconcileJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: reconcile job %s", domain.ErrNotFound, id)
	}
	c := *job
	return &c, nil
}
