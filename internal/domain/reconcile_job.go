package domain

import (
	"context"
	"time"
)

type JobStatus string

const (
	JobQueued    JobStatus = "QUEUED"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
)

// ReconcileJob recomputes every commission account from the ledger.
type ReconcileJob struct {
	ID         string
	Status     JobStatus
	Trigger    string
	Total      int
	Processed  int
	Repaired   int
	Percent    float64
	Error      string
	CreatedAt  time.Time
	// UpdatedAt is refreshed on every progress write; an active job that
	// stops advancing is treated as abandoned.
	UpdatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// AbandonedJobError is stored on an active job that was expired because it
// stopped reporting progress.
const AbandonedJobError = "abandoned: no progress before the stale deadline"

func (j *ReconcileJob) IsActive() bool {
	return j.Status == JobQueued || j.Status == JobRunning
}

// Abandon marks a stale active job failed.
func (j *ReconcileJob) Abandon(at time.Time) {
	j.Status = JobFailed
	j.Error = AbandonedJobError
	j.UpdatedAt = at
	j.FinishedAt = &at
}

type ReconcileJobRepository interface {
	// CreateJobIfIdle stores job unless another job is queued or running.
	// Active jobs last updated before staleBefore are marked failed first.
	// The check and the insert are atomic; a live active job gives ErrConflict.
	CreateJobIfIdle(ctx context.Context, job *ReconcileJob, staleBefore time.Time) error
	UpdateJob(ctx context.Context, job *ReconcileJob) error
	GetJobByID(ctx context.Context, id string) (*ReconcileJob, error)
}
