package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/metrics"
	"github.com/google/uuid"
)

const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// DefaultStaleAfter is how long an active job may go without progress before
// a new job is allowed to replace it.
const DefaultStaleAfter = 30 * time.Minute

type ReconcileUsecase interface {
	// StartJob queues a reconciliation and runs it in the background.
	StartJob(ctx context.Context) (*domain.ReconcileJob, error)
	// RunNow runs a reconciliation to completion.
	RunNow(ctx context.Context, trigger string) (*domain.ReconcileJob, error)
	GetJob(ctx context.Context, id string) (*domain.ReconcileJob, error)
}

type DefaultReconcileUsecase struct {
	ledger     domain.CommissionLedger
	jobRepo    domain.ReconcileJobRepository
	metrics    *metrics.IBMetrics
	staleAfter time.Duration
	now        func() time.Time
}

func NewDefaultReconcileUsecase(
	ledger domain.CommissionLedger,
	jobRepo domain.ReconcileJobRepository,
	ibMetrics *metrics.IBMetrics,
	staleAfter time.Duration,
) *DefaultReconcileUsecase {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &DefaultReconcileUsecase{
		ledger:     ledger,
		jobRepo:    jobRepo,
		metrics:    ibMetrics,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

func (uc *DefaultReconcileUsecase) StartJob(ctx context.Context) (*domain.ReconcileJob, error) {
	job, err := uc.queue(ctx, TriggerManual)
	if err != nil {
		return nil, err
	}

	snapshot := *job
	go func(job *domain.ReconcileJob) {
		if err := uc.run(context.Background(), job); err != nil {
			slog.Error("reconcile job failed", "job_id", job.ID, "error", err.Error())
		}
	}(job)
	return &snapshot, nil
}

func (uc *DefaultReconcileUsecase) RunNow(ctx context.Context, trigger string) (*domain.ReconcileJob, error) {
	job, err := uc.queue(ctx, trigger)
	if err != nil {
		return nil, err
	}
	if err := uc.run(ctx, job); err != nil {
		return job, err
	}
	return job, nil
}

func (uc *DefaultReconcileUsecase) GetJob(ctx context.Context, id string) (*domain.ReconcileJob, error) {
	return uc.jobRepo.GetJobByID(ctx, id)
}

func (uc *DefaultReconcileUsecase) queue(ctx context.Context, trigger string) (*domain.ReconcileJob, error) {
	now := uc.now()
	job := &domain.ReconcileJob{
		ID:        uuid.NewString(),
		Status:    domain.JobQueued,
		Trigger:   trigger,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.jobRepo.CreateJobIfIdle(ctx, job, now.Add(-uc.staleAfter)); err != nil {
		return nil, err
	}
	return job, nil
}

// run walks every commission account and repairs aggregates that drifted
// from the ledger. Progress is persisted after each account.
func (uc *DefaultReconcileUsecase) run(ctx context.Context, job *domain.ReconcileJob) error {
	started := uc.now()
	job.Status = domain.JobRunning
	job.StartedAt = &started
	if err := uc.save(ctx, job); err != nil {
		return uc.fail(ctx, job, err)
	}

	ids, err := uc.ledger.ListAccountIDs(ctx)
	if err != nil {
		return uc.fail(ctx, job, err)
	}
	job.Total = len(ids)

	for _, ibID := range ids {
		if err := ctx.Err(); err != nil {
			return uc.fail(ctx, job, err)
		}

		res, err := uc.ledger.ReconcileAccount(ctx, ibID)
		if err != nil {
			return uc.fail(ctx, job, fmt.Errorf("account %s: %w", ibID, err))
		}
		if res.Repaired {
			job.Repaired++
			slog.Warn("commission account repaired",
				"ib_id", ibID,
				"total_before", res.Before.TotalCommission.String(),
				"total_after", res.After.TotalCommission.String(),
				"distributed_before", res.Before.DistributedCommission.String(),
				"distributed_after", res.After.DistributedCommission.String(),
			)
		}
		job.Processed++
		job.Percent = percent(job.Processed, job.Total)
		if err := uc.save(ctx, job); err != nil {
			return uc.fail(ctx, job, err)
		}
	}

	finished := uc.now()
	job.Status = domain.JobCompleted
	job.Percent = 100
	job.FinishedAt = &finished
	if err := uc.save(ctx, job); err != nil {
		return uc.fail(ctx, job, err)
	}

	uc.metrics.RecordReconcileJob(string(job.Status), job.Repaired)
	slog.Info("reconcile job completed",
		"job_id", job.ID,
		"trigger", job.Trigger,
		"accounts", job.Total,
		"repaired", job.Repaired,
		"duration", finished.Sub(started).String(),
	)
	return nil
}

func (uc *DefaultReconcileUsecase) fail(ctx context.Context, job *domain.ReconcileJob, cause error) error {
	finished := uc.now()
	job.Status = domain.JobFailed
	job.Error = cause.Error()
	job.FinishedAt = &finished
	// the caller's context may already be done
	if err := uc.save(context.WithoutCancel(ctx), job); err != nil {
		slog.Error("failed to persist reconcile job state", "job_id", job.ID, "error", err.Error())
	}
	uc.metrics.RecordReconcileJob(string(job.Status), job.Repaired)
	return cause
}

func (uc *DefaultReconcileUsecase) save(ctx context.Context, job *domain.ReconcileJob) error {
	job.UpdatedAt = uc.now()
	return uc.jobRepo.UpdateJob(ctx, job)
}

func percent(done, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(done) * 100 / float64(total)
}
