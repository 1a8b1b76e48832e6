package background

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/usecase/reconcile"
	"github.com/go-co-op/gocron/v2"
)

type BackgroundTasks struct {
	ReconcileUsecase reconcile.ReconcileUsecase
	ReconcileEvery   time.Duration

	scheduler gocron.Scheduler
}

func NewBackgroundTasks(reconcileUC reconcile.ReconcileUsecase, reconcileEvery time.Duration) *BackgroundTasks {
	return &BackgroundTasks{
		ReconcileUsecase: reconcileUC,
		ReconcileEvery:   reconcileEvery,
	}
}

// StartAll schedules the periodic jobs. Jobs stop when ctx is done or on
// Shutdown.
func (bt *BackgroundTasks) StartAll(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("new scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(bt.ReconcileEvery),
		gocron.NewTask(func() { bt.reconcileBalances(ctx) }),
		gocron.WithName("reconcile-balances"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule reconcile: %w", err)
	}

	bt.scheduler = sched
	sched.Start()
	slog.Info("background tasks started", "reconcile_every", bt.ReconcileEvery.String())
	return nil
}

func (bt *BackgroundTasks) Shutdown() error {
	if bt.scheduler == nil {
		return nil
	}
	return bt.scheduler.Shutdown()
}

func (bt *BackgroundTasks) reconcileBalances(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	job, err := bt.ReconcileUsecase.RunNow(ctx, reconcile.TriggerScheduled)
	if err != nil {
		slog.Error("scheduled reconcile failed", "error", err.Error())
		return
	}
	slog.Info("scheduled reconcile finished",
		"job_id", job.ID,
		"accounts", job.Total,
		"repaired", job.Repaired,
	)
}
