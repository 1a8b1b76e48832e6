package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultReconcileJobRepository struct {
	db *gorm.DB
}

func NewDefaultReconcileJobRepository(db *gorm.DB) *DefaultReconcileJobRepository {
	return &DefaultReconcileJobRepository{db: db}
}

// CreateJobIfIdle serializes job creation on an advisory lock. The partial
// unique index on active jobs still refuses a second active row.
func (r *DefaultReconcileJobRepository) CreateJobIfIdle(ctx context.Context, job *domain.ReconcileJob, staleBefore time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", reconcileJobLock).Error; err != nil {
			return translate(err, "reconcile job lock")
		}

		active := []string{string(domain.JobQueued), string(domain.JobRunning)}
		now := time.Now()
		err := tx.Model(&models.ReconcileJobModel{}).
			Where("status IN ? AND updated_at < ?", active, staleBefore).
			Updates(map[string]interface{}{
				"status":      string(domain.JobFailed),
				"error":       domain.AbandonedJobError,
				"updated_at":  now,
				"finished_at": now,
			}).Error
		if err != nil {
			return translate(err, "stale reconcile jobs")
		}

		var running models.ReconcileJobModel
		err = tx.Where("status IN ?", active).Take(&running).Error
		switch {
		case err == nil:
			return fmt.Errorf("%w: reconcile job %s is %s", domain.ErrConflict, running.ID, running.Status)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return translate(err, "active reconcile jobs")
		}

		return translate(tx.Create(mappers.ToGORMReconcileJob(job)).Error, "reconcile job "+job.ID)
	})
}

func (r *DefaultReconcileJobRepository) UpdateJob(ctx context.Context, job *domain.ReconcileJob) error {
	res := r.db.WithContext(ctx).Save(mappers.ToGORMReconcileJob(job))
	return translate(res.Error, "reconcile job "+job.ID)
}

func (r *DefaultReconcileJobRepository) GetJobByID(ctx context.Context, id string) (*domain.ReconcileJob, error) {
	var model models.ReconcileJobModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translate(err, "reconcile job "+id)
	}
	return mappers.ToDomainReconcileJob(&model), nil
}
