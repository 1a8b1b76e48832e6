package mappers

import (
	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres/models"
)

func ToDomainWithdrawal(model *models.WithdrawalModel) *domain.WithdrawalRequest {
	return &domain.WithdrawalRequest{
		ID:              model.ID,
		IBID:            model.IBID,
		UserID:          model.UserID,
		Amount:          model.Amount,
		PaymentMethod:   model.PaymentMethod,
		PaymentDetails:  model.PaymentDetails,
		Status:          domain.WithdrawalStatus(model.Status),
		RejectionReason: model.RejectionReason,
		DistributionID:  model.DistributionID,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
		ApprovedAt:      model.ApprovedAt,
		RejectedAt:      model.RejectedAt,
	}
}

func ToGORMWithdrawal(w *domain.WithdrawalRequest) *models.WithdrawalModel {
	return &models.WithdrawalModel{
		ID:              w.ID,
		IBID:            w.IBID,
		UserID:          w.UserID,
		Amount:          w.Amount,
		PaymentMethod:   w.PaymentMethod,
		PaymentDetails:  w.PaymentDetails,
		Status:          string(w.Status),
		RejectionReason: w.RejectionReason,
		DistributionID:  w.DistributionID,
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
		ApprovedAt:      w.ApprovedAt,
		RejectedAt:      w.RejectedAt,
	}
}

func ToDomainReconcileJob(model *models.ReconcileJobModel) *domain.ReconcileJob {
	return &domain.ReconcileJob{
		ID:         model.ID,
		Status:     domain.JobStatus(model.Status),
		Trigger:    model.Trigger,
		Total:      model.Total,
		Processed:  model.Processed,
		Repaired:   model.Repaired,
		Percent:    model.Percent,
		Error:      model.Error,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
		StartedAt:  model.StartedAt,
		FinishedAt: model.FinishedAt,
	}
}

func ToGORMReconcileJob(job *domain.ReconcileJob) *models.ReconcileJobModel {
	return &models.ReconcileJobModel{
		ID:         job.ID,
		Status:     string(job.Status),
		Trigger:    job.Trigger,
		Total:      job.Total,
		Processed:  job.Processed,
		Repaired:   job.Repaired,
		Percent:    job.Percent,
		Error:      job.Error,
		CreatedAt:  job.CreatedAt,
		UpdatedAt:  job.UpdatedAt,
		StartedAt:  job.StartedAt,
		FinishedAt: job.FinishedAt,
	}
}
