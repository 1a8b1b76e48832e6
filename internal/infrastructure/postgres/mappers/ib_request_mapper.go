package mappers

import (
	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/postgres/models"
)

func ToDomainIBRequest(model *models.IBRequestModel) *domain.IBRequest {
	return &domain.IBRequest{
		ID:                      model.ID,
		UserID:                  model.UserID,
		Status:                  domain.IBRequestStatus(model.Status),
		IBType:                  domain.IBType(model.IBType),
		ReferrerID:              model.ReferrerID,
		JoinedPlanID:            model.JoinedPlanID,
		PlanType:                domain.PlanType(model.PlanType),
		ShowCommissionStructure: model.ShowCommissionStructure,
		IsBanned:                model.IsBanned,
		RejectionReason:         model.RejectionReason,
		CreatedAt:               model.CreatedAt,
		UpdatedAt:               model.UpdatedAt,
		ApprovedAt:              model.ApprovedAt,
		RejectedAt:              model.RejectedAt,
	}
}

func ToGORMIBRequest(req *domain.IBRequest) *models.IBRequestModel {
	return &models.IBRequestModel{
		ID:                      req.ID,
		UserID:                  req.UserID,
		Status:                  string(req.Status),
		IBType:                  string(req.IBType),
		ReferrerID:              req.ReferrerID,
		JoinedPlanID:            req.JoinedPlanID,
		PlanType:                string(req.PlanType),
		ShowCommissionStructure: req.ShowCommissionStructure,
		IsBanned:                req.IsBanned,
		RejectionReason:         req.RejectionReason,
		CreatedAt:               req.CreatedAt,
		UpdatedAt:               req.UpdatedAt,
		ApprovedAt:              req.ApprovedAt,
		RejectedAt:              req.RejectedAt,
	}
}

func ToDomainGroupRate(model *models.GroupPipRateModel) domain.GroupPipRate {
	return domain.GroupPipRate{
		IBID:      model.IBID,
		GroupID:   model.GroupID,
		Rate:      model.Rate,
		UpdatedAt: model.UpdatedAt,
	}
}

func ToGORMGroupRate(rate domain.GroupPipRate) models.GroupPipRateModel {
	return models.GroupPipRateModel{
		IBID:      rate.IBID,
		GroupID:   rate.GroupID,
		Rate:      rate.Rate,
		UpdatedAt: rate.UpdatedAt,
	}
}

func ToDomainClientReferral(model *models.ClientReferralModel) *domain.ClientReferral {
	return &domain.ClientReferral{
		ClientUserID: model.ClientUserID,
		IBID:         model.IBID,
		PlanID:       model.PlanID,
		CreatedAt:    model.CreatedAt,
	}
}

func ToGORMClientReferral(ref *domain.ClientReferral) *models.ClientReferralModel {
	return &models.ClientReferralModel{
		ClientUserID: ref.ClientUserID,
		IBID:         ref.IBID,
		PlanID:       ref.PlanID,
		CreatedAt:    ref.CreatedAt,
	}
}
