package ibrequestdto

import (
	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/shopspring/decimal"
)

type SubmitIBRequestInput struct {
	UserID        string
	PlanLinkToken string
}

type ApproveIBRequestInput struct {
	RequestID               string
	IBType                  domain.IBType
	ReferrerID              string
	GroupRates              map[string]decimal.Decimal
	PlanType                domain.PlanType
	ShowCommissionStructure bool
}

type RejectIBRequestInput struct {
	RequestID string
	Reason    string
}

type ChangeIBTypeInput struct {
	RequestID  string
	IBType     domain.IBType
	ReferrerID string
}

type SetBannedInput struct {
	RequestID string
	Banned    bool
}

type SetGroupRatesInput struct {
	IBID       string
	GroupRates map[string]decimal.Decimal
}
