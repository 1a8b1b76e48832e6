package request

import "github.com/shopspring/decimal"

type SubmitIBRequest struct {
	UserID        string `json:"user_id"`
	PlanLinkToken string `json:"plan_link_token,omitempty"`
}

type ApproveIBRequest struct {
	IBType                  string                     `json:"ib_type"`
	ReferrerID              string                     `json:"referrer_id,omitempty"`
	GroupRates              map[string]decimal.Decimal `json:"group_rates"`
	PlanType                string                     `json:"plan_type,omitempty"`
	ShowCommissionStructure bool                       `json:"show_commission_structure"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type ChangeIBTypeRequest struct {
	IBType     string `json:"ib_type"`
	ReferrerID string `json:"referrer_id,omitempty"`
}

type SetBannedRequest struct {
	Banned bool `json:"banned"`
}

type SetGroupRatesRequest struct {
	GroupRates map[string]decimal.Decimal `json:"group_rates"`
}

type SetReferrerRequest struct {
	ReferrerID string `json:"referrer_id"`
}

type RegisterClientRequest struct {
	ClientUserID  string `json:"client_user_id"`
	IBID          string `json:"ib_id"`
	PlanLinkToken string `json:"plan_link_token,omitempty"`
}

type TradingGroup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type UpsertGroupsRequest struct {
	Groups []TradingGroup `json:"groups"`
}
