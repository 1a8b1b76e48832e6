package response

import (
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

type IBRequest struct {
	ID                      string     `json:"id"`
	UserID                  string     `json:"user_id"`
	Status                  string     `json:"status"`
	IBType                  string     `json:"ib_type,omitempty"`
	ReferrerID              string     `json:"referrer_id,omitempty"`
	JoinedPlanID            string     `json:"joined_plan_id,omitempty"`
	PlanType                string     `json:"plan_type,omitempty"`
	ShowCommissionStructure bool       `json:"show_commission_structure"`
	IsBanned                bool       `json:"is_banned"`
	RejectionReason         string     `json:"rejection_reason,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
	ApprovedAt              *time.Time `json:"approved_at,omitempty"`
	RejectedAt              *time.Time `json:"rejected_at,omitempty"`
}

func FromIBRequest(r *domain.IBRequest) IBRequest {
	return IBRequest{
		ID:                      r.ID,
		UserID:                  r.UserID,
		Status:                  string(r.Status),
		IBType:                  string(r.IBType),
		ReferrerID:              r.ReferrerID,
		JoinedPlanID:            r.JoinedPlanID,
		PlanType:                string(r.PlanType),
		ShowCommissionStructure: r.ShowCommissionStructure,
		IsBanned:                r.IsBanned,
		RejectionReason:         r.RejectionReason,
		CreatedAt:               r.CreatedAt,
		UpdatedAt:               r.UpdatedAt,
		ApprovedAt:              r.ApprovedAt,
		RejectedAt:              r.RejectedAt,
	}
}

func FromIBRequests(rs []*domain.IBRequest) []IBRequest {
	out := make([]IBRequest, len(rs))
	for i, r := range rs {
		out[i] = FromIBRequest(r)
	}
	return out
}

type GroupRate struct {
	GroupID   string          `json:"group_id"`
	Rate      decimal.Decimal `json:"rate"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func FromGroupRates(rates []domain.GroupPipRate) []GroupRate {
	out := make([]GroupRate, len(rates))
	for i, r := range rates {
		out[i] = GroupRate{GroupID: r.GroupID, Rate: r.Rate, UpdatedAt: r.UpdatedAt}
	}
	return out
}

type TradingGroup struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromTradingGroups(groups []domain.TradingGroup) []TradingGroup {
	out := make([]TradingGroup, len(groups))
	for i, g := range groups {
		out[i] = TradingGroup{ID: g.ID, Name: g.Name, UpdatedAt: g.UpdatedAt}
	}
	return out
}

type ClientReferral struct {
	ClientUserID string    `json:"client_user_id"`
	IBID         string    `json:"ib_id"`
	PlanID       string    `json:"plan_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func FromClientReferral(c *domain.ClientReferral) ClientReferral {
	return ClientReferral{
		ClientUserID: c.ClientUserID,
		IBID:         c.IBID,
		PlanID:       c.PlanID,
		CreatedAt:    c.CreatedAt,
	}
}

type ReferralTree struct {
	IB               IBRequest       `json:"ib"`
	Level            int             `json:"level"`
	TotalDescendants int             `json:"total_descendants"`
	Truncated        bool            `json:"truncated,omitempty"`
	Children         []*ReferralTree `json:"children"`
}

func FromReferralTree(t *domain.ReferralTree) *ReferralTree {
	out := &ReferralTree{
		IB:               FromIBRequest(t.IB),
		Level:            t.Level,
		TotalDescendants: t.TotalDescendants,
		Truncated:        t.Truncated,
		Children:         make([]*ReferralTree, 0, len(t.Children)),
	}
	for _, c := range t.Children {
		out.Children = append(out.Children, FromReferralTree(c))
	}
	return out
}
