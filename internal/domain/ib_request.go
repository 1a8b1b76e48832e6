package domain

import (
	"context"
	"fmt"
	"time"
)

type IBRequestStatus string

const (
	IBRequestPending  IBRequestStatus = "PENDING"
	IBRequestApproved IBRequestStatus = "APPROVED"
	IBRequestRejected IBRequestStatus = "REJECTED"
)

type IBType string

const (
	IBTypeMaster IBType = "MASTER"
	IBTypeSubIB  IBType = "SUB_IB"
)

func (t IBType) Valid() bool {
	return t == IBTypeMaster || t == IBTypeSubIB
}

type PlanType string

const (
	PlanTypeUnset    PlanType = ""
	PlanTypeNormal   PlanType = "NORMAL"
	PlanTypeAdvanced PlanType = "ADVANCED"
)

func (p PlanType) Valid() bool {
	return p == PlanTypeUnset || p == PlanTypeNormal || p == PlanTypeAdvanced
}

// IBRequest is an applicant's request to become an introducing broker. Once
// approved it is the IB itself: its id is the IB id used everywhere else.
type IBRequest struct {
	ID                      string
	UserID                  string
	Status                  IBRequestStatus
	IBType                  IBType
	ReferrerID              string
	JoinedPlanID            string
	PlanType                PlanType
	ShowCommissionStructure bool
	IsBanned                bool
	RejectionReason         string
	CreatedAt               time.Time
	UpdatedAt               time.Time
	ApprovedAt              *time.Time
	RejectedAt              *time.Time
}

type IBApproval struct {
	IBType                  IBType
	ReferrerID              string
	GroupRates              []GroupPipRate
	PlanType                PlanType
	ShowCommissionStructure bool
}

func (r *IBRequest) IsApprovedIB() bool {
	return r.Status == IBRequestApproved && r.IBType.Valid()
}

func (r *IBRequest) Approve(a IBApproval, at time.Time) error {
	if r.Status != IBRequestPending {
		return fmt.Errorf("%w: ib request %s is %s, expected %s", ErrConflict, r.ID, r.Status, IBRequestPending)
	}
	r.Status = IBRequestApproved
	r.IBType = a.IBType
	r.ReferrerID = ""
	if a.IBType == IBTypeSubIB {
		r.ReferrerID = a.ReferrerID
	}
	r.PlanType = a.PlanType
	r.ShowCommissionStructure = a.ShowCommissionStructure
	r.ApprovedAt = &at
	r.UpdatedAt = at
	return nil
}

func (r *IBRequest) Reject(reason string, at time.Time) error {
	if r.Status != IBRequestPending {
		return fmt.Errorf("%w: ib request %s is %s, expected %s", ErrConflict, r.ID, r.Status, IBRequestPending)
	}
	r.Status = IBRequestRejected
	r.RejectionReason = reason
	r.RejectedAt = &at
	r.UpdatedAt = at
	return nil
}

// ChangeType switches an approved IB between master and sub-IB. Switching to
// master clears the referrer.
func (r *IBRequest) ChangeType(newType IBType, referrerID string, at time.Time) error {
	if r.Status != IBRequestApproved {
		return fmt.Errorf("%w: ib request %s is %s, expected %s", ErrConflict, r.ID, r.Status, IBRequestApproved)
	}
	r.IBType = newType
	r.ReferrerID = ""
	if newType == IBTypeSubIB {
		r.ReferrerID = referrerID
	}
	r.UpdatedAt = at
	return nil
}

func (r *IBRequest) SetBanned(banned bool, at time.Time) error {
	if r.Status != IBRequestApproved {
		return fmt.Errorf("%w: ib request %s is %s, expected %s", ErrConflict, r.ID, r.Status, IBRequestApproved)
	}
	r.IsBanned = banned
	r.UpdatedAt = at
	return nil
}

type IBRequestFilter struct {
	Status IBRequestStatus
	IBType IBType
	Page   int
	Limit  int
}

// NodeLookup resolves an IB inside the scope that holds the referral graph
// lock. It returns ErrNotFound for unknown ids.
type NodeLookup func(ctx context.Context, ibID string) (*IBRequest, error)

// ReferralCheck validates a referral edge before it is written. Repositories
// run it after taking the graph-wide lock, so the check and the write are
// atomic with respect to other graph mutations.
type ReferralCheck func(ctx context.Context, lookup NodeLookup) error

type IBRequestRepository interface {
	CreateIBRequest(ctx context.Context, req *IBRequest) error
	GetIBRequestByID(ctx context.Context, id string) (*IBRequest, error)
	GetIBRequestByUserID(ctx context.Context, userID string) (*IBRequest, error)
	ListIBRequests(ctx context.Context, filter IBRequestFilter) ([]*IBRequest, int64, error)
	// GetReferrals returns approved IBs whose referrer is one of referrerIDs.
	GetReferrals(ctx context.Context, referrerIDs []string) ([]*IBRequest, error)

	// ApproveIBRequest approves the request, stores its group rates and opens
	// its commission account in one transaction. check is run for sub-IBs.
	ApproveIBRequest(ctx context.Context, id string, approval IBApproval, at time.Time, check ReferralCheck) (*IBRequest, error)
	RejectIBRequest(ctx context.Context, id, reason string, at time.Time) (*IBRequest, error)
	ChangeIBType(ctx context.Context, id string, newType IBType, referrerID string, at time.Time, check ReferralCheck) (*IBRequest, error)
	SetIBBanned(ctx context.Context, id string, banned bool, at time.Time) (*IBRequest, error)

	GetGroupRates(ctx context.Context, ibID string) ([]GroupPipRate, error)
	// GetGroupRatesFor returns the configured rate of groupID for each of ibIDs
	// that has one. IBs without a row are absent from the map.
	GetGroupRatesFor(ctx context.Context, ibIDs []string, groupID string) (map[string]GroupPipRate, error)
	ReplaceGroupRates(ctx context.Context, ibID string, rates []GroupPipRate) error
}
