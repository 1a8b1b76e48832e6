package domain

import (
	"context"
	"time"
)

// ClientReferral binds a trading client to the IB that referred them.
type ClientReferral struct {
	ClientUserID string
	IBID         string
	PlanID       string
	CreatedAt    time.Time
}

type ClientReferralRepository interface {
	// CreateClientReferral stores the binding; an existing binding for the same
	// client yields ErrConflict.
	CreateClientReferral(ctx context.Context, ref *ClientReferral) error
	GetClientReferral(ctx context.Context, clientUserID string) (*ClientReferral, error)
	ListClientsByIB(ctx context.Context, ibID string) ([]*ClientReferral, error)
}
