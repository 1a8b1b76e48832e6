package response

import (
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/shopspring/decimal"
)

type Plan struct {
	ID          string                                `json:"id"`
	OwnerIBID   string                                `json:"owner_ib_id"`
	Name        string                                `json:"name"`
	LevelsCount int                                   `json:"levels_count"`
	Structure   map[string]map[string]decimal.Decimal `json:"structure"`
	LinkToken   string                                `json:"link_token"`
	CreatedAt   time.Time                             `json:"created_at"`
	UpdatedAt   time.Time                             `json:"updated_at"`
}

func FromPlan(p *domain.CommissionPlan) Plan {
	return Plan{
		ID:          p.ID,
		OwnerIBID:   p.OwnerIBID,
		Name:        p.Name,
		LevelsCount: p.LevelsCount,
		Structure:   labelled(p.Structure),
		LinkToken:   p.LinkToken,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func labelled(structure map[string]map[int]decimal.Decimal) map[string]map[string]decimal.Decimal {
	out := make(map[string]map[string]decimal.Decimal, len(structure))
	for groupID, levels := range structure {
		rates := make(map[string]decimal.Decimal, len(levels))
		for level, rate := range levels {
			rates[domain.LevelLabel(level)] = rate
		}
		out[groupID] = rates
	}
	return out
}

type LedgerEntry struct {
	ID        string          `json:"id"`
	IBID      string          `json:"ib_id"`
	TradeID   string          `json:"trade_id"`
	Kind      string          `json:"kind"`
	Level     int             `json:"level"`
	GroupID   string          `json:"group_id"`
	Volume    decimal.Decimal `json:"volume"`
	Rate      decimal.Decimal `json:"rate"`
	Amount    decimal.Decimal `json:"amount"`
	TradeTime time.Time       `json:"trade_time"`
	CreatedAt time.Time       `json:"created_at"`
}

func FromLedgerEntries(entries []*domain.CommissionLedgerEntry) []LedgerEntry {
	out := make([]LedgerEntry, len(entries))
	for i, e := range entries {
		out[i] = LedgerEntry{
			ID:        e.ID,
			IBID:      e.IBID,
			TradeID:   e.TradeID,
			Kind:      string(e.Kind),
			Level:     e.Level,
			GroupID:   e.GroupID,
			Volume:    e.Volume,
			Rate:      e.Rate,
			Amount:    e.Amount,
			TradeTime: e.TradeTime,
			CreatedAt: e.CreatedAt,
		}
	}
	return out
}

type ProcessTrade struct {
	TradeID  string          `json:"trade_id"`
	Outcome  string          `json:"outcome"`
	DirectIB string          `json:"direct_ib,omitempty"`
	Inserted int             `json:"inserted"`
	Total    decimal.Decimal `json:"total"`
	Entries  []LedgerEntry   `json:"entries"`
}

type LevelTotal struct {
	Kind   string          `json:"kind"`
	Level  int             `json:"level"`
	Amount decimal.Decimal `json:"amount"`
	Trades int64           `json:"trades"`
}

type Summary struct {
	IBID                  string          `json:"ib_id"`
	TotalCommission       decimal.Decimal `json:"total_commission"`
	DistributedCommission decimal.Decimal `json:"distributed_commission"`
	AvailableBalance      decimal.Decimal `json:"available_balance"`
	DirectCommission      decimal.Decimal `json:"direct_commission"`
	ResidualCommission    decimal.Decimal `json:"residual_commission"`
	Levels                []LevelTotal    `json:"levels"`
}

func FromSummary(s *domain.CommissionSummary) Summary {
	levels := make([]LevelTotal, len(s.Levels))
	for i, l := range s.Levels {
		levels[i] = LevelTotal{Kind: string(l.Kind), Level: l.Level, Amount: l.Amount, Trades: l.Trades}
	}
	return Summary{
		IBID:                  s.IBID,
		TotalCommission:       s.TotalCommission,
		DistributedCommission: s.DistributedCommission,
		AvailableBalance:      s.AvailableBalance,
		DirectCommission:      s.DirectCommission,
		ResidualCommission:    s.ResidualCommission,
		Levels:                levels,
	}
}

type Distribution struct {
	ID           string          `json:"id"`
	IBID         string          `json:"ib_id"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note,omitempty"`
	Source       string          `json:"source"`
	WithdrawalID string          `json:"withdrawal_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func FromDistribution(d *domain.Distribution) Distribution {
	return Distribution{
		ID:           d.ID,
		IBID:         d.IBID,
		Amount:       d.Amount,
		Note:         d.Note,
		Source:       string(d.Source),
		WithdrawalID: d.WithdrawalID,
		CreatedAt:    d.CreatedAt,
	}
}

type Withdrawal struct {
	ID              string          `json:"id"`
	IBID            string          `json:"ib_id"`
	UserID          string          `json:"user_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentDetails  string          `json:"payment_details,omitempty"`
	Status          string          `json:"status"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	DistributionID  string          `json:"distribution_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
}

func FromWithdrawal(w *domain.WithdrawalRequest) Withdrawal {
	return Withdrawal{
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
		ApprovedAt:      w.ApprovedAt,
		RejectedAt:      w.RejectedAt,
	}
}

type ReconcileJob struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	Trigger    string     `json:"trigger"`
	Total      int        `json:"total"`
	Processed  int        `json:"processed"`
	Repaired   int        `json:"repaired"`
	Percent    float64    `json:"percent"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func FromReconcileJob(j *domain.ReconcileJob) ReconcileJob {
	return ReconcileJob{
		ID:         j.ID,
		Status:     string(j.Status),
		Trigger:    j.Trigger,
		Total:      j.Total,
		Processed:  j.Processed,
		Repaired:   j.Repaired,
		Percent:    j.Percent,
		Error:      j.Error,
		CreatedAt:  j.CreatedAt,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
	}
}
