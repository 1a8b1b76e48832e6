package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeVolumeEvent is a closed trade reported by the trading platform.
type TradeVolumeEvent struct {
	TradeID      string          `json:"trade_id"`
	AccountID    string          `json:"account_id"`
	ClientUserID string          `json:"user_id"`
	GroupID      string          `json:"group_id"`
	Volume       decimal.Decimal `json:"volume"`
	Timestamp    time.Time       `json:"timestamp"`
}
