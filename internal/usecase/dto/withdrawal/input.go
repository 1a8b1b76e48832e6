package withdrawaldto

import (
	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/shopspring/decimal"
)

type RequestWithdrawalInput struct {
	IBID           string
	Amount         decimal.Decimal
	PaymentMethod  string
	PaymentDetails string
}

type RejectWithdrawalInput struct {
	WithdrawalID string
	Reason       string
}

type ListWithdrawalsOutput struct {
	Withdrawals []*domain.WithdrawalRequest
	Total       int64
	Page        int
	Limit       int
}
