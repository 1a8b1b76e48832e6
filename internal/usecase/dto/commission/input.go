package commissiondto

import "github.com/shopspring/decimal"

type DistributeInput struct {
	IBID   string
	Amount decimal.Decimal
	Note   string
}
