package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Storage precision of the NUMERIC columns. Values outside these bounds
// would be rounded or rejected by PostgreSQL, so they are refused up front
// and every store behaves the same.
const (
	QuantityScale int32 = 3 // NUMERIC(14,3)
	CostScale     int32 = 4 // NUMERIC(14,4)
	PriceScale    int32 = 2 // NUMERIC(14,2)
)

var (
	maxQuantity = decimal.New(1, 14-QuantityScale)
	maxCost     = decimal.New(1, 14-CostScale)
	maxPrice    = decimal.New(1, 14-PriceScale)
)

// CheckQuantity reports a stock quantity the store cannot hold exactly
func CheckQuantity(d decimal.Decimal) error {
	return checkAmount(d, QuantityScale, maxQuantity)
}

// CheckCost reports a unit cost the store cannot hold exactly
func CheckCost(d decimal.Decimal) error {
	return checkAmount(d, CostScale, maxCost)
}

// CheckPrice reports a selling price the store cannot hold exactly
func CheckPrice(d decimal.Decimal) error {
	return checkAmount(d, PriceScale, maxPrice)
}

func checkAmount(d decimal.Decimal, scale int32, limit decimal.Decimal) error {
	if !d.Equal(d.Truncate(scale)) {
		return fmt.Errorf("must have at most %d decimal places", scale)
	}
	if d.Abs().GreaterThanOrEqual(limit) {
		return fmt.Errorf("must be less than %s", limit)
	}
	return nil
}
