package core

import "github.com/shopspring/decimal"

// FeeRate is the liquidation haircut applied to the gross market value of
// external holdings. Fixed for this domain.
var FeeRate = decimal.RequireFromString("0.15")

var netFactor = decimal.NewFromInt(1).Sub(FeeRate)

// Value computes the gross and net worth of an external holdings list.
// Gross is the sum of quantity times unit price; net applies the
// liquidation haircut to the whole position. Exact decimal arithmetic,
// rounded to cents once at the end.
func Value(holdings []HoldingsItem) (gross, net Money) {
	sum := decimal.Zero
	for _, h := range holdings {
		sum = sum.Add(h.UnitPrice.Decimal().Mul(decimal.NewFromInt(h.Quantity)))
	}
	gross = MoneyFromDecimal(sum)
	net = MoneyFromDecimal(sum.Mul(netFactor))
	return gross, net
}

// ItemNetValue is the net contribution of a single holding, with the same
// haircut applied.
func ItemNetValue(h HoldingsItem) Money {
	v := h.UnitPrice.Decimal().Mul(decimal.NewFromInt(h.Quantity)).Mul(netFactor)
	return MoneyFromDecimal(v)
}
