package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice normalizes a best-effort price string from the market lookup
// endpoint into an exact decimal. The upstream returns locale formats such
// as "2,50€", "$3.40" or "1.234,56€", and placeholder dashes ("2,--€")
// when it has no data for the fractional part.
func ParsePrice(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.ReplaceAll(clean, "€", "")
	clean = strings.ReplaceAll(clean, "$", "")
	clean = strings.TrimSpace(clean)

	// A leading minus is a real negative, not a placeholder dash.
	if strings.HasPrefix(clean, "-") {
		return decimal.Zero, ErrInvalidAmount
	}

	// Thousands separator before a comma decimal: "1.234,56" -> "1234,56".
	if strings.Contains(clean, ",") {
		clean = strings.ReplaceAll(clean, ".", "")
	}
	clean = strings.ReplaceAll(clean, ",", ".")

	clean = strings.ReplaceAll(clean, "--", "00")
	clean = strings.ReplaceAll(clean, "-", "00")

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParsePriceToCents is ParsePrice rounded to cents for storage as a
// holding's unit price.
func ParsePriceToCents(s string) (Money, error) {
	d, err := ParsePrice(s)
	if err != nil {
		return Money{}, err
	}
	return MoneyFromDecimal(d), nil
}
