package domain

import "github.com/shopspring/decimal"

// AlertThreshold is the absolute change, in base-currency units, at which a
// currency move is reported.
var AlertThreshold = decimal.NewFromInt(100)

// ShouldAlert reports whether current moved at least AlertThreshold away from
// previous. A missing previous rate never alerts.
func ShouldAlert(previous decimal.NullDecimal, current decimal.Decimal) bool {
	if !previous.Valid {
		return false
	}
	return current.Sub(previous.Decimal).Abs().GreaterThanOrEqual(AlertThreshold)
}
