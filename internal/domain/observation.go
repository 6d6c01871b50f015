package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateObservation is one stored reading of a currency rate. Observations are
// append-only and ordered by insertion.
type RateObservation struct {
	Code       Code
	Rate       decimal.Decimal
	ObservedAt time.Time
}

func (o RateObservation) Validate() error {
	if !IsTracked(o.Code) {
		return ErrUntrackedCurrency
	}
	return nil
}
