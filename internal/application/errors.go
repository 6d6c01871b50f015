package application

import "errors"

var (
	ErrFeedUnavailable = errors.New("rate feed unavailable")
	ErrNoTrackedRates  = errors.New("no tracked currencies in feed")
	ErrForbidden       = errors.New("forbidden")
)
