package domain

import "time"

type RateEventType string

const (
	RateEventObserved RateEventType = "observed"
	RateEventAlert    RateEventType = "alert"
)

// RateEvent is published to the event stream for every stored observation
// and every alert.
type RateEvent struct {
	Type       RateEventType `json:"type"`
	Code       Code          `json:"code"`
	Rate       string        `json:"rate"`
	Previous   string        `json:"previous,omitempty"`
	Base       string        `json:"base"`
	ObservedAt time.Time     `json:"observed_at"`
}
