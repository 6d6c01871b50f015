package domain

import "github.com/shopspring/decimal"

// Rate is a single feed record.
type Rate struct {
	Code  Code
	Value decimal.Decimal
}

// RateSnapshot is the full feed response for one fetch. It lives only for the
// duration of a cycle or a current-rates command.
type RateSnapshot struct {
	Rates []Rate
	// Date is the feed-reported date of the first record, verbatim.
	Date string
}

// Tracked returns the tracked records, one per currency. A code repeated in
// the feed keeps its first position and takes its last value.
func (s RateSnapshot) Tracked() []Rate {
	out := make([]Rate, 0, len(TrackedCurrencies))
	pos := make(map[Code]int, len(TrackedCurrencies))
	for _, r := range s.Rates {
		if !IsTracked(r.Code) {
			continue
		}
		if i, seen := pos[r.Code]; seen {
			out[i].Value = r.Value
			continue
		}
		pos[r.Code] = len(out)
		out = append(out, r)
	}
	return out
}
