package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ratebot-service/internal/application"
	"ratebot-service/internal/domain"
	infraconfig "ratebot-service/internal/infrastructure/config"
	"ratebot-service/internal/infrastructure/httpx"

	"github.com/shopspring/decimal"
)

// CBUProvider reads the Central Bank of Uzbekistan daily rate feed.
type CBUProvider struct {
	URL    string
	Client *http.Client
}

var _ application.RateSource = (*CBUProvider)(nil)

var errEmptyFeed = errors.New("cbu: empty feed")

type cbuRecord struct {
	Ccy  string      `json:"Ccy"`
	Rate json.Number `json:"Rate"`
	Date string      `json:"Date"`
}

// Fetch performs a single GET; failures are not retried.
func (p *CBUProvider) Fetch(ctx context.Context) (domain.RateSnapshot, error) {
	if p.URL == "" {
		return domain.RateSnapshot{}, errors.New("cbu: missing feed url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("cbu: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	hc := &httpx.Client{
		HTTP:         p.Client,
		NewBackOff:   httpx.NoRetry,
		MaxBodyBytes: infraconfig.DefaultFeedBodyLimit,
	}
	var records []cbuRecord
	if err := hc.DoJSON(ctx, req, &records); err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("cbu: %w", err)
	}
	if len(records) == 0 {
		return domain.RateSnapshot{}, errEmptyFeed
	}

	snap := domain.RateSnapshot{
		Rates: make([]domain.Rate, 0, len(records)),
		Date:  records[0].Date,
	}
	for _, r := range records {
		v, err := decimal.NewFromString(r.Rate.String())
		if err != nil {
			return domain.RateSnapshot{}, fmt.Errorf("cbu: parse rate %s %q: %w", r.Ccy, r.Rate, err)
		}
		snap.Rates = append(snap.Rates, domain.Rate{Code: domain.NormalizeCode(r.Ccy), Value: v})
	}
	return snap, nil
}
