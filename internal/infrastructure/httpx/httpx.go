package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// StatusError reports a non-200 response.
type StatusError struct{ Code int }

func (e *StatusError) Error() string { return fmt.Sprintf("status %d", e.Code) }

type Client struct {
	HTTP *http.Client
	// NewBackOff returns the retry policy for one call. Nil means a short
	// exponential backoff; use NoRetry for a single attempt.
	NewBackOff func() backoff.BackOff
	// MaxBodyBytes caps the decoded body; zero means unlimited.
	MaxBodyBytes int64
}

// NoRetry makes DoJSON perform exactly one attempt.
func NoRetry() backoff.BackOff { return &backoff.StopBackOff{} }

func defaultBackOff() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 200 * time.Millisecond
	exp.MaxInterval = 1 * time.Second
	exp.MaxElapsedTime = 3 * time.Second
	return exp
}

// DoJSON sends req and decodes a 200 JSON body into out. 5xx and transport
// errors are retried according to the policy; anything else is final.
func (c *Client) DoJSON(ctx context.Context, req *http.Request, out any) error {
	if c.HTTP == nil {
		c.HTTP = http.DefaultClient
	}
	newBackOff := c.NewBackOff
	if newBackOff == nil {
		newBackOff = defaultBackOff
	}
	req = req.WithContext(ctx)

	op := func() error {
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return &StatusError{Code: resp.StatusCode}
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(&StatusError{Code: resp.StatusCode})
		}
		var body io.Reader = resp.Body
		if c.MaxBodyBytes > 0 {
			body = io.LimitReader(resp.Body, c.MaxBodyBytes)
		}
		if err := json.NewDecoder(body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode: %w", err))
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithContext(newBackOff(), ctx))
}
