package bunt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ratebot-service/internal/application"
	"ratebot-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/tidwall/buntdb"
)

// RateStore keeps observations under "rate:<CODE>:<seq>" where seq is a
// zero-padded insertion counter, so key order is insertion order per code.
type RateStore struct{ d *DB }

var _ application.RateStore = (*RateStore)(nil)

func NewRateStore(d *DB) *RateStore { return &RateStore{d: d} }

type rateRecord struct {
	Code       string    `json:"code"`
	Rate       string    `json:"rate"`
	ObservedAt time.Time `json:"observed_at"`
}

func rateKey(code domain.Code, seq uint64) string {
	return fmt.Sprintf("%s%s:%020d", ratePrefix, code, seq)
}

func (s *RateStore) LastRate(_ context.Context, code domain.Code) (decimal.NullDecimal, error) {
	var out decimal.NullDecimal
	var decodeErr error
	err := s.d.db.View(func(tx *buntdb.Tx) error {
		return tx.DescendKeys(ratePrefix+string(code)+":*", func(_, value string) bool {
			var rec rateRecord
			if decodeErr = json.Unmarshal([]byte(value), &rec); decodeErr != nil {
				return false
			}
			var v decimal.Decimal
			if v, decodeErr = decimal.NewFromString(rec.Rate); decodeErr != nil {
				return false
			}
			out = decimal.NewNullDecimal(v)
			return false
		})
	})
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("read last rate %s: %w", code, err)
	}
	if decodeErr != nil {
		return decimal.NullDecimal{}, fmt.Errorf("decode last rate %s: %w", code, decodeErr)
	}
	return out, nil
}

func (s *RateStore) Append(_ context.Context, o domain.RateObservation) error {
	if err := o.Validate(); err != nil {
		return err
	}
	content, err := json.Marshal(rateRecord{
		Code:       string(o.Code),
		Rate:       o.Rate.String(),
		ObservedAt: o.ObservedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal observation: %w", err)
	}
	return s.d.db.Update(func(tx *buntdb.Tx) error {
		seq, err := nextSeq(tx)
		if err != nil {
			return err
		}
		if _, _, err := tx.Set(rateKey(o.Code, seq), string(content), nil); err != nil {
			return fmt.Errorf("store observation: %w", err)
		}
		return nil
	})
}

func nextSeq(tx *buntdb.Tx) (uint64, error) {
	var seq uint64
	raw, err := tx.Get(rateSeqKey)
	switch {
	case errors.Is(err, buntdb.ErrNotFound):
	case err != nil:
		return 0, fmt.Errorf("read sequence: %w", err)
	default:
		if seq, err = strconv.ParseUint(raw, 10, 64); err != nil {
			return 0, fmt.Errorf("parse sequence %q: %w", raw, err)
		}
	}
	seq++
	if _, _, err := tx.Set(rateSeqKey, strconv.FormatUint(seq, 10), nil); err != nil {
		return 0, fmt.Errorf("write sequence: %w", err)
	}
	return seq, nil
}

func (s *RateStore) Prune(_ context.Context, before time.Time) (int64, error) {
	var deleted int64
	err := s.d.db.Update(func(tx *buntdb.Tx) error {
		var stale []string
		// keys descend per code, so the first key seen for a code is its latest
		seen := map[string]bool{}
		err := tx.DescendKeys(ratePrefix+"*", func(key, value string) bool {
			code := codeOf(key)
			if !seen[code] {
				seen[code] = true
				return true
			}
			var rec rateRecord
			if json.Unmarshal([]byte(value), &rec) == nil && rec.ObservedAt.Before(before) {
				stale = append(stale, key)
			}
			return true
		})
		if err != nil {
			return err
		}
		for _, key := range stale {
			if _, err := tx.Delete(key); err != nil && !errors.Is(err, buntdb.ErrNotFound) {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune rates: %w", err)
	}
	return deleted, nil
}

func codeOf(key string) string {
	rest := strings.TrimPrefix(key, ratePrefix)
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		return rest[:i]
	}
	return rest
}
