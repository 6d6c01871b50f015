package bunt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ratebot-service/internal/application"
	"ratebot-service/internal/domain"

	"github.com/tidwall/buntdb"
)

type SubscriberStore struct{ d *DB }

var _ application.SubscriberStore = (*SubscriberStore)(nil)

func NewSubscriberStore(d *DB) *SubscriberStore { return &SubscriberStore{d: d} }

func subscriberKey(id domain.SubscriberID) string {
	return subscriberPrefix + strconv.FormatInt(int64(id), 10)
}

func (s *SubscriberStore) Add(_ context.Context, id domain.SubscriberID) error {
	return s.d.db.Update(func(tx *buntdb.Tx) error {
		key := subscriberKey(id)
		if _, err := tx.Get(key); err == nil {
			return nil
		}
		_, _, err := tx.Set(key, time.Now().UTC().Format(time.RFC3339), nil)
		return err
	})
}

func (s *SubscriberStore) Remove(_ context.Context, id domain.SubscriberID) error {
	return s.d.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(subscriberKey(id))
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil
		}
		return err
	})
}

func (s *SubscriberStore) List(_ context.Context) ([]domain.SubscriberID, error) {
	var out []domain.SubscriberID
	var parseErr error
	err := s.d.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(subscriberPrefix+"*", func(key, _ string) bool {
			id, err := strconv.ParseInt(strings.TrimPrefix(key, subscriberPrefix), 10, 64)
			if err != nil {
				parseErr = fmt.Errorf("bad subscriber key %q: %w", key, err)
				return false
			}
			out = append(out, domain.SubscriberID(id))
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return out, parseErr
}
