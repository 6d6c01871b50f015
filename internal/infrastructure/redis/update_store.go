package redisstore

import (
	"context"
	"time"

	"ratebot-service/internal/application"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "ratebot:update:"

// Store reserves keys with SETNX so a redelivered Telegram update is handled
// once per TTL window.
type Store struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

var _ application.IdempotencyStore = (*Store)(nil)

func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{Client: client, TTL: ttl, Prefix: defaultPrefix}
}

func (s *Store) TryReserve(ctx context.Context, key string) (bool, error) {
	ok, err := s.Client.SetNX(ctx, s.Prefix+key, "1", s.TTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.Client.Ping(ctx).Err() }
