package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ratebot-service/internal/domain"

	"go.uber.org/zap"
)

// Commands implements the chat commands. Every method returns the reply text
// to send back to the caller, also when it returns an error.
type Commands struct {
	subs         SubscriberStore
	source       RateSource
	cycle        CycleRunner
	adminID      domain.SubscriberID
	fetchTimeout time.Duration
	log          *zap.Logger
}

type CommandsConfig struct {
	// AdminID restricts Refresh to a single user when non-zero.
	AdminID      domain.SubscriberID
	FetchTimeout time.Duration
	Log          *zap.Logger
}

func NewCommands(subs SubscriberStore, source RateSource, cycle CycleRunner, cfg CommandsConfig) *Commands {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Commands{
		subs:         subs,
		source:       source,
		cycle:        cycle,
		adminID:      cfg.AdminID,
		fetchTimeout: cfg.FetchTimeout,
		log:          log,
	}
}

func (c *Commands) Subscribe(ctx context.Context, id domain.SubscriberID) (string, error) {
	if err := id.Validate(); err != nil {
		return ReplyError, err
	}
	if err := c.subs.Add(ctx, id); err != nil {
		return ReplyError, fmt.Errorf("subscribe %d: %w", id, err)
	}
	c.log.Info("subscriber.added", zap.Int64("id", int64(id)))
	return ReplySubscribed, nil
}

func (c *Commands) Unsubscribe(ctx context.Context, id domain.SubscriberID) (string, error) {
	if err := id.Validate(); err != nil {
		return ReplyError, err
	}
	if err := c.subs.Remove(ctx, id); err != nil {
		return ReplyError, fmt.Errorf("unsubscribe %d: %w", id, err)
	}
	c.log.Info("subscriber.removed", zap.Int64("id", int64(id)))
	return ReplyUnsubscribed, nil
}

// CurrentRates fetches the feed once and formats the tracked rates. It does
// not touch the stores and never alerts.
func (c *Commands) CurrentRates(ctx context.Context) (string, error) {
	snap, err := fetch(ctx, c.source, c.fetchTimeout)
	if err != nil {
		return ReplyError, err
	}
	return CurrentRatesText(snap.Tracked(), snap.Date), nil
}

// Refresh runs a full ingestion cycle on behalf of caller.
func (c *Commands) Refresh(ctx context.Context, caller domain.SubscriberID) (string, error) {
	if c.adminID != 0 && caller != c.adminID {
		c.log.Warn("refresh.forbidden", zap.Int64("caller", int64(caller)))
		return ReplyForbidden, ErrForbidden
	}
	if _, err := c.cycle.Run(ctx); err != nil && !errors.Is(err, ErrNoTrackedRates) {
		return ReplyError, err
	}
	return ReplyRefreshed, nil
}

func (c *Commands) Help() string { return ReplyHelp }
