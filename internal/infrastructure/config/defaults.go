package config

import "time"

const (
	DefaultShutdownTimeout = 10 * time.Second
	DefaultPollTimeout     = 10 * time.Second
	DefaultFeedBodyLimit   = 1 << 20
	DefaultPGMaxConns      = 5
	DefaultPGMinConns      = 1
	WebhookPath            = "/telegram/webhook"
)
