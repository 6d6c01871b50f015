package bunt

import (
	"fmt"

	"github.com/tidwall/buntdb"
)

const (
	subscriberPrefix = "sub:"
	ratePrefix       = "rate:"
	rateSeqKey       = "seq:rate"
)

// DB is an embedded key/value store backed by a single file.
type DB struct{ db *buntdb.DB }

// Open opens or creates the store at path; ":memory:" keeps it in memory.
func Open(path string) (*DB, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open buntdb %s: %w", path, err)
	}
	var cfg buntdb.Config
	if err := db.ReadConfig(&cfg); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("read buntdb config: %w", err)
	}
	// subscriptions must survive a crash right after /start
	cfg.SyncPolicy = buntdb.Always
	if err := db.SetConfig(cfg); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure buntdb: %w", err)
	}
	return &DB{db: db}, nil
}

// FromMemory opens an in-memory store.
func FromMemory() (*DB, error) { return Open(":memory:") }

func (d *DB) Close() error { return d.db.Close() }

// Ping reports whether the store is still open.
func (d *DB) Ping() error {
	return d.db.View(func(tx *buntdb.Tx) error {
		_, err := tx.Len()
		return err
	})
}
