package sqlite

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// DriverName is the database/sql driver registered by mattn/go-sqlite3
const DriverName = "sqlite3"

// Open opens and pings the database described by cfg
func Open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	if cfg.DSN == "" {
		return nil, ErrEmptyDSN
	}

	db, err := sqlx.Open(DriverName, withParams(cfg))
	if err != nil {
		return nil, errors.Join(ErrFailedToOpenDB, err)
	}

	// A single connection makes every statement, claims included, run one at a time
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrFailedToOpenDB, err)
	}

	return db, nil
}

// Healthcheck returns a closure that pings the database
func Healthcheck(db *sqlx.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// withParams appends the go-sqlite3 connection parameters not already present in the DSN
func withParams(cfg Config) string {
	dsn := cfg.DSN
	base, query, _ := strings.Cut(dsn, "?")
	params, err := url.ParseQuery(query)
	if err != nil {
		return dsn
	}

	if cfg.BusyTimeout > 0 && params.Get("_busy_timeout") == "" {
		params.Set("_busy_timeout", fmt.Sprint(cfg.BusyTimeout.Milliseconds()))
	}
	if cfg.JournalMode != "" && params.Get("_journal_mode") == "" {
		params.Set("_journal_mode", cfg.JournalMode)
	}
	if params.Get("_foreign_keys") == "" {
		params.Set("_foreign_keys", "on")
	}

	return base + "?" + params.Encode()
}
