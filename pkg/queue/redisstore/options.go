package redisstore

import (
	"log/slog"
	"time"
)

const (
	DefaultKeyPrefix         = "jobkit"
	DefaultVisibilityTimeout = 5 * time.Minute
	DefaultCompletedTTL      = 24 * time.Hour
	DefaultScanLimit         = 1000
)

// Option configures a Store
type Option func(*Store)

// WithKeyPrefix sets the prefix of every key used by the store
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithVisibilityTimeout sets how long a job may stay in the processing set before Reap requeues it
func WithVisibilityTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.visibility = d
		}
	}
}

// WithCompletedTTL sets how long completed jobs are kept. Zero or negative keeps them forever.
func WithCompletedTTL(d time.Duration) Option {
	return func(s *Store) {
		s.completedTTL = max(d, 0)
	}
}

// WithScanLimit sets how many pending ids a claim reads per page of the pending list
func WithScanLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.scanLimit = n
		}
	}
}

// WithLogger sets the logger used by the notification subscriber
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}
