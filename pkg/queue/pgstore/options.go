package pgstore

import "time"

// DefaultVisibilityTimeout is how long a claim may stay running before Reap returns it to pending
const DefaultVisibilityTimeout = 5 * time.Minute

// Option configures a Store
type Option func(*Store)

// WithVisibilityTimeout sets the age after which running jobs are considered abandoned
func WithVisibilityTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.visibility = d
		}
	}
}
