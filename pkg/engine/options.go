package engine

import "log/slog"

// Option is a functional option for configuring an engine
type Option func(*engineOptions)

type engineOptions struct {
	logger  *slog.Logger
	migrate bool
}

// WithLogger sets the logger shared by the engine components
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithoutMigrations skips applying the relational schema on open
func WithoutMigrations() Option {
	return func(o *engineOptions) {
		o.migrate = false
	}
}
