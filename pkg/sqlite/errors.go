package sqlite

import "errors"

var (
	ErrEmptyDSN          = errors.New("empty sqlite dsn")
	ErrFailedToOpenDB    = errors.New("failed to open sqlite database")
	ErrHealthcheckFailed = errors.New("sqlite healthcheck failed")
)
