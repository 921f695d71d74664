package engine

import "errors"

var (
	// ErrUnknownKind is returned for a queue kind other than Redis, Postgres or Sqlite
	ErrUnknownKind = errors.New("unknown queue kind")

	// ErrEmptyURI is returned when a durable backend has no connection URI
	ErrEmptyURI = errors.New("queue uri cannot be empty")

	// ErrOpenStore wraps failures to connect to or migrate the backend
	ErrOpenStore = errors.New("failed to open queue store")

	// ErrNoWorker is returned when worker operations are used without registered handlers
	ErrNoWorker = errors.New("engine has no dispatcher: register at least one handler")
)
