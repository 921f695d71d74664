package migrate

import "errors"

var (
	ErrFailedToApplyMigrations = errors.New("failed to apply migrations")
	ErrNilDatabase             = errors.New("migrate: database is nil")
	ErrNoMigrations            = errors.New("migrate: migration file system is nil")
)
