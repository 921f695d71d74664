package sqlite

import "time"

// Config describes the SQLite database file and connection settings
type Config struct {
	DSN         string        `env:"JOBKIT_SQLITE_DSN"`                          // DSN is a path or a "file:" URI.
	BusyTimeout time.Duration `env:"JOBKIT_SQLITE_BUSY_TIMEOUT" envDefault:"5s"` // BusyTimeout is how long a locked database is retried before SQLITE_BUSY.
	JournalMode string        `env:"JOBKIT_SQLITE_JOURNAL_MODE" envDefault:"WAL"`
}

// DefaultConfig returns the defaults for the given DSN
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:         dsn,
		BusyTimeout: 5 * time.Second,
		JournalMode: "WAL",
	}
}
