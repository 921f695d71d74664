package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
)

// DefaultTable is the goose version table shared by the relational backends
const DefaultTable = "jobkit_schema_migrations"

// Logger is the subset of *slog.Logger used to route goose output
type Logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// Source describes a set of migrations embedded in a backend package
type Source struct {
	Dialect string // goose dialect: "postgres", "sqlite3"
	FS      fs.FS
	Dir     string
	Table   string // defaults to DefaultTable
}

var mu sync.Mutex

// Up applies all pending migrations of src to db
func Up(ctx context.Context, db *sql.DB, src Source, log Logger) error {
	if db == nil {
		return errors.Join(ErrFailedToApplyMigrations, ErrNilDatabase)
	}
	if src.FS == nil {
		return errors.Join(ErrFailedToApplyMigrations, ErrNoMigrations)
	}
	if src.Table == "" {
		src.Table = DefaultTable
	}
	if src.Dir == "" {
		src.Dir = "."
	}

	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(src.FS)
	defer goose.SetBaseFS(nil)

	if log != nil {
		goose.SetLogger(newSlogAdapter(log))
	} else {
		goose.SetLogger(goose.NopLogger())
	}
	goose.SetTableName(src.Table)

	if err := goose.SetDialect(src.Dialect); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	if err := goose.UpContext(ctx, db, src.Dir); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	return nil
}

// slogAdapter bridges goose's Printf-style logging to structured logging
type slogAdapter struct {
	log Logger
}

func newSlogAdapter(log Logger) goose.Logger {
	return &slogAdapter{log: log}
}

func (a *slogAdapter) Fatalf(format string, v ...any) {
	a.log.ErrorContext(context.Background(), fmt.Sprintf(format, v...))
}

func (a *slogAdapter) Printf(format string, v ...any) {
	a.log.InfoContext(context.Background(), fmt.Sprintf(format, v...))
}
