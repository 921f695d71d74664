package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/jobkit/pkg/pg"
	"github.com/dmitrymomot/jobkit/pkg/queue"
	"github.com/dmitrymomot/jobkit/pkg/queue/pgstore"
	"github.com/dmitrymomot/jobkit/pkg/queue/redisstore"
	"github.com/dmitrymomot/jobkit/pkg/queue/sqlitestore"
	jobredis "github.com/dmitrymomot/jobkit/pkg/redis"
	"github.com/dmitrymomot/jobkit/pkg/sqlite"
)

// Backend is an opened store together with its health check and cleanup
type Backend struct {
	Kind  Kind
	Store queue.Store

	health  func(context.Context) error
	closers []func() error
}

// Healthcheck pings the underlying connection. The in-process store is always healthy.
func (b *Backend) Healthcheck(ctx context.Context) error {
	if b.health == nil {
		return nil
	}
	return b.health(ctx)
}

// Close releases the store and its connection, most recently opened first
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// OpenStore opens the store serving cfg. In-process modes always get a fresh
// queue.MemoryStorage. Relational backends are migrated when migrateSchema is set.
func OpenStore(ctx context.Context, cfg Config, log *slog.Logger, migrateSchema bool) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}

	kind := cfg.StoreKind()
	var (
		b   *Backend
		err error
	)
	switch kind {
	case KindInProcess:
		mem := queue.NewMemoryStorage()
		b = &Backend{Kind: kind, Store: mem, closers: []func() error{mem.Close}}
	case KindRedis:
		b, err = openRedis(ctx, cfg.Queue, log)
	case KindPostgres:
		b, err = openPostgres(ctx, cfg.Queue, log, migrateSchema)
	case KindSqlite:
		b, err = openSqlite(ctx, cfg.Queue, log, migrateSchema)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Queue.Kind)
	}
	if err != nil {
		return nil, errors.Join(ErrOpenStore, err)
	}

	log.Info("queue store opened",
		slog.String("kind", string(kind)),
		slog.String("mode", string(cfg.Mode())))

	return b, nil
}

func openRedis(ctx context.Context, qc QueueConfig, log *slog.Logger) (*Backend, error) {
	client, err := jobredis.Connect(ctx, jobredis.DefaultConfig(qc.URI))
	if err != nil {
		return nil, err
	}

	opts := []redisstore.Option{redisstore.WithLogger(log)}
	if qc.KeyPrefix != "" {
		opts = append(opts, redisstore.WithKeyPrefix(qc.KeyPrefix))
	}
	if qc.VisibilityTimeout > 0 {
		opts = append(opts, redisstore.WithVisibilityTimeout(qc.VisibilityTimeout))
	}
	if qc.CompletedTTL > 0 {
		opts = append(opts, redisstore.WithCompletedTTL(qc.CompletedTTL))
	}
	store := redisstore.New(client, opts...)

	return &Backend{
		Kind:    KindRedis,
		Store:   store,
		health:  jobredis.Healthcheck(client),
		closers: []func() error{client.Close, store.Close},
	}, nil
}

func openPostgres(ctx context.Context, qc QueueConfig, log *slog.Logger, migrateSchema bool) (*Backend, error) {
	pool, err := pg.Connect(ctx, pg.DefaultConfig(qc.URI))
	if err != nil {
		return nil, err
	}
	closePool := func() error {
		pool.Close()
		return nil
	}

	if migrateSchema {
		if err := pgstore.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return nil, err
		}
	}

	var opts []pgstore.Option
	if qc.VisibilityTimeout > 0 {
		opts = append(opts, pgstore.WithVisibilityTimeout(qc.VisibilityTimeout))
	}

	return &Backend{
		Kind:    KindPostgres,
		Store:   pgstore.New(pool, opts...),
		health:  pg.Healthcheck(pool),
		closers: []func() error{closePool},
	}, nil
}

func openSqlite(ctx context.Context, qc QueueConfig, log *slog.Logger, migrateSchema bool) (*Backend, error) {
	db, err := sqlite.Open(ctx, sqlite.DefaultConfig(sqliteDSN(qc.URI)))
	if err != nil {
		return nil, err
	}

	if migrateSchema {
		if err := sqlitestore.Migrate(ctx, db, log); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	var opts []sqlitestore.Option
	if qc.VisibilityTimeout > 0 {
		opts = append(opts, sqlitestore.WithVisibilityTimeout(qc.VisibilityTimeout))
	}

	return &Backend{
		Kind:    KindSqlite,
		Store:   sqlitestore.New(db, opts...),
		health:  sqlite.Healthcheck(db),
		closers: []func() error{db.Close},
	}, nil
}

// sqliteDSN accepts "sqlite://path", "sqlite:path", "file:path" and plain paths
func sqliteDSN(uri string) string {
	for _, prefix := range []string{"sqlite://", "sqlite3://", "sqlite:"} {
		if rest, ok := strings.CutPrefix(uri, prefix); ok {
			return rest
		}
	}
	return uri
}
