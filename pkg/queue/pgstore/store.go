package pgstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/jobkit/pkg/pg"
	"github.com/dmitrymomot/jobkit/pkg/queue"
)

const jobColumns = `id, kind, args, tags, status, attempts, error, created_at, updated_at`

// DB is the subset of *pgxpool.Pool the store needs
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements queue.Store and queue.Reaper on a PostgreSQL table
type Store struct {
	db         DB
	visibility time.Duration
}

var (
	_ queue.Store  = (*Store)(nil)
	_ queue.Reaper = (*Store)(nil)
)

// New creates a store over db. The schema must exist, see Migrate.
func New(db DB, opts ...Option) *Store {
	s := &Store{db: db, visibility: DefaultVisibilityTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue implements queue.Producer
func (s *Store) Enqueue(ctx context.Context, kind string, args []byte, tags []string) (uuid.UUID, error) {
	if kind == "" {
		return uuid.Nil, queue.ErrKindEmpty
	}

	job := queue.NewJob(kind, args, tags)
	_, err := s.db.Exec(ctx,
		`INSERT INTO jobkit_jobs (id, kind, args, tags, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		job.ID, job.Kind, job.Args, job.Tags, string(queue.JobStatusPending), job.CreatedAt)
	if err != nil {
		return uuid.Nil, wrap("insert job", err)
	}

	return job.ID, nil
}

// Claim implements queue.Consumer
func (s *Store) Claim(ctx context.Context, matches []queue.Match) (*queue.Job, error) {
	if len(matches) == 0 {
		return nil, queue.ErrNoJobToClaim
	}

	query, args := claimQuery(matches)
	job, err := scanJob(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, queue.ErrNoJobToClaim
		}
		return nil, wrap("claim", err)
	}
	return job, nil
}

// claimQuery builds the single claim statement: one OR'd clause per match
func claimQuery(matches []queue.Match) (string, []any) {
	args := []any{string(queue.JobStatusRunning), string(queue.JobStatusPending)}
	clauses := make([]string, 0, len(matches))

	for _, m := range matches {
		args = append(args, m.Kind)
		kindArg := len(args)
		if len(m.Tags) == 0 {
			clauses = append(clauses, fmt.Sprintf("(kind = $%d AND cardinality(tags) = 0)", kindArg))
			continue
		}
		args = append(args, m.Tags)
		clauses = append(clauses, fmt.Sprintf("(kind = $%d AND tags && $%d::text[])", kindArg, len(args)))
	}

	query := `UPDATE jobkit_jobs SET status = $1, attempts = attempts + 1, updated_at = now()
		WHERE id = (
			SELECT id FROM jobkit_jobs
			WHERE status = $2 AND (` + strings.Join(clauses, " OR ") + `)
			ORDER BY seq
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + jobColumns

	return query, args
}

// Ack implements queue.Consumer
func (s *Store) Ack(ctx context.Context, id uuid.UUID, attempt int) error {
	return s.finish(ctx, id, attempt, queue.JobStatusCompleted, "")
}

// Fail implements queue.Consumer
func (s *Store) Fail(ctx context.Context, id uuid.UUID, attempt int, reason string) error {
	return s.finish(ctx, id, attempt, queue.JobStatusFailed, reason)
}

func (s *Store) finish(ctx context.Context, id uuid.UUID, attempt int, status queue.JobStatus, reason string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE jobkit_jobs SET status = $1, error = $2, updated_at = now()
		 WHERE id = $3 AND status = $4 AND attempts = $5`,
		string(status), reason, id, string(queue.JobStatusRunning), attempt)
	if err != nil {
		return wrap(fmt.Sprintf("mark job %s %s", id, status), err)
	}
	return nil
}

// Get implements queue.Inspector
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*queue.Job, error) {
	job, err := scanJob(s.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobkit_jobs WHERE id = $1`, id))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, queue.ErrJobNotFound
		}
		return nil, wrap(fmt.Sprintf("get job %s", id), err)
	}
	return job, nil
}

// Requeue implements queue.Inspector
func (s *Store) Requeue(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE jobkit_jobs SET status = $1, error = '', updated_at = now() WHERE id = $2 AND status = $3`,
		string(queue.JobStatusPending), id, string(queue.JobStatusFailed))
	if err != nil {
		return wrap(fmt.Sprintf("requeue job %s", id), err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return queue.ErrNotRequeueable
}

// VisibilityTimeout implements queue.Reaper
func (s *Store) VisibilityTimeout() time.Duration { return s.visibility }

// Reap implements queue.Reaper using the database clock
func (s *Store) Reap(ctx context.Context) (int, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE jobkit_jobs SET status = $1, updated_at = now()
		 WHERE status = $2 AND updated_at < now() - make_interval(secs => $3)`,
		string(queue.JobStatusPending), string(queue.JobStatusRunning), s.visibility.Seconds())
	if err != nil {
		return 0, wrap("reap", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanJob(row pgx.Row) (*queue.Job, error) {
	var (
		job    queue.Job
		status string
	)
	if err := row.Scan(&job.ID, &job.Kind, &job.Args, &job.Tags, &status,
		&job.Attempts, &job.Error, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return nil, err
	}
	job.Status = queue.JobStatus(status)
	job.Tags = queue.NormalizeTags(job.Tags)
	job.CreatedAt = job.CreatedAt.UTC()
	job.UpdatedAt = job.UpdatedAt.UTC()
	return &job, nil
}

func wrap(op string, err error) error {
	if pg.IsUndefinedTableError(err) {
		return fmt.Errorf("pgstore: %s: %w: %w", op, ErrSchemaMissing, err)
	}
	return fmt.Errorf("pgstore: %s: %w", op, err)
}
