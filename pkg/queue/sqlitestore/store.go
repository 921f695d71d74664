package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dmitrymomot/jobkit/pkg/queue"
)

const jobColumns = `seq, id, kind, args, tags, status, attempts, error, created_at, updated_at`

// Store implements queue.Store and queue.Reaper on a SQLite table
type Store struct {
	db         *sqlx.DB
	visibility time.Duration
}

var (
	_ queue.Store  = (*Store)(nil)
	_ queue.Reaper = (*Store)(nil)
)

// New creates a store over db. The schema must exist, see Migrate.
func New(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{db: db, visibility: DefaultVisibilityTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type jobRow struct {
	Seq       int64  `db:"seq"`
	ID        string `db:"id"`
	Kind      string `db:"kind"`
	Args      []byte `db:"args"`
	Tags      string `db:"tags"`
	Status    string `db:"status"`
	Attempts  int    `db:"attempts"`
	Error     string `db:"error"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

func (r jobRow) toJob() (*queue.Job, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: invalid job id %q: %w", r.ID, err)
	}
	var tags []string
	if err := json.Unmarshal([]byte(r.Tags), &tags); err != nil {
		return nil, fmt.Errorf("sqlitestore: invalid tags of job %s: %w", r.ID, err)
	}
	return &queue.Job{
		ID:        id,
		Kind:      r.Kind,
		Args:      r.Args,
		Tags:      queue.NormalizeTags(tags),
		Status:    queue.JobStatus(r.Status),
		Attempts:  r.Attempts,
		Error:     r.Error,
		CreatedAt: time.UnixMilli(r.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(r.UpdatedAt).UTC(),
	}, nil
}

func nowMillis() int64 {
	return time.Now().UTC().UnixMilli()
}

// Enqueue implements queue.Producer
func (s *Store) Enqueue(ctx context.Context, kind string, args []byte, tags []string) (uuid.UUID, error) {
	if kind == "" {
		return uuid.Nil, queue.ErrKindEmpty
	}

	job := queue.NewJob(kind, args, tags)
	encodedTags, err := json.Marshal(job.Tags)
	if err != nil {
		return uuid.Nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobkit_jobs (id, kind, args, tags, status, attempts, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, '', ?, ?)`,
		job.ID.String(), job.Kind, job.Args, string(encodedTags), string(queue.JobStatusPending),
		job.CreatedAt.UnixMilli(), job.UpdatedAt.UnixMilli())
	if err != nil {
		return uuid.Nil, fmt.Errorf("sqlitestore: insert job: %w", err)
	}

	return job.ID, nil
}

// Claim implements queue.Consumer
func (s *Store) Claim(ctx context.Context, matches []queue.Match) (*queue.Job, error) {
	if len(matches) == 0 {
		return nil, queue.ErrNoJobToClaim
	}

	clauses := make([]string, 0, len(matches))
	args := []any{string(queue.JobStatusRunning), nowMillis(), string(queue.JobStatusPending)}
	for _, m := range matches {
		if len(m.Tags) == 0 {
			clauses = append(clauses, `(j.kind = ? AND json_array_length(j.tags) = 0)`)
			args = append(args, m.Kind)
			continue
		}
		clauses = append(clauses, `(j.kind = ? AND EXISTS (SELECT 1 FROM json_each(j.tags) WHERE json_each.value IN (?)))`)
		args = append(args, m.Kind, m.Tags)
	}

	query := `UPDATE jobkit_jobs SET status = ?, attempts = attempts + 1, updated_at = ?
		WHERE seq = (
			SELECT j.seq FROM jobkit_jobs j
			WHERE j.status = ? AND (` + strings.Join(clauses, " OR ") + `)
			ORDER BY j.seq LIMIT 1
		)
		RETURNING ` + jobColumns

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: build claim query: %w", err)
	}

	var row jobRow
	if err := s.db.QueryRowxContext(ctx, s.db.Rebind(query), args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, queue.ErrNoJobToClaim
		}
		return nil, fmt.Errorf("sqlitestore: claim: %w", err)
	}

	return row.toJob()
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
	_, err := s.db.ExecContext(ctx,
		`UPDATE jobkit_jobs SET status = ?, error = ?, updated_at = ? WHERE id = ? AND status = ? AND attempts = ?`,
		string(status), reason, nowMillis(), id.String(), string(queue.JobStatusRunning), attempt)
	if err != nil {
		return fmt.Errorf("sqlitestore: mark job %s %s: %w", id, status, err)
	}
	return nil
}

// Get implements queue.Inspector
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*queue.Job, error) {
	var row jobRow
	err := s.db.GetContext(ctx, &row, `SELECT `+jobColumns+` FROM jobkit_jobs WHERE id = ?`, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, queue.ErrJobNotFound
		}
		return nil, fmt.Errorf("sqlitestore: get job %s: %w", id, err)
	}
	return row.toJob()
}

// Requeue implements queue.Inspector
func (s *Store) Requeue(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobkit_jobs SET status = ?, error = '', updated_at = ? WHERE id = ? AND status = ?`,
		string(queue.JobStatusPending), nowMillis(), id.String(), string(queue.JobStatusFailed))
	if err != nil {
		return fmt.Errorf("sqlitestore: requeue job %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return queue.ErrNotRequeueable
}

// VisibilityTimeout implements queue.Reaper
func (s *Store) VisibilityTimeout() time.Duration { return s.visibility }

// Reap implements queue.Reaper: running jobs untouched for longer than the
// visibility timeout go back to pending.
func (s *Store) Reap(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobkit_jobs SET status = ?, updated_at = ? WHERE status = ? AND updated_at < ?`,
		string(queue.JobStatusPending), now.UnixMilli(), string(queue.JobStatusRunning),
		now.Add(-s.visibility).UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: reap: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: reap: %w", err)
	}
	return int(n), nil
}
