package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/jobkit/pkg/queue"
)

// Store implements queue.Store, queue.Reaper and queue.Notifier on Redis
type Store struct {
	client       redis.UniversalClient
	prefix       string
	visibility   time.Duration
	completedTTL time.Duration
	scanLimit    int
	logger       *slog.Logger

	notifyOnce sync.Once
	mu         sync.Mutex
	notify     chan struct{}
	pubsub     *redis.PubSub
	closed     bool
}

var (
	_ queue.Store    = (*Store)(nil)
	_ queue.Reaper   = (*Store)(nil)
	_ queue.Notifier = (*Store)(nil)
)

// New creates a store over client
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client:       client,
		prefix:       DefaultKeyPrefix,
		visibility:   DefaultVisibilityTimeout,
		completedTTL: DefaultCompletedTTL,
		scanLimit:    DefaultScanLimit,
		logger:       slog.Default(),
		notify:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) jobKeyPrefix() string   { return s.prefix + ":job:" }
func (s *Store) jobKey(id string) string { return s.jobKeyPrefix() + id }
func (s *Store) pendingKey() string      { return s.prefix + ":pending" }
func (s *Store) processingKey() string   { return s.prefix + ":processing" }
func (s *Store) notifyChannel() string   { return s.prefix + ":notify" }

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
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

	id := job.ID.String()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.jobKey(id),
			"id", id,
			"kind", job.Kind,
			"args", job.Args,
			"tags", string(encodedTags),
			"status", string(queue.JobStatusPending),
			"attempts", 0,
			"error", "",
			"created_at", formatTime(job.CreatedAt),
			"updated_at", formatTime(job.UpdatedAt),
		)
		pipe.RPush(ctx, s.pendingKey(), id)
		pipe.Publish(ctx, s.notifyChannel(), id)
		return nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("redisstore: enqueue: %w", err)
	}

	return job.ID, nil
}

// Claim implements queue.Consumer
func (s *Store) Claim(ctx context.Context, matches []queue.Match) (*queue.Job, error) {
	if len(matches) == 0 {
		return nil, queue.ErrNoJobToClaim
	}

	normalized := make([]queue.Match, len(matches))
	for i, m := range matches {
		normalized[i] = queue.Match{Kind: m.Kind, Tags: queue.NormalizeTags(m.Tags)}
	}
	encoded, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("redisstore: encode matches: %w", err)
	}

	now := time.Now().UTC()
	fields, err := claimScript.Run(ctx, s.client,
		[]string{s.pendingKey(), s.processingKey()},
		s.jobKeyPrefix(), string(encoded), now.UnixMilli(), formatTime(now), s.scanLimit,
	).StringSlice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, queue.ErrNoJobToClaim
		}
		return nil, fmt.Errorf("redisstore: claim: %w", err)
	}

	values := make(map[string]string, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		values[fields[i]] = fields[i+1]
	}
	return decodeJob(values)
}

// Ack implements queue.Consumer. Completed jobs expire after the completed TTL.
func (s *Store) Ack(ctx context.Context, id uuid.UUID, attempt int) error {
	return s.finish(ctx, id, attempt, queue.JobStatusCompleted, "", s.completedTTL)
}

// Fail implements queue.Consumer. Failed jobs are kept until requeued.
func (s *Store) Fail(ctx context.Context, id uuid.UUID, attempt int, reason string) error {
	return s.finish(ctx, id, attempt, queue.JobStatusFailed, reason, 0)
}

func (s *Store) finish(ctx context.Context, id uuid.UUID, attempt int, status queue.JobStatus, reason string, ttl time.Duration) error {
	key := id.String()
	err := finishScript.Run(ctx, s.client,
		[]string{s.jobKey(key), s.processingKey()},
		key, string(status), reason, formatTime(time.Now()), ttl.Milliseconds(), attempt,
	).Err()
	if err != nil {
		return fmt.Errorf("redisstore: mark job %s %s: %w", id, status, err)
	}
	return nil
}

// Get implements queue.Inspector
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*queue.Job, error) {
	values, err := s.client.HGetAll(ctx, s.jobKey(id.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: get job %s: %w", id, err)
	}
	if len(values) == 0 {
		return nil, queue.ErrJobNotFound
	}
	return decodeJob(values)
}

// Requeue implements queue.Inspector
func (s *Store) Requeue(ctx context.Context, id uuid.UUID) error {
	key := id.String()
	res, err := requeueScript.Run(ctx, s.client,
		[]string{s.jobKey(key), s.pendingKey()},
		key, formatTime(time.Now()),
	).Int()
	if err != nil {
		return fmt.Errorf("redisstore: requeue job %s: %w", id, err)
	}

	switch res {
	case -1:
		return queue.ErrJobNotFound
	case 0:
		return queue.ErrNotRequeueable
	}

	if err := s.client.Publish(ctx, s.notifyChannel(), key).Err(); err != nil {
		s.logger.Warn("redisstore: failed to publish requeue notification",
			slog.String("job_id", key),
			slog.String("error", err.Error()))
	}
	return nil
}

// VisibilityTimeout implements queue.Reaper
func (s *Store) VisibilityTimeout() time.Duration { return s.visibility }

// Reap implements queue.Reaper
func (s *Store) Reap(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	n, err := reapScript.Run(ctx, s.client,
		[]string{s.processingKey(), s.pendingKey()},
		now.Add(-s.visibility).UnixMilli(), s.jobKeyPrefix(), formatTime(now),
	).Int()
	if err != nil {
		return 0, fmt.Errorf("redisstore: reap: %w", err)
	}
	return n, nil
}

// Notify implements queue.Notifier. The first call subscribes to the notify channel;
// every message published by an enqueue or requeue wakes the current waiters.
func (s *Store) Notify() <-chan struct{} {
	s.notifyOnce.Do(s.subscribe)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.notify
}

// Close stops the notification subscriber. The client is owned by the caller.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.pubsub != nil {
		return s.pubsub.Close()
	}
	return nil
}

func (s *Store) subscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.pubsub = s.client.Subscribe(context.Background(), s.notifyChannel())
	go s.listen(s.pubsub.Channel())
}

func (s *Store) listen(messages <-chan *redis.Message) {
	for range messages {
		s.mu.Lock()
		close(s.notify)
		s.notify = make(chan struct{})
		s.mu.Unlock()
	}
	s.logger.Debug("redisstore: notification subscriber stopped", slog.String("channel", s.notifyChannel()))
}

func decodeJob(values map[string]string) (*queue.Job, error) {
	id, err := uuid.Parse(values["id"])
	if err != nil {
		return nil, fmt.Errorf("redisstore: invalid job id %q: %w", values["id"], err)
	}

	var tags []string
	if raw := values["tags"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return nil, fmt.Errorf("redisstore: invalid tags of job %s: %w", id, err)
		}
	}

	attempts, err := strconv.Atoi(values["attempts"])
	if err != nil {
		return nil, fmt.Errorf("redisstore: invalid attempts of job %s: %w", id, err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, values["created_at"])
	if err != nil {
		return nil, fmt.Errorf("redisstore: invalid created_at of job %s: %w", id, err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, values["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("redisstore: invalid updated_at of job %s: %w", id, err)
	}

	var args []byte
	if raw, ok := values["args"]; ok && raw != "" {
		args = []byte(raw)
	}

	return &queue.Job{
		ID:        id,
		Kind:      values["kind"],
		Args:      args,
		Tags:      queue.NormalizeTags(tags),
		Status:    queue.JobStatus(values["status"]),
		Attempts:  attempts,
		Error:     values["error"],
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
