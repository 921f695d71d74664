package schedule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dmitrymomot/jobkit/pkg/logger"
	"github.com/dmitrymomot/jobkit/pkg/queue"
)

const (
	// TickInterval is the default period of the tick loop
	TickInterval = time.Second

	// MaxCatchUp caps how many missed seconds a late tick evaluates
	MaxCatchUp = 60

	enqueueTimeout = 10 * time.Second
)

// Scheduler evaluates the schedule table once per second and dispatches due entries:
// task entries are enqueued on the producer, shell entries run as subprocesses.
type Scheduler struct {
	table    *Table
	entries  []*Entry
	producer queue.Producer
	shell    ShellRunner
	clock    Clock
	logger   *slog.Logger
	stdout   io.Writer
	stderr   io.Writer
	tag      string
	interval time.Duration

	mu       sync.Mutex
	lastTick int64            // unix second of the latest evaluated tick
	fired    map[string]int64 // entry name -> unix second it was last dispatched for
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler over table. producer may be nil only when none of
// the selected entries is a task.
func NewScheduler(table *Table, producer queue.Producer, opts ...SchedulerOption) (*Scheduler, error) {
	if table == nil {
		return nil, ErrTableNil
	}

	options := &schedulerOptions{
		clock:        realClock{},
		logger:       slog.Default(),
		shell:        Shell{},
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		tickInterval: TickInterval,
	}
	for _, opt := range opts {
		opt(options)
	}

	entries := table.Filter(options.tag)
	if producer == nil {
		for _, e := range entries {
			if _, ok := e.Target.(RunTask); ok {
				return nil, fmt.Errorf("%w: entry %q", ErrProducerRequired, e.Name)
			}
		}
	}

	return &Scheduler{
		table:    table,
		entries:  entries,
		producer: producer,
		shell:    options.shell,
		clock:    options.clock,
		logger:   options.logger.With(logger.Component("scheduler")),
		stdout:   options.stdout,
		stderr:   options.stderr,
		tag:      options.tag,
		interval: options.tickInterval,
		fired:    make(map[string]int64, len(entries)),
	}, nil
}

// Entries returns the entries selected by the tag filter, ordered by name
func (s *Scheduler) Entries() []*Entry {
	out := make([]*Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Due returns the selected entries firing at now, without dispatching them
func (s *Scheduler) Due(now time.Time) []*Entry {
	now = now.Truncate(time.Second)

	var due []*Entry
	for _, e := range s.entries {
		if e.Cron.Matches(now) {
			due = append(due, e)
		}
	}
	return due
}

type dueEntry struct {
	entry *Entry
	at    time.Time
}

// Tick evaluates every second since the previous tick up to now, at most MaxCatchUp of
// them, and dispatches the entries that are due. An entry is dispatched at most once for
// a given second. It returns the number of dispatches started.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) int {
	now = now.Truncate(time.Second)
	target := now.Unix()

	s.mu.Lock()
	from := target
	if s.lastTick != 0 && s.lastTick < target {
		from = max(s.lastTick+1, target-MaxCatchUp+1)
	}
	s.lastTick = max(s.lastTick, target)

	var due []dueEntry
	for sec := from; sec <= target; sec++ {
		at := time.Unix(sec, 0).In(now.Location())
		for _, e := range s.entries {
			if last, ok := s.fired[e.Name]; ok && last >= sec {
				continue
			}
			if e.Cron.Matches(at) {
				s.fired[e.Name] = sec
				due = append(due, dueEntry{entry: e, at: at})
			}
		}
	}
	s.mu.Unlock()

	for _, d := range due {
		s.dispatch(ctx, d.entry, d.at)
	}
	return len(due)
}

// dispatch runs the entry in its own goroutine. The dispatch outlives ctx so a
// shutdown never cuts a started command short.
func (s *Scheduler) dispatch(ctx context.Context, e *Entry, at time.Time) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.logger.Debug("entry due",
			logger.Entry(e.Name),
			slog.Time("at", at),
			slog.String("target", e.Target.String()))

		_ = s.runEntry(context.WithoutCancel(ctx), e)
	}()
}

// RunNamed dispatches the named entry immediately and waits for it to finish.
// The tag filter does not apply.
func (s *Scheduler) RunNamed(ctx context.Context, name string) error {
	e, ok := s.table.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	if _, isTask := e.Target.(RunTask); isTask && s.producer == nil {
		return fmt.Errorf("%w: entry %q", ErrProducerRequired, name)
	}
	return s.runEntry(ctx, e)
}

// Start runs the tick loop until ctx is done, then waits for in-flight dispatches
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.entries) == 0 {
		return ErrNoEntries
	}

	s.logger.Info("scheduler started",
		slog.Int("entries", len(s.entries)),
		slog.String("tag", s.tag))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx, s.clock.Now())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping, waiting for in-flight dispatches")
			s.Wait()
			s.logger.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			s.Tick(ctx, s.clock.Now())
		}
	}
}

// Run returns a function suitable for errgroup that runs Start
func (s *Scheduler) Run(ctx context.Context) func() error {
	return func() error {
		return s.Start(ctx)
	}
}

// Wait blocks until every started dispatch has finished
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runEntry(ctx context.Context, e *Entry) error {
	switch t := e.Target.(type) {
	case RunTask:
		return s.enqueue(ctx, e, t)
	case RunShell:
		return s.runShell(ctx, e, t)
	default:
		return fmt.Errorf("unsupported target %T", e.Target)
	}
}

func (s *Scheduler) enqueue(ctx context.Context, e *Entry, t RunTask) error {
	ctx, cancel := context.WithTimeout(ctx, enqueueTimeout)
	defer cancel()

	id, err := s.producer.Enqueue(ctx, t.Kind, t.Args, nil)
	if err != nil {
		s.logger.Error("failed to enqueue scheduled job",
			logger.Entry(e.Name),
			logger.Kind(t.Kind),
			logger.Error(err))
		return err
	}

	s.logger.Log(ctx, s.level(e), "scheduled job enqueued",
		logger.Entry(e.Name),
		logger.Kind(t.Kind),
		logger.JobID(id))
	return nil
}

func (s *Scheduler) runShell(ctx context.Context, e *Entry, t RunShell) error {
	var stdout, stderr io.Writer
	if e.Output == OutputStdout {
		stdout, stderr = s.stdout, s.stderr
	}

	start := time.Now()
	err := s.shell.Run(ctx, t.Command, stdout, stderr)
	duration := time.Since(start)

	if err != nil {
		attrs := []any{
			logger.Entry(e.Name),
			logger.Duration(duration),
			logger.Error(err),
		}
		var shellErr *ShellError
		if errors.As(err, &shellErr) {
			attrs = append(attrs,
				logger.ExitCode(shellErr.ExitCode),
				slog.String("stderr", shellErr.Stderr))
		}
		s.logger.Error("scheduled command failed", attrs...)
		return err
	}

	s.logger.Log(ctx, s.level(e), "scheduled command finished",
		logger.Entry(e.Name),
		logger.Duration(duration))
	return nil
}

func (s *Scheduler) level(e *Entry) slog.Level {
	if e.Output == OutputSilent {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
