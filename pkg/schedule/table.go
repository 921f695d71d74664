package schedule

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrymomot/jobkit/pkg/config"
	"github.com/dmitrymomot/jobkit/pkg/queue"
)

// JobConfig is the declarative form of a schedule entry
type JobConfig struct {
	Shell    bool     `yaml:"shell"`
	Run      string   `yaml:"run"`
	Schedule string   `yaml:"schedule"`
	Output   string   `yaml:"output"`
	Tags     []string `yaml:"tags"`
}

// Config is the scheduler section of the configuration file
type Config struct {
	Output string               `yaml:"output"`
	Jobs   map[string]JobConfig `yaml:"jobs"`
}

// Table is the immutable set of schedule entries, ordered by name
type Table struct {
	entries []*Entry
	byName  map[string]*Entry
}

// NewTable builds a table from cfg. Every invalid entry is reported as a *config.Error
// keyed by its setting, e.g. "scheduler.jobs.backup.schedule"; the errors are joined.
func NewTable(cfg Config) (*Table, error) {
	defaultOutput, err := ParseOutputMode(cfg.Output)
	if err != nil {
		return nil, config.NewError("scheduler.output", err)
	}

	names := slices.Sorted(maps.Keys(cfg.Jobs))
	t := &Table{
		entries: make([]*Entry, 0, len(names)),
		byName:  make(map[string]*Entry, len(names)),
	}

	var errs []error
	for _, name := range names {
		entry, err := newEntry(name, cfg.Jobs[name], defaultOutput)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		t.entries = append(t.entries, entry)
		t.byName[name] = entry
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

func newEntry(name string, jc JobConfig, defaultOutput OutputMode) (*Entry, error) {
	key := "scheduler.jobs." + name

	if strings.TrimSpace(name) == "" {
		return nil, config.Errorf("scheduler.jobs", "entry name cannot be empty")
	}

	cron, err := Parse(jc.Schedule)
	if err != nil {
		return nil, config.NewError(key+".schedule", fmt.Errorf("%q: %w", jc.Schedule, err))
	}

	var target Target
	if jc.Shell {
		command := strings.TrimSpace(jc.Run)
		if command == "" {
			return nil, config.NewError(key+".run", ErrEmptyRun)
		}
		target = RunShell{Command: command}
	} else {
		task, err := ParseRunTask(jc.Run)
		if err != nil {
			return nil, config.NewError(key+".run", err)
		}
		target = task
	}

	output := defaultOutput
	if jc.Output != "" {
		if output, err = ParseOutputMode(jc.Output); err != nil {
			return nil, config.NewError(key+".output", err)
		}
	}

	return &Entry{
		Name:     name,
		Schedule: jc.Schedule,
		Cron:     cron,
		Target:   target,
		Tags:     queue.NormalizeTags(jc.Tags),
		Output:   output,
	}, nil
}

// Entries returns all entries ordered by name
func (t *Table) Entries() []*Entry {
	return slices.Clone(t.entries)
}

// Lookup returns the entry called name
func (t *Table) Lookup(name string) (*Entry, bool) {
	e, ok := t.byName[name]
	return e, ok
}

// Filter returns the entries carrying tag, or every entry when tag is empty
func (t *Table) Filter(tag string) []*Entry {
	if tag == "" {
		return t.Entries()
	}
	var out []*Entry
	for _, e := range t.entries {
		if e.HasTag(tag) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries
func (t *Table) Len() int {
	return len(t.entries)
}

// HasTasks reports whether any entry enqueues a job
func (t *Table) HasTasks() bool {
	for _, e := range t.entries {
		if _, ok := e.Target.(RunTask); ok {
			return true
		}
	}
	return false
}
