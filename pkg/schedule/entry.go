package schedule

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrymomot/jobkit/pkg/queue"
)

// OutputMode controls whether the output of a dispatched entry is surfaced
type OutputMode string

const (
	OutputStdout OutputMode = "stdout"
	OutputSilent OutputMode = "silent"
)

// Valid reports whether m is a known output mode
func (m OutputMode) Valid() bool {
	return m == OutputStdout || m == OutputSilent
}

// ParseOutputMode parses "stdout" or "silent". The empty string yields OutputStdout.
func ParseOutputMode(s string) (OutputMode, error) {
	if s == "" {
		return OutputStdout, nil
	}
	m := OutputMode(strings.ToLower(s))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidOutputMode, s)
	}
	return m, nil
}

// Target is what an entry dispatches: a RunTask or a RunShell
type Target interface {
	fmt.Stringer
	target()
}

// RunTask enqueues a job of Kind with JSON encoded Args
type RunTask struct {
	Kind string
	Args []byte
}

func (RunTask) target() {}

func (t RunTask) String() string {
	return "task " + t.Kind
}

// ParseRunTask parses "<kind> [KEY:VALUE ...]" into a RunTask whose args are a JSON
// object of string values.
func ParseRunTask(run string) (RunTask, error) {
	fields := strings.Fields(run)
	if len(fields) == 0 {
		return RunTask{}, ErrEmptyRun
	}
	args, err := queue.KeyValueArgs(fields[1:])
	if err != nil {
		return RunTask{}, err
	}
	return RunTask{Kind: fields[0], Args: args}, nil
}

// RunShell runs Command through the system shell
type RunShell struct {
	Command string
}

func (RunShell) target() {}

func (s RunShell) String() string {
	return "shell " + s.Command
}

// Entry is one row of the schedule table. Entries are immutable once loaded.
type Entry struct {
	Name     string
	Schedule string // as written in the configuration
	Cron     *Cron
	Target   Target
	Tags     []string
	Output   OutputMode
}

// HasTag reports whether the entry carries tag
func (e *Entry) HasTag(tag string) bool {
	return slices.Contains(e.Tags, tag)
}
