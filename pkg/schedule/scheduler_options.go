package schedule

import (
	"io"
	"log/slog"
	"time"
)

// SchedulerOption is a functional option for configuring a scheduler
type SchedulerOption func(*schedulerOptions)

type schedulerOptions struct {
	clock        Clock
	logger       *slog.Logger
	tag          string
	shell        ShellRunner
	stdout       io.Writer
	stderr       io.Writer
	tickInterval time.Duration
}

// WithClock sets the time source used by the tick loop
func WithClock(clock Clock) SchedulerOption {
	return func(o *schedulerOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithSchedulerLogger sets the logger for the scheduler
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(o *schedulerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTag restricts the scheduler to entries carrying tag
func WithTag(tag string) SchedulerOption {
	return func(o *schedulerOptions) {
		o.tag = tag
	}
}

// WithShellRunner replaces the runner used for shell entries
func WithShellRunner(r ShellRunner) SchedulerOption {
	return func(o *schedulerOptions) {
		if r != nil {
			o.shell = r
		}
	}
}

// WithOutput sets where shell entries in stdout mode write their output
func WithOutput(stdout, stderr io.Writer) SchedulerOption {
	return func(o *schedulerOptions) {
		if stdout != nil {
			o.stdout = stdout
		}
		if stderr != nil {
			o.stderr = stderr
		}
	}
}

// WithTickInterval sets how often the loop samples the clock. Evaluation stays
// per second regardless.
func WithTickInterval(d time.Duration) SchedulerOption {
	return func(o *schedulerOptions) {
		if d > 0 {
			o.tickInterval = d
		}
	}
}
