package schedule

import "errors"

var (
	// ErrInvalidCronExpr is returned when an expression has the wrong shape
	ErrInvalidCronExpr = errors.New("invalid cron expression")

	// ErrInvalidCronField is returned when a single cron field cannot be parsed
	ErrInvalidCronField = errors.New("invalid cron field")

	// ErrInvalidEveryDuration is returned when an @every duration has no cron equivalent
	ErrInvalidEveryDuration = errors.New("invalid @every duration")

	// ErrInvalidPhrase is returned when an English schedule names an impossible time
	ErrInvalidPhrase = errors.New("invalid schedule phrase")

	// ErrInvalidOutputMode is returned for an output mode other than stdout or silent
	ErrInvalidOutputMode = errors.New("invalid output mode")

	// ErrEmptyRun is returned when an entry has nothing to run
	ErrEmptyRun = errors.New("run cannot be empty")

	// ErrEmptySchedule is returned when an entry has no schedule
	ErrEmptySchedule = errors.New("schedule cannot be empty")

	// ErrTableNil is returned when the scheduler is created without a table
	ErrTableNil = errors.New("schedule table cannot be nil")

	// ErrProducerRequired is returned when task entries exist but no producer was given
	ErrProducerRequired = errors.New("task entries require a queue producer")

	// ErrEntryNotFound is returned when a named entry is not in the table
	ErrEntryNotFound = errors.New("schedule entry not found")

	// ErrNoEntries is returned when the tag filter leaves nothing to run
	ErrNoEntries = errors.New("no schedule entries to run")

	// ErrShellFailed wraps a shell command that could not start or exited non-zero
	ErrShellFailed = errors.New("shell command failed")
)
