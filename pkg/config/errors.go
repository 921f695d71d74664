package config

import (
	"errors"
	"fmt"
)

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into the config struct
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrConfigNotLoaded is returned when attempting to access a config that hasn't been loaded
	ErrConfigNotLoaded = errors.New("configuration has not been loaded")

	// ErrNilPointer is returned when a nil pointer is provided to Load
	ErrNilPointer = errors.New("nil pointer provided to config loader")

	// ErrReadingFile is returned when a config file cannot be read or decoded
	ErrReadingFile = errors.New("failed to read config file")

	// ErrInvalidConfig is matched by every *Error
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Error reports an invalid setting. Key is the dotted path of the offending
// setting, e.g. "queue.kind" or "scheduler.jobs.backup.schedule".
type Error struct {
	Key string
	Err error
}

// NewError creates an *Error for key
func NewError(key string, err error) *Error {
	return &Error{Key: key, Err: err}
}

// Errorf creates an *Error for key with a formatted cause
func Errorf(key, format string, args ...any) *Error {
	return &Error{Key: key, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid configuration: %s", e.Key)
	}
	return fmt.Sprintf("invalid configuration: %s: %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrInvalidConfig) hold for every *Error
func (e *Error) Is(target error) bool {
	return target == ErrInvalidConfig
}
