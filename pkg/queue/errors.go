package queue

import "errors"

const (
	// ReasonTimeout is recorded on jobs whose handler exceeded the execution timeout
	ReasonTimeout = "job execution timed out"

	// ReasonShutdown is recorded on jobs abandoned by shutdown when the store cannot reap them
	ReasonShutdown = "job abandoned by dispatcher shutdown"
)

// Common errors
var (
	// ErrStoreNil is returned when a nil store is provided
	ErrStoreNil = errors.New("store cannot be nil")

	// ErrRegistryNil is returned when a nil registry is provided
	ErrRegistryNil = errors.New("registry cannot be nil")

	// ErrStoreClosed is returned when operating on a closed store
	ErrStoreClosed = errors.New("store is closed")

	// ErrKindEmpty is returned when a job or handler has no kind
	ErrKindEmpty = errors.New("job kind cannot be empty")

	// ErrHandlerNil is returned when registering a nil handler
	ErrHandlerNil = errors.New("handler cannot be nil")

	// ErrPayloadMarshal is returned when payload marshaling fails
	ErrPayloadMarshal = errors.New("failed to marshal payload to JSON")

	// ErrNoJobToClaim is returned by Claim when no pending job matches
	ErrNoJobToClaim = errors.New("no job available to claim")

	// ErrJobNotFound is returned when the job id is unknown to the store
	ErrJobNotFound = errors.New("job not found")

	// ErrNotRequeueable is returned when requeueing a job that is not failed
	ErrNotRequeueable = errors.New("only failed jobs can be requeued")

	// ErrClaim wraps transient backend failures while claiming
	ErrClaim = errors.New("failed to claim job")

	// ErrHandlerFailed wraps an error returned (or a panic raised) by a job handler
	ErrHandlerFailed = errors.New("job handler failed")

	// ErrJobTimeout is returned when a handler exceeds the execution timeout
	ErrJobTimeout = errors.New(ReasonTimeout)

	// ErrJobAborted is returned when a running job is abandoned by a forced shutdown
	ErrJobAborted = errors.New("job aborted by dispatcher shutdown")

	// ErrVisibilityTooShort is returned when a reaping store could requeue a job that is still within its timeout
	ErrVisibilityTooShort = errors.New("store visibility timeout must be greater than the job timeout")

	// ErrHandlerNotFound is returned when no handler is registered for a job kind
	ErrHandlerNotFound = errors.New("no handler registered for job kind")

	// ErrDuplicateKind is returned when two handlers are registered for the same kind
	ErrDuplicateKind = errors.New("handler already registered for job kind")

	// ErrRegistrySealed is returned when registering after the dispatcher was built
	ErrRegistrySealed = errors.New("registry is sealed")

	// ErrNoHandlers is returned when the dispatcher has no handlers registered
	ErrNoHandlers = errors.New("no job handlers registered")

	// ErrInvalidMode is returned for an unknown dispatch mode
	ErrInvalidMode = errors.New("invalid dispatch mode")

	// ErrExecutorRequired is returned when foreground mode has no executor
	ErrExecutorRequired = errors.New("foreground mode requires an executor")

	// ErrDispatcherStarted is returned when starting a running dispatcher
	ErrDispatcherStarted = errors.New("dispatcher already started")

	// ErrDispatcherNotStarted is returned when stopping an idle dispatcher
	ErrDispatcherNotStarted = errors.New("dispatcher not started")

	// ErrShutdownTimeout is returned when in-flight jobs outlive the grace period
	ErrShutdownTimeout = errors.New("dispatcher shutdown grace period elapsed with jobs in flight")
)
