package queue

// EnqueuerOption is a functional option for configuring an Enqueuer
type EnqueuerOption func(*enqueuerOptions)

type enqueuerOptions struct {
	mode        Mode
	executor    Executor
	defaultTags []string
}

// WithMode selects how enqueued jobs are delivered
func WithMode(mode Mode) EnqueuerOption {
	return func(o *enqueuerOptions) {
		o.mode = mode
	}
}

// WithExecutor sets the executor used by ModeForegroundBlocking
func WithExecutor(executor Executor) EnqueuerOption {
	return func(o *enqueuerOptions) {
		if executor != nil {
			o.executor = executor
		}
	}
}

// WithDefaultTags sets tags applied to every job that has none of its own
func WithDefaultTags(tags ...string) EnqueuerOption {
	return func(o *enqueuerOptions) {
		o.defaultTags = NormalizeTags(tags)
	}
}

// EnqueueOption is a functional option for the Enqueue method
type EnqueueOption func(*enqueueOptions)

type enqueueOptions struct {
	kind string
	tags []string
}

// WithTags sets the tags of the job
func WithTags(tags ...string) EnqueueOption {
	return func(o *enqueueOptions) {
		o.tags = append(o.tags, tags...)
	}
}

// WithKind overrides the kind derived from the payload type
func WithKind(kind string) EnqueueOption {
	return func(o *enqueueOptions) {
		if kind != "" {
			o.kind = kind
		}
	}
}
