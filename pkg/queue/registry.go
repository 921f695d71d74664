package queue

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

// Registry maps job kinds to handlers and the tags each handler accepts.
// It is populated once at boot and sealed when a Dispatcher is built from it.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registration
	kinds   []string // registration order
	sealed  atomic.Bool
}

type registration struct {
	handler Handler
	tags    []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registration)}
}

// Register adds a handler for its kind. With no accepted tags the handler
// processes only untagged jobs; otherwise it processes jobs sharing at least one tag.
func (r *Registry) Register(handler Handler, acceptedTags ...string) error {
	if handler == nil {
		return ErrHandlerNil
	}
	kind := handler.Kind()
	if kind == "" {
		return ErrKindEmpty
	}
	if r.sealed.Load() {
		return fmt.Errorf("%w: cannot register %q", ErrRegistrySealed, kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[kind]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateKind, kind)
	}
	r.entries[kind] = registration{handler: handler, tags: NormalizeTags(acceptedTags)}
	r.kinds = append(r.kinds, kind)
	return nil
}

// MustRegister works like Register but panics on error.
// Duplicate kinds are a boot-time configuration error.
func (r *Registry) MustRegister(handler Handler, acceptedTags ...string) {
	if err := r.Register(handler, acceptedTags...); err != nil {
		panic(err)
	}
}

// Lookup returns the handler registered for kind
func (r *Registry) Lookup(kind string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[kind]
	return e.handler, ok
}

// AcceptedTags returns the tags accepted by the handler of kind
func (r *Registry) AcceptedTags(kind string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.entries[kind].tags)
}

// Accepts reports whether a registered handler would process the job
func (r *Registry) Accepts(job *Job) bool {
	if job == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[job.Kind]
	return ok && AcceptsTags(e.tags, job.Tags)
}

// Matches returns one claim filter per registered kind, in registration order
func (r *Registry) Matches() []Match {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Match, 0, len(r.kinds))
	for _, kind := range r.kinds {
		out = append(out, Match{Kind: kind, Tags: slices.Clone(r.entries[kind].tags)})
	}
	return out
}

// Kinds returns the registered kinds in registration order
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.kinds)
}

// Len returns the number of registered handlers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.kinds)
}

// Seal makes the registry immutable
func (r *Registry) Seal() {
	r.sealed.Store(true)
}

// Sealed reports whether the registry no longer accepts registrations
func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}
