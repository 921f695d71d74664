package queue

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Valid reports whether the status is one of the known job states
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// Job is the unit of work stored by a backend and executed by a registered handler.
//
// Args is opaque to the engine: it is stored and handed to the handler byte for byte.
// Tags is always sorted and deduplicated; an empty slice means the job is untagged.
type Job struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	Args      []byte    `json:"args,omitempty"`
	Tags      []string  `json:"tags"`
	Status    JobStatus `json:"status"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewJob builds a pending job with a fresh identifier.
// Store implementations use it so every backend assigns ids the same way.
func NewJob(kind string, args []byte, tags []string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.New(),
		Kind:      kind,
		Args:      slices.Clone(args),
		Tags:      NormalizeTags(tags),
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of the job
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	c := *j
	c.Args = slices.Clone(j.Args)
	c.Tags = slices.Clone(j.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c
}

// Match describes which jobs a consumer is willing to take: jobs of Kind whose
// tags satisfy the accepted Tags according to AcceptsTags.
type Match struct {
	Kind string   `json:"kind"`
	Tags []string `json:"tags"`
}

// Accepts reports whether a job of the given kind and tags satisfies the match
func (m Match) Accepts(kind string, tags []string) bool {
	return m.Kind == kind && AcceptsTags(m.Tags, tags)
}

// AcceptsTags implements the routing rule shared by every backend:
// a worker without accepted tags takes only untagged jobs, a worker with
// accepted tags takes jobs whose tags intersect them.
func AcceptsTags(accepted, jobTags []string) bool {
	if len(jobTags) == 0 {
		return len(accepted) == 0
	}
	for _, t := range jobTags {
		if slices.Contains(accepted, t) {
			return true
		}
	}
	return false
}

// MatchAny reports whether any of the matches accepts the job
func MatchAny(matches []Match, kind string, tags []string) bool {
	for _, m := range matches {
		if m.Accepts(kind, tags) {
			return true
		}
	}
	return false
}

// NormalizeTags trims, deduplicates and sorts tags, dropping empty values.
// The result is never nil so it serializes as an empty list.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
