package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor returns an attribute carried by ctx, if any.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

type jobScopeKey struct{}

type jobScope struct {
	id      any
	kind    string
	attempt int
}

// WithJob returns a context tagging every record logged through it with the job's
// id, kind and attempt. Handler code gets it from the dispatcher.
func WithJob(ctx context.Context, id any, kind string, attempt int) context.Context {
	return context.WithValue(ctx, jobScopeKey{}, jobScope{id: id, kind: kind, attempt: attempt})
}

// JobExtractor is the ContextExtractor for contexts built by WithJob.
// The attributes are inlined: job_id, kind and attempts appear at the top level.
func JobExtractor(ctx context.Context) (slog.Attr, bool) {
	scope, ok := ctx.Value(jobScopeKey{}).(jobScope)
	if !ok {
		return slog.Attr{}, false
	}
	return slog.Attr{Value: slog.GroupValue(
		JobID(scope.id),
		Kind(scope.kind),
		Attempts(scope.attempt),
	)}, true
}

// contextHandler appends the extractors' attributes at Handle time, so values
// stored in the context after the logger was built still show up.
type contextHandler struct {
	slog.Handler
	extractors []ContextExtractor
}

func newContextHandler(next slog.Handler, extractors []ContextExtractor) slog.Handler {
	if len(extractors) == 0 {
		return next
	}
	return &contextHandler{Handler: next, extractors: extractors}
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if ctx != nil {
		for _, extract := range h.extractors {
			if attr, ok := extract(ctx); ok {
				rec.AddAttrs(attr)
			}
		}
	}
	return h.Handler.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), extractors: h.extractors}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), extractors: h.extractors}
}
