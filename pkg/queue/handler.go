package queue

import (
	"context"
	"encoding/json"
)

type (
	// Handler executes jobs of a single kind
	Handler interface {
		Kind() string
		Handle(ctx context.Context, args json.RawMessage) error
	}

	TaskHandlerFunc[T any] func(ctx context.Context, args T) error
	RawHandlerFunc         func(ctx context.Context, args json.RawMessage) error
)

// NewTaskHandler creates a typed handler whose kind is derived from the payload type name
func NewTaskHandler[T any](handler TaskHandlerFunc[T]) Handler {
	var args T
	return &typedHandler[T]{
		kind:    qualifiedStructName(args),
		handler: handler,
	}
}

// NewNamedTaskHandler creates a typed handler registered under an explicit kind
func NewNamedTaskHandler[T any](kind string, handler TaskHandlerFunc[T]) Handler {
	return &typedHandler[T]{
		kind:    kind,
		handler: handler,
	}
}

// NewRawHandler creates a handler that receives the job arguments verbatim
func NewRawHandler(kind string, handler RawHandlerFunc) Handler {
	return &rawHandler{
		kind:    kind,
		handler: handler,
	}
}

type typedHandler[T any] struct {
	kind    string
	handler TaskHandlerFunc[T]
}

func (h *typedHandler[T]) Kind() string {
	return h.kind
}

func (h *typedHandler[T]) Handle(ctx context.Context, args json.RawMessage) error {
	var t T
	if len(args) > 0 {
		if err := json.Unmarshal(args, &t); err != nil {
			return err
		}
	}
	return h.handler(ctx, t)
}

type rawHandler struct {
	kind    string
	handler RawHandlerFunc
}

func (h *rawHandler) Kind() string {
	return h.kind
}

func (h *rawHandler) Handle(ctx context.Context, args json.RawMessage) error {
	return h.handler(ctx, args)
}
