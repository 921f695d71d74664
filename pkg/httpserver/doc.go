// Package httpserver runs the jobkit producer API.
//
// Server serves a handler until its context is cancelled, then stops
// accepting connections and drains in-flight requests within the shutdown
// timeout. Signal handling is left to the caller, which usually derives the
// context from signal.NotifyContext and shares it with the dispatcher.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	g.Go(func() error { return srv.Run(ctx, router) })
//
// HealthCheckHandler returns a handler usable as liveness probe (no checks)
// or readiness probe (checks run with the request context).
//
// Failures are wrapped with ErrStart or ErrShutdown so they can be inspected
// with errors.Is.
package httpserver
