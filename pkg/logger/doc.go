// Package logger builds the *slog.Logger shared by the dispatcher, the scheduler and the CLI.
//
// New takes functional options selecting the format (json, text, or console via
// github.com/lmittmann/tint), the level, static attributes and ContextExtractor
// callbacks that pull attributes from a context.Context on every record:
//
//	log := logger.New(
//		logger.WithFormat(logger.FormatConsole),
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithAttr(logger.Component("scheduler")),
//	)
//
// The dispatcher runs handlers under WithJob; registering JobExtractor adds job_id,
// kind and attempts to whatever a handler logs with the *Context methods.
//
// The attribute helpers (JobID, Kind, Tags, Attempts, Entry, ExitCode, Error, Duration)
// keep key names identical across components so log queries work for every backend.
package logger
