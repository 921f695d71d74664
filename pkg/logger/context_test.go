package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/logger"
)

func TestJobExtractor(t *testing.T) {
	t.Parallel()

	t.Run("inlines job attributes", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithContextExtractors(logger.JobExtractor))

		ctx := logger.WithJob(context.Background(), "job-1", "echo", 2)
		log.InfoContext(ctx, "working")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "job-1", entry["job_id"])
		assert.Equal(t, "echo", entry["kind"])
		assert.EqualValues(t, 2, entry["attempts"])
	})

	t.Run("survives WithAttrs", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithContextExtractors(logger.JobExtractor)).
			With(logger.Component("handler"))

		log.InfoContext(logger.WithJob(context.Background(), "job-2", "sleep", 1), "working")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "job-2", entry["job_id"])
		assert.Equal(t, "handler", entry["component"])
	})

	t.Run("plain context adds nothing", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithContextExtractors(logger.JobExtractor))
		log.InfoContext(context.Background(), "idle")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.NotContains(t, entry, "job_id")
	})
}
