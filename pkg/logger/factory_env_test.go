package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/logger"
)

func TestWithDevelopment(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(logger.WithDevelopment("jobkit"), logger.WithOutput(buf))
	log.Debug("msg")

	out := buf.String()
	assert.Contains(t, out, "DBG")
	assert.Contains(t, out, "service=jobkit")
	assert.Contains(t, out, "env=development")
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	for _, env := range []string{"production", "prod", "staging", "stage"} {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithEnvironment(env, "jobkit"), logger.WithOutput(buf))
		log.Debug("hidden")
		log.Info("shown")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), env)
		assert.Equal(t, "shown", entry["msg"])
		assert.Equal(t, "jobkit", entry["service"])
	}
}
