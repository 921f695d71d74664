package pgstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/jobkit/pkg/queue"
)

func TestClaimQuery(t *testing.T) {
	t.Parallel()

	query, args := claimQuery([]queue.Match{
		{Kind: "echo"},
		{Kind: "reindex", Tags: []string{"infra", "nightly"}},
	})

	assert.Contains(t, query, "(kind = $3 AND cardinality(tags) = 0) OR (kind = $4 AND tags && $5::text[])")
	assert.Contains(t, query, "FOR UPDATE SKIP LOCKED")
	assert.Equal(t, []any{"running", "pending", "echo", "reindex", []string{"infra", "nightly"}}, args)
}
