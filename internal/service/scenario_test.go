package service

import (
	"context"
	"testing"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHypothesisLifecycle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	teamID := env.newTeam(t, "alice", map[string]domain.Role{"bob": domain.RoleViewer})

	h := env.newHypothesis(t, "alice", "warming the connection pool removes cold-start 502s")
	assert.Equal(t, domain.StatusDraft, h.Status)

	h = env.propose(t, h)
	assert.Equal(t, domain.StatusProposed, h.Status)

	_, state := submit(t, env, h, "alice", domain.ResultPartial, nil)
	assert.Equal(t, domain.StateInProgress, state)

	_, state = submit(t, env, h, "alice", domain.ResultSuccess, nil)
	assert.Equal(t, domain.StateValidated, state)

	shared := env.share(t, h, teamID)
	assert.Equal(t, domain.StatusShared, shared.Status)
	require.NotNil(t, shared.TeamID)
	assert.Equal(t, teamID, *shared.TeamID)
	require.NotNil(t, shared.SharedAt)
	sharedAt := *shared.SharedAt

	// Later activity never moves shared_at.
	_, _ = submit(t, env, h, "bob", domain.ResultFailure, nil)
	got, err := env.hypotheses.Get(ctx, h.ID, "alice")
	require.NoError(t, err)
	assert.True(t, got.SharedAt.Equal(sharedAt))
	assert.Equal(t, domain.StateValidated, got.VerificationState)

	pool, err := env.hypotheses.ListShared(ctx, teamID, "bob", domain.HypothesisFilter{})
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, 3, pool[0].TotalVerifications)
	assert.Equal(t, 1, pool[0].SuccessCount)
	assert.Equal(t, 1, pool[0].FailureCount)
}
