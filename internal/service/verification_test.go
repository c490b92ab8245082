package service

import (
	"context"
	"sync"
	"testing"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submit(t *testing.T, env *testEnv, h *domain.Hypothesis, verifier string, result domain.VerificationResult, amends *uuid.UUID) (*domain.Verification, domain.VerificationState) {
	t.Helper()
	v, state, err := env.verifications.Submit(context.Background(), SubmitVerificationInput{
		HypothesisID:   h.ID,
		VerifierID:     verifier,
		Result:         result,
		DifferentialOf: amends,
	})
	if err != nil {
		t.Fatalf("submit %s: %v", result, err)
	}
	return v, state
}

func TestVerificationService_StateFollowsRecords(t *testing.T) {
	env := newTestEnv()
	h := env.newHypothesis(t, "alice", "smaller batches reduce lock waits")

	_, state := submit(t, env, h, "alice", domain.ResultInconclusive, nil)
	assert.Equal(t, domain.StateInProgress, state)

	_, state = submit(t, env, h, "alice", domain.ResultFailure, nil)
	assert.Equal(t, domain.StateInProgress, state)

	_, state = submit(t, env, h, "alice", domain.ResultSuccess, nil)
	assert.Equal(t, domain.StateValidated, state)

	got, err := env.hypotheses.Get(context.Background(), h.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StateValidated, got.VerificationState)
}

func TestVerificationService_AmendmentChains(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.newTeam(t, "alice", map[string]domain.Role{"bob": domain.RoleEditor})
	h := env.propose(t, env.newHypothesis(t, "alice", "retry storms come from the SDK default"))
	other := env.newHypothesis(t, "alice", "unrelated")

	root, state := submit(t, env, h, "bob", domain.ResultSuccess, nil)
	assert.Equal(t, domain.StateValidated, state)

	_, state = submit(t, env, h, "bob", domain.ResultFailure, &root.ID)
	assert.Equal(t, domain.StateFailed, state)

	_, _, err := env.verifications.Submit(ctx, SubmitVerificationInput{
		HypothesisID: h.ID, VerifierID: "bob", Result: domain.ResultSuccess, DifferentialOf: &root.ID,
	})
	assert.ErrorIs(t, err, ErrChainContinued)
	assert.ErrorIs(t, err, domain.ErrInvalidChain)

	missing := uuid.New()
	_, _, err = env.verifications.Submit(ctx, SubmitVerificationInput{
		HypothesisID: h.ID, VerifierID: "bob", Result: domain.ResultSuccess, DifferentialOf: &missing,
	})
	assert.ErrorIs(t, err, ErrChainParentMissing)

	foreign, _ := submit(t, env, other, "alice", domain.ResultSuccess, nil)
	_, _, err = env.verifications.Submit(ctx, SubmitVerificationInput{
		HypothesisID: h.ID, VerifierID: "bob", Result: domain.ResultSuccess, DifferentialOf: &foreign.ID,
	})
	assert.ErrorIs(t, err, ErrChainForeignParent)

	chains, err := env.verifications.List(ctx, h.ID, "alice")
	require.NoError(t, err)
	require.Len(t, chains, 1)
	assert.Equal(t, root.ID, chains[0].Root.ID)
	assert.Len(t, chains[0].Amendments, 1)
	assert.Equal(t, domain.ResultFailure, chains[0].Effective)
}

func TestVerificationService_Access(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	teamID := env.newTeam(t, "alice", map[string]domain.Role{"carol": domain.RoleViewer})
	h := env.newHypothesis(t, "alice", "draft")

	_, _, err := env.verifications.Submit(ctx, SubmitVerificationInput{HypothesisID: h.ID, VerifierID: "carol", Result: domain.ResultSuccess})
	assert.ErrorIs(t, err, ErrHypothesisNotFound)

	_, _, err = env.verifications.Submit(ctx, SubmitVerificationInput{HypothesisID: h.ID, VerifierID: "alice", Result: "MAYBE"})
	assert.ErrorIs(t, err, ErrInvalidResult)

	env.propose(t, h)

	// Viewers may verify what they can see.
	v, _, err := env.verifications.Submit(ctx, SubmitVerificationInput{
		HypothesisID: h.ID, VerifierID: "carol", VerifierTeamID: &teamID, Result: domain.ResultPartial,
		Evidence: map[string]any{"runs": 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, v.Evidence["runs"])

	stranger := env.newTeam(t, "dave", nil)
	_, _, err = env.verifications.Submit(ctx, SubmitVerificationInput{
		HypothesisID: h.ID, VerifierID: "carol", VerifierTeamID: &stranger, Result: domain.ResultSuccess,
	})
	assert.ErrorIs(t, err, ErrNotTeamMember)

	_, err = env.verifications.List(ctx, h.ID, "mallory")
	assert.ErrorIs(t, err, ErrHypothesisNotFound)
}

func TestVerificationService_ConcurrentSubmitsConverge(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	h := env.newHypothesis(t, "alice", "contended")

	const perResult = 10
	var wg sync.WaitGroup
	errs := make(chan error, 2*perResult)
	for i := 0; i < perResult; i++ {
		for _, r := range []domain.VerificationResult{domain.ResultSuccess, domain.ResultFailure} {
			wg.Add(1)
			go func(r domain.VerificationResult) {
				defer wg.Done()
				_, _, err := env.verifications.Submit(ctx, SubmitVerificationInput{HypothesisID: h.ID, VerifierID: "alice", Result: r})
				errs <- err
			}(r)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	chains, err := env.verifications.List(ctx, h.ID, "alice")
	require.NoError(t, err)
	assert.Len(t, chains, 2*perResult)

	got, err := env.hypotheses.Get(ctx, h.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StateValidated, got.VerificationState)
}
