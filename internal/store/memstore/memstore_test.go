package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/Harshitk-cp/teambrain/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHypothesis(ctx context.Context, t *testing.T, db *DB, owner string) *domain.Hypothesis {
	t.Helper()
	h := &domain.Hypothesis{ID: uuid.New(), OriginUserID: owner, Content: "retry with backoff fixes flaky uploads"}
	require.NoError(t, db.Hypotheses.Create(ctx, h))
	return h
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.Tx.WithinTx(ctx, func(ctx context.Context) error {
		newHypothesis(ctx, t, db, "alice")
		return db.Tx.WithinTx(ctx, func(ctx context.Context) error {
			return boom
		})
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	hs, err := db.Hypotheses.ListByOrigin(ctx, "alice", domain.HypothesisFilter{})
	require.NoError(t, err)
	assert.Empty(t, hs)
}

func TestTransactor_Commits(t *testing.T) {
	db := New()
	ctx := context.Background()

	err := db.Tx.WithinTx(ctx, func(ctx context.Context) error {
		newHypothesis(ctx, t, db, "alice")
		return nil
	})
	require.NoError(t, err)

	hs, err := db.Hypotheses.ListByOrigin(ctx, "alice", domain.HypothesisFilter{})
	require.NoError(t, err)
	assert.Len(t, hs, 1)
}

func TestTransactor_RollbackKeepsWritesOutsideTransaction(t *testing.T) {
	db := New()
	ctx := context.Background()
	boom := errors.New("boom")

	inside := &domain.Hypothesis{ID: uuid.New(), OriginUserID: "alice", Content: "rolled back"}
	outside := &domain.Hypothesis{ID: uuid.New(), OriginUserID: "bob", Content: "committed"}

	started := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- db.Tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := db.Hypotheses.Create(ctx, inside); err != nil {
				return err
			}
			close(started)
			<-release
			return boom
		})
	}()
	<-started

	writeDone := make(chan error, 1)
	go func() { writeDone <- db.Hypotheses.Create(ctx, outside) }()

	select {
	case err := <-writeDone:
		t.Fatalf("write finished while a transaction was open: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	require.ErrorIs(t, <-txDone, boom)
	require.NoError(t, <-writeDone)

	_, err := db.Hypotheses.GetByID(ctx, inside.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	got, err := db.Hypotheses.GetByID(ctx, outside.ID)
	require.NoError(t, err)
	assert.Equal(t, "committed", got.Content)
}

func TestHypothesisStore_CreateDefaults(t *testing.T) {
	db := New()
	h := newHypothesis(context.Background(), t, db, "alice")

	assert.Equal(t, domain.StatusDraft, h.Status)
	assert.Equal(t, domain.StateUnverified, h.VerificationState)
	assert.NotNil(t, h.Tags)

	err := db.Hypotheses.Create(context.Background(), &domain.Hypothesis{ID: h.ID, OriginUserID: "alice", Content: "again"})
	assert.ErrorIs(t, err, store.ErrConflict)

	missing := uuid.New()
	err = db.Hypotheses.Create(context.Background(), &domain.Hypothesis{ID: uuid.New(), OriginUserID: "alice", Content: "child", ParentHypothesisID: &missing})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHypothesisStore_TransitionIsCompareAndSet(t *testing.T) {
	db := New()
	ctx := context.Background()
	h := newHypothesis(ctx, t, db, "alice")

	team := &domain.Team{Name: "platform"}
	require.NoError(t, db.Teams.Create(ctx, team))

	published := "anonymised text"
	shared, err := db.Hypotheses.Transition(ctx, domain.StatusTransition{
		HypothesisID:     h.ID,
		From:             domain.StatusDraft,
		To:               domain.StatusShared,
		TeamID:           &team.ID,
		OriginUserIDHash: "abc",
		PublishedContent: &published,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShared, shared.Status)
	assert.Equal(t, published, shared.Content)
	require.NotNil(t, shared.PrivateContent)
	assert.Equal(t, h.Content, *shared.PrivateContent)
	assert.NotNil(t, shared.SharedAt)

	_, err = db.Hypotheses.Transition(ctx, domain.StatusTransition{
		HypothesisID: h.ID,
		From:         domain.StatusDraft,
		To:           domain.StatusProposed,
	})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = db.Hypotheses.UpdateContent(ctx, h.ID, &published, nil)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestHypothesisStore_ApplyQualitySnapshot(t *testing.T) {
	db := New()
	ctx := context.Background()
	h := newHypothesis(ctx, t, db, "alice")
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	newer := domain.QualitySnapshot{QualityScores: domain.QualityScores{Overall: 0.4}, ScoredAt: base.Add(time.Minute)}
	older := domain.QualitySnapshot{QualityScores: domain.QualityScores{Overall: 0.9}, ScoredAt: base}

	applied, err := db.Hypotheses.ApplyQualitySnapshot(ctx, h.ID, newer)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = db.Hypotheses.ApplyQualitySnapshot(ctx, h.ID, older)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := db.Hypotheses.GetByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.4, got.QualityScore.Overall)
}

func TestHypothesisStore_ApplyQualitySnapshotTieIsOrderIndependent(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := domain.QualitySnapshot{QualityScores: domain.QualityScores{Novelty: 0.9, Specificity: 0.1, Impact: 0.5, Overall: 0.5}, ScoredAt: at}
	b := domain.QualitySnapshot{QualityScores: domain.QualityScores{Novelty: 0.1, Specificity: 0.9, Impact: 0.5, Overall: 0.5}, ScoredAt: at}

	for _, order := range [][]domain.QualitySnapshot{{a, b}, {b, a}} {
		db := New()
		h := newHypothesis(ctx, t, db, "alice")
		for _, snap := range order {
			_, err := db.Hypotheses.ApplyQualitySnapshot(ctx, h.ID, snap)
			require.NoError(t, err)
		}
		got, err := db.Hypotheses.GetByID(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, 0.9, got.QualityScore.Novelty)
		assert.Equal(t, 0.1, got.QualityScore.Specificity)
	}
}

func TestVerificationStore_SingleContinuation(t *testing.T) {
	db := New()
	ctx := context.Background()
	h := newHypothesis(ctx, t, db, "alice")

	root := &domain.Verification{HypothesisID: h.ID, VerifierUserID: "bob", Result: domain.ResultSuccess}
	require.NoError(t, db.Verifications.Create(ctx, root))

	first := &domain.Verification{HypothesisID: h.ID, VerifierUserID: "bob", Result: domain.ResultFailure, IsDifferential: true, ParentVerificationID: &root.ID}
	require.NoError(t, db.Verifications.Create(ctx, first))

	second := &domain.Verification{HypothesisID: h.ID, VerifierUserID: "carol", Result: domain.ResultSuccess, IsDifferential: true, ParentVerificationID: &root.ID}
	err := db.Verifications.Create(ctx, second)
	assert.ErrorIs(t, err, store.ErrChainContinued)

	continued, err := db.Verifications.HasContinuation(ctx, root.ID)
	require.NoError(t, err)
	assert.True(t, continued)

	records, err := db.Verifications.ListByHypothesis(ctx, h.ID)
	require.NoError(t, err)
	if len(records) != 2 || records[0].ID != root.ID {
		t.Fatalf("expected root then amendment, got %+v", records)
	}
}

func TestSuggestionStore_PendingLifecycle(t *testing.T) {
	db := New()
	ctx := context.Background()
	h := newHypothesis(ctx, t, db, "alice")

	sg := &domain.SharingSuggestion{HypothesisID: h.ID, UserID: "alice", DraftContent: "draft"}
	require.NoError(t, db.Suggestions.Create(ctx, sg))
	assert.Equal(t, domain.SuggestionPending, sg.Status)

	err := db.Suggestions.Create(ctx, &domain.SharingSuggestion{HypothesisID: h.ID, UserID: "alice", DraftContent: "again"})
	assert.ErrorIs(t, err, store.ErrConflict)

	n, err := db.Suggestions.CountPendingByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	expired, err := db.Suggestions.ExpirePending(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, expired)

	_, err = db.Suggestions.Respond(ctx, domain.SuggestionResponse{SuggestionID: sg.ID, Status: domain.SuggestionAccepted})
	assert.ErrorIs(t, err, store.ErrConflict)

	got, err := db.Suggestions.GetByID(ctx, sg.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionRejected, got.Status)
	assert.NotNil(t, got.RespondedAt)
}

func TestTeamStore_Membership(t *testing.T) {
	db := New()
	ctx := context.Background()

	a := &domain.Team{Name: "b-team"}
	b := &domain.Team{Name: "a-team"}
	require.NoError(t, db.Teams.Create(ctx, a))
	require.NoError(t, db.Teams.Create(ctx, b))

	require.NoError(t, db.Teams.AddMember(ctx, &domain.Membership{TeamID: a.ID, UserID: "alice", Role: domain.RoleOwner}))
	require.NoError(t, db.Teams.AddMember(ctx, &domain.Membership{TeamID: a.ID, UserID: "bob", Role: domain.RoleViewer}))
	require.NoError(t, db.Teams.AddMember(ctx, &domain.Membership{TeamID: b.ID, UserID: "alice", Role: domain.RoleOwner}))
	require.NoError(t, db.Teams.AddMember(ctx, &domain.Membership{TeamID: b.ID, UserID: "bob", Role: domain.RoleEditor}))

	err := db.Teams.AddMember(ctx, &domain.Membership{TeamID: a.ID, UserID: "bob", Role: domain.RoleEditor})
	assert.ErrorIs(t, err, store.ErrConflict)

	teams, err := db.Teams.ListByUser(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "a-team", teams[0].Name)
	assert.Equal(t, 2, teams[0].MemberCount)

	roles, err := db.Teams.ListSharedTeamRoles(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Role{domain.RoleViewer, domain.RoleEditor}, roles)

	owners, err := db.Teams.CountOwners(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, owners)

	assert.ErrorIs(t, db.Teams.RemoveMember(ctx, a.ID, "carol"), store.ErrNotFound)
	_, err = db.Teams.GetMembership(ctx, a.ID, "carol")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHypothesisStore_DeleteByOriginCascades(t *testing.T) {
	db := New()
	ctx := context.Background()
	parent := newHypothesis(ctx, t, db, "alice")
	child := &domain.Hypothesis{ID: uuid.New(), OriginUserID: "bob", Content: "narrower", ParentHypothesisID: &parent.ID}
	require.NoError(t, db.Hypotheses.Create(ctx, child))
	require.NoError(t, db.Verifications.Create(ctx, &domain.Verification{HypothesisID: parent.ID, VerifierUserID: "bob", Result: domain.ResultSuccess}))

	n, err := db.Hypotheses.DeleteByOrigin(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := db.Hypotheses.GetByID(ctx, child.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentHypothesisID)

	records, err := db.Verifications.ListByHypothesis(ctx, parent.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}
