package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/Harshitk-cp/teambrain/internal/store/memstore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rewiredParents lets a test graft ancestor links the store would never
// accept on insert.
type rewiredParents struct {
	*memstore.HypothesisStore
	parents map[uuid.UUID]uuid.UUID
}

func (s rewiredParents) GetParentID(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	if p, ok := s.parents[id]; ok {
		return &p, nil
	}
	return s.HypothesisStore.GetParentID(ctx, id)
}

func TestHypothesisService_Create(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	h, err := env.hypotheses.Create(ctx, CreateHypothesisInput{
		OwnerID: "alice",
		Content: "  caching the token cuts p99 in half ",
		Tags:    []string{"perf", " perf ", "", "auth"},
	})
	require.NoError(t, err)
	assert.Equal(t, "caching the token cuts p99 in half", h.Content)
	assert.Equal(t, domain.StatusDraft, h.Status)
	assert.Equal(t, domain.StateUnverified, h.VerificationState)
	assert.Equal(t, []string{"perf", "auth"}, h.Tags)

	_, err = env.hypotheses.Create(ctx, CreateHypothesisInput{OwnerID: "alice", Content: "   "})
	assert.ErrorIs(t, err, ErrContentRequired)

	_, err = env.hypotheses.Create(ctx, CreateHypothesisInput{ID: &h.ID, OwnerID: "alice", Content: "dup"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestHypothesisService_CreateRejectsSelfDerivation(t *testing.T) {
	env := newTestEnv()
	id := uuid.New()

	_, err := env.hypotheses.Create(context.Background(), CreateHypothesisInput{
		ID:       &id,
		OwnerID:  "alice",
		Content:  "derived from itself",
		ParentID: &id,
	})
	if !errors.Is(err, domain.ErrCyclicDerivation) {
		t.Fatalf("expected cyclic derivation, got %v", err)
	}
}

func TestHypothesisService_CreateDetectsAncestorCycle(t *testing.T) {
	db := memstore.New()
	parents := rewiredParents{HypothesisStore: db.Hypotheses, parents: map[uuid.UUID]uuid.UUID{}}
	svc := NewHypothesisService(parents, db.Teams, NewOriginHasher(""), testLogger())
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateHypothesisInput{OwnerID: "alice", Content: "a"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, CreateHypothesisInput{OwnerID: "alice", Content: "b", ParentID: &a.ID})
	require.NoError(t, err)

	parents.parents[a.ID] = b.ID

	_, err = svc.Create(ctx, CreateHypothesisInput{OwnerID: "alice", Content: "c", ParentID: &b.ID})
	assert.ErrorIs(t, err, ErrDerivationCycle)
}

func TestHypothesisService_CreateBoundsAncestorWalk(t *testing.T) {
	db := memstore.New()
	parents := rewiredParents{HypothesisStore: db.Hypotheses, parents: map[uuid.UUID]uuid.UUID{}}
	svc := NewHypothesisService(parents, db.Teams, NewOriginHasher(""), testLogger())
	ctx := context.Background()

	root, err := svc.Create(ctx, CreateHypothesisInput{OwnerID: "alice", Content: "root"})
	require.NoError(t, err)

	cur := root.ID
	for i := 0; i < domain.MaxDerivationDepth+5; i++ {
		next := uuid.New()
		parents.parents[cur] = next
		cur = next
	}

	_, err = svc.Create(ctx, CreateHypothesisInput{OwnerID: "alice", Content: "leaf", ParentID: &root.ID})
	assert.ErrorIs(t, err, ErrDerivationTooDeep)
}

func TestHypothesisService_ParentMustBeVisible(t *testing.T) {
	env := newTestEnv()
	secret := env.newHypothesis(t, "alice", "private draft")

	_, err := env.hypotheses.Create(context.Background(), CreateHypothesisInput{OwnerID: "bob", Content: "child", ParentID: &secret.ID})
	assert.ErrorIs(t, err, ErrParentNotFound)

	missing := uuid.New()
	_, err = env.hypotheses.Create(context.Background(), CreateHypothesisInput{OwnerID: "bob", Content: "child", ParentID: &missing})
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestHypothesisService_Visibility(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.newTeam(t, "alice", map[string]domain.Role{"bob": domain.RoleEditor, "carol": domain.RoleViewer})
	h := env.newHypothesis(t, "alice", "draft idea")

	// DRAFT is private.
	_, err := env.hypotheses.Get(ctx, h.ID, "bob")
	assert.ErrorIs(t, err, ErrHypothesisNotFound)

	env.propose(t, h)

	asEditor, err := env.hypotheses.Get(ctx, h.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "alice", asEditor.OriginUserID)

	asViewer, err := env.hypotheses.Get(ctx, h.ID, "carol")
	require.NoError(t, err)
	assert.Empty(t, asViewer.OriginUserID)

	_, err = env.hypotheses.Get(ctx, h.ID, "mallory")
	assert.ErrorIs(t, err, ErrHypothesisNotFound)
}

func TestHypothesisService_ShareRules(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	teamID := env.newTeam(t, "alice", map[string]domain.Role{"bob": domain.RoleEditor, "carol": domain.RoleViewer})
	otherTeam := env.newTeam(t, "bob", nil)

	h := env.propose(t, env.newHypothesis(t, "alice", "index the join column"))

	_, err := env.hypotheses.Share(ctx, ShareInput{HypothesisID: h.ID, Actor: "carol", TeamID: teamID})
	assert.ErrorIs(t, err, ErrInsufficientRole)

	_, err = env.hypotheses.Share(ctx, ShareInput{HypothesisID: h.ID, Actor: "bob", TeamID: otherTeam})
	assert.ErrorIs(t, err, ErrOriginNotInTeam)

	_, err = env.hypotheses.Share(ctx, ShareInput{HypothesisID: h.ID, Actor: "alice", TeamID: otherTeam})
	assert.ErrorIs(t, err, ErrNotTeamMember)

	_, err = env.hypotheses.Share(ctx, ShareInput{HypothesisID: h.ID, Actor: "alice", TeamID: uuid.New()})
	assert.ErrorIs(t, err, ErrTeamNotFound)

	shared, err := env.hypotheses.Share(ctx, ShareInput{HypothesisID: h.ID, Actor: "bob", TeamID: teamID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShared, shared.Status)
	assert.Equal(t, teamID, *shared.TeamID)
	assert.NotNil(t, shared.SharedAt)
}

func TestHypothesisService_SharedIsTerminal(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	teamID := env.newTeam(t, "alice", nil)
	h := env.share(t, env.newHypothesis(t, "alice", "terminal"), teamID)

	_, err := env.hypotheses.Propose(ctx, h.ID, "alice", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = env.hypotheses.RejectToDraft(ctx, h.ID, "alice", nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = env.hypotheses.Share(ctx, ShareInput{HypothesisID: h.ID, Actor: "alice", TeamID: teamID})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	content := "rewrite"
	_, err = env.hypotheses.Refine(ctx, h.ID, "alice", &content, nil)
	assert.ErrorIs(t, err, ErrSharedImmutable)
}

func TestHypothesisService_StaleExpectedStatus(t *testing.T) {
	env := newTestEnv()
	h := env.newHypothesis(t, "alice", "expected status")

	_, err := env.hypotheses.Propose(context.Background(), h.ID, "alice", statusPtr(domain.StatusProposed))
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	got, err := env.hypotheses.Propose(context.Background(), h.ID, "alice", statusPtr(domain.StatusDraft))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProposed, got.Status)
}

func TestHypothesisService_ProposeByTeammateIsForbidden(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.newTeam(t, "alice", map[string]domain.Role{"bob": domain.RoleEditor})
	h := env.propose(t, env.newHypothesis(t, "alice", "visible to the team once proposed"))

	_, err := env.hypotheses.Propose(ctx, h.ID, "bob", nil)
	assert.ErrorIs(t, err, ErrNotOrigin)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.hypotheses.Propose(ctx, h.ID, "alice", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestHypothesisService_RejectToDraft(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	teamID := env.newTeam(t, "alice", map[string]domain.Role{"bob": domain.RoleEditor, "carol": domain.RoleViewer})
	h := env.propose(t, env.newHypothesis(t, "alice", "needs more evidence"))

	_, err := env.hypotheses.RejectToDraft(ctx, h.ID, "carol", nil, nil)
	assert.ErrorIs(t, err, ErrInsufficientRole)

	_, err = env.hypotheses.RejectToDraft(ctx, h.ID, "carol", &teamID, nil)
	assert.ErrorIs(t, err, ErrInsufficientRole)

	draft, err := env.hypotheses.RejectToDraft(ctx, h.ID, "bob", &teamID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, draft.Status)

	// Back to private: bob no longer sees it.
	_, err = env.hypotheses.Get(ctx, h.ID, "bob")
	assert.ErrorIs(t, err, ErrHypothesisNotFound)
}

func TestHypothesisService_Refine(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.newTeam(t, "alice", map[string]domain.Role{"bob": domain.RoleEditor})
	h := env.propose(t, env.newHypothesis(t, "alice", "first wording"))

	content := "second wording"
	_, err := env.hypotheses.Refine(ctx, h.ID, "bob", &content, nil)
	assert.ErrorIs(t, err, ErrNotOrigin)

	got, err := env.hypotheses.Refine(ctx, h.ID, "alice", &content, []string{"db"})
	require.NoError(t, err)
	assert.Equal(t, content, got.Content)
	assert.Equal(t, []string{"db"}, got.Tags)
	assert.Equal(t, domain.StatusProposed, got.Status)
}

func TestHypothesisService_PublishedContentHidesOriginal(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	teamID := env.newTeam(t, "alice", map[string]domain.Role{"carol": domain.RoleViewer})
	h := env.newHypothesis(t, "alice", "our billing service at Acme drops webhooks")

	published := "a billing service drops webhooks under load"
	_, err := env.hypotheses.Share(ctx, ShareInput{HypothesisID: h.ID, Actor: "alice", TeamID: teamID, PublishedContent: &published})
	require.NoError(t, err)

	own, err := env.hypotheses.Get(ctx, h.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, published, own.Content)
	require.NotNil(t, own.PrivateContent)
	assert.Equal(t, h.Content, *own.PrivateContent)

	pool, err := env.hypotheses.ListShared(ctx, teamID, "carol", domain.HypothesisFilter{})
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, published, pool[0].Content)
	assert.Nil(t, pool[0].PrivateContent)
	assert.Empty(t, pool[0].OriginUserID)
	assert.Equal(t, env.hasher.Hash("alice"), pool[0].OriginUserIDHash)

	_, err = env.hypotheses.ListShared(ctx, teamID, "mallory", domain.HypothesisFilter{})
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestHypothesisService_ListMineFilters(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.newHypothesis(t, "alice", "one")
	env.propose(t, env.newHypothesis(t, "alice", "two"))
	env.newHypothesis(t, "bob", "not mine")

	all, err := env.hypotheses.ListMine(ctx, "alice", domain.HypothesisFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "two", all[0].Content)

	proposed, err := env.hypotheses.ListMine(ctx, "alice", domain.HypothesisFilter{Status: statusPtr(domain.StatusProposed)})
	require.NoError(t, err)
	assert.Len(t, proposed, 1)

	_, err = env.hypotheses.ListMine(ctx, "alice", domain.HypothesisFilter{Status: statusPtr("ARCHIVED")})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestHypothesisService_Derivations(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	root := env.newHypothesis(t, "alice", "root")
	mid, err := env.hypotheses.Create(ctx, CreateHypothesisInput{OwnerID: "alice", Content: "mid", ParentID: &root.ID})
	require.NoError(t, err)
	leaf, err := env.hypotheses.Create(ctx, CreateHypothesisInput{OwnerID: "alice", Content: "leaf", ParentID: &mid.ID})
	require.NoError(t, err)

	d, err := env.hypotheses.Derivations(ctx, leaf.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{mid.ID, root.ID}, d.Ancestors)
	assert.Empty(t, d.Children)

	d, err = env.hypotheses.Derivations(ctx, root.ID, "alice")
	require.NoError(t, err)
	require.Len(t, d.Children, 1)
	assert.Equal(t, mid.ID, d.Children[0].ID)
}

func TestHypothesisService_PurgeUser(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.newHypothesis(t, "alice", "one")
	env.newHypothesis(t, "alice", "two")
	keep := env.newHypothesis(t, "bob", "three")

	n, err := env.hypotheses.PurgeUser(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = env.hypotheses.Get(ctx, keep.ID, "bob")
	assert.NoError(t, err)

	_, err = env.hypotheses.PurgeUser(ctx, "")
	assert.ErrorIs(t, err, ErrUserIDRequired)
}
