package service

import (
	"context"
	"testing"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/Harshitk-cp/teambrain/internal/store/memstore"
	"github.com/google/uuid"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

type testEnv struct {
	db            *memstore.DB
	hasher        *OriginHasher
	teams         *TeamService
	hypotheses    *HypothesisService
	verifications *VerificationService
	quality       *QualityService
	suggestions   *SuggestionService
	dashboard     *DashboardService
}

func newTestEnv() *testEnv {
	db := memstore.New()
	logger := testLogger()
	hasher := NewOriginHasher("test-secret")
	hyp := NewHypothesisService(db.Hypotheses, db.Teams, hasher, logger)
	return &testEnv{
		db:            db,
		hasher:        hasher,
		teams:         NewTeamService(db.Tx, db.Teams, logger),
		hypotheses:    hyp,
		verifications: NewVerificationService(db.Tx, db.Hypotheses, db.Verifications, db.Teams, logger),
		quality:       NewQualityService(db.Tx, db.Hypotheses, db.QualityScores, db.Teams, logger),
		suggestions:   NewSuggestionService(db.Tx, db.Suggestions, hyp, logger),
		dashboard:     NewDashboardService(db.Hypotheses, db.Suggestions, db.Teams, logger),
	}
}

// newTeam creates a team owned by owner and adds the other members.
func (e *testEnv) newTeam(t *testing.T, owner string, members map[string]domain.Role) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	team, err := e.teams.Create(ctx, "team-"+owner, "", owner)
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	for user, role := range members {
		if _, err := e.teams.AddMember(ctx, team.ID, owner, user, role); err != nil {
			t.Fatalf("add %s: %v", user, err)
		}
	}
	return team.ID
}

func (e *testEnv) newHypothesis(t *testing.T, owner, content string) *domain.Hypothesis {
	t.Helper()
	h, err := e.hypotheses.Create(context.Background(), CreateHypothesisInput{OwnerID: owner, Content: content})
	if err != nil {
		t.Fatalf("create hypothesis: %v", err)
	}
	return h
}

func (e *testEnv) propose(t *testing.T, h *domain.Hypothesis) *domain.Hypothesis {
	t.Helper()
	out, err := e.hypotheses.Propose(context.Background(), h.ID, h.OriginUserID, nil)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	return out
}

func (e *testEnv) share(t *testing.T, h *domain.Hypothesis, teamID uuid.UUID) *domain.Hypothesis {
	t.Helper()
	out, err := e.hypotheses.Share(context.Background(), ShareInput{HypothesisID: h.ID, Actor: h.OriginUserID, TeamID: teamID})
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	return out
}

func statusPtr(s domain.HypothesisStatus) *domain.HypothesisStatus {
	return &s
}
