package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	mw "github.com/Harshitk-cp/teambrain/internal/api/middleware"
	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/Harshitk-cp/teambrain/internal/llm"
	"github.com/Harshitk-cp/teambrain/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	t   *testing.T
	app *App
	llm *llm.MockClient
	key string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	t.Setenv("RATE_LIMIT_BURST", "1000")

	mock := llm.NewMockClient()
	deps := NewMemoryStores(memstore.New())
	deps.LLM = mock
	logger, _ := zap.NewDevelopment()

	s := &testServer{t: t, app: NewAppWithDeps(deps, logger), llm: mock}

	var created struct {
		APIKey string `json:"api_key"`
	}
	code := s.do(http.MethodPost, "/v1/clients", "", map[string]string{"name": "web"}, &created)
	require.Equal(t, http.StatusCreated, code)
	require.NotEmpty(t, created.APIKey)
	s.key = created.APIKey
	return s
}

// do sends body as JSON on behalf of user and decodes the response into out.
// An empty user sends no credentials at all.
func (s *testServer) do(method, path, user string, body, out any) int {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+s.key)
		req.Header.Set(mw.UserIDHeader, user)
	}
	rec := httptest.NewRecorder()
	s.app.Router.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

type hypothesisJSON struct {
	ID                string  `json:"id"`
	OriginUserID      string  `json:"origin_user_id"`
	OriginUserIDHash  string  `json:"origin_user_id_hash"`
	TeamID            string  `json:"team_id"`
	Content           string  `json:"content"`
	PrivateContent    *string `json:"private_content"`
	Status            string  `json:"status"`
	VerificationState string  `json:"verification_state"`
	SharedAt          *string `json:"shared_at"`
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	var health map[string]string
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", nil, &health))
	assert.Equal(t, "ok", health["status"])

	var version map[string]string
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/version", "", nil, &version))
	assert.Contains(t, version, "version")

	var stats map[string]any
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/stats", "", nil, &stats))
	assert.Contains(t, stats, "request_count")

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/metrics", "", nil, nil))
}

func TestHealthReportsPingFailure(t *testing.T) {
	deps := NewMemoryStores(memstore.New())
	deps.Ping = func(*http.Request) error { return errors.New("db down") }
	app := NewAppWithDeps(deps, zap.NewNop())

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/v1/teams", "", nil, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/v1/clients", "", map[string]string{"name": ""}, nil))
}

func TestTeamBrainWorkflow(t *testing.T) {
	s := newTestServer(t)

	var team struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/v1/teams", "alice", map[string]string{"name": "platform"}, &team))
	assert.Equal(t, "owner", team.Role)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/v1/teams/"+team.ID+"/members", "alice",
		map[string]string{"user_id": "bob", "role": "viewer"}, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/v1/teams/"+team.ID+"/members", "alice",
		map[string]string{"user_id": "carol", "role": "admin"}, nil))
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/v1/teams/"+team.ID+"/members", "bob",
		map[string]string{"user_id": "carol", "role": "viewer"}, nil))

	var h hypothesisJSON
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/v1/hypotheses", "alice",
		map[string]any{"content": "pinning the base image stops surprise CVE rebuilds", "tags": []string{"ci"}}, &h))
	assert.Equal(t, "DRAFT", h.Status)
	base := "/v1/hypotheses/" + h.ID

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/v1/hypotheses", "alice", map[string]string{"content": ""}, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/v1/hypotheses/not-a-uuid", "alice", nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, base, "bob", nil, nil))

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, base+"/propose", "alice", nil, &h))
	assert.Equal(t, "PROPOSED", h.Status)

	var conflict map[string]any
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, base+"/propose", "alice",
		map[string]string{"expected_status": "DRAFT"}, &conflict))
	assert.Equal(t, true, conflict["retryable"])

	var verification struct {
		ID                string `json:"id"`
		VerificationState string `json:"verification_state"`
	}
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, base+"/verifications", "bob",
		map[string]any{"result": "PARTIAL", "evidence": map[string]any{"builds": 4}}, &verification))
	assert.Equal(t, "IN_PROGRESS", verification.VerificationState)
	rootID := verification.ID
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, base+"/verifications", "bob",
		map[string]any{"result": "SUCCESS", "parent_verification_id": rootID}, &verification))
	assert.Equal(t, "VALIDATED", verification.VerificationState)
	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPost, base+"/verifications", "bob",
		map[string]any{"result": "FAILURE", "parent_verification_id": rootID, "notes": "second amendment of the root"}, nil))

	var chains []map[string]any
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, base+"/verifications", "alice", nil, &chains))
	assert.Len(t, chains, 1)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, base+"/share", "bob", map[string]string{"team_id": team.ID}, nil))
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, base+"/share", "alice",
		map[string]string{"team_id": team.ID, "published_content": "pinning base images stops surprise rebuilds"}, &h))
	assert.Equal(t, "SHARED", h.Status)
	assert.Equal(t, team.ID, h.TeamID)
	assert.NotNil(t, h.SharedAt)
	assert.NotEmpty(t, h.OriginUserIDHash)

	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPost, base+"/reject", "alice", nil, nil))
	content := "edited after sharing"
	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPatch, base, "alice", map[string]*string{"content": &content}, nil))

	var pool []hypothesisJSON
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/teams/"+team.ID+"/hypotheses", "bob", nil, &pool))
	require.Len(t, pool, 1)
	assert.Empty(t, pool[0].OriginUserID)
	assert.Nil(t, pool[0].PrivateContent)
	assert.Equal(t, "pinning base images stops surprise rebuilds", pool[0].Content)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/v1/teams/"+team.ID+"/hypotheses", "mallory", nil, nil))
}

func TestSuggestionWorkflow(t *testing.T) {
	s := newTestServer(t)

	var team struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/v1/teams", "alice", map[string]string{"name": "data"}, &team))

	var h hypothesisJSON
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/v1/hypotheses", "alice",
		map[string]string{"content": "Acme's nightly export is slow because of the audit trigger"}, &h))
	base := "/v1/hypotheses/" + h.ID

	var gen struct {
		Suggested  bool `json:"suggested"`
		Suggestion *struct {
			ID           string `json:"id"`
			DraftContent string `json:"draft_content"`
		} `json:"suggestion"`
	}
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, base+"/suggestions/generate", "alice",
		map[string]string{"team_id": team.ID, "trigger": "quality_check"}, &gen))
	assert.False(t, gen.Suggested)

	var scored struct {
		Overall          float64 `json:"overall"`
		SnapshotReplaced bool    `json:"snapshot_replaced"`
	}
	s.llm.ScoreResponse.Novelty, s.llm.ScoreResponse.Specificity, s.llm.ScoreResponse.Impact = 0.8, 0.8, 0.8
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, base+"/quality-scores/assess", "alice", nil, &scored))
	assert.InDelta(t, 0.8, scored.Overall, 0.001)
	assert.True(t, scored.SnapshotReplaced)

	s.llm.AnonymizeResponse = &domain.AnonymizedDraft{Content: "a nightly export is slow because of an audit trigger", Reason: "generic and useful"}
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, base+"/suggestions/generate", "alice",
		map[string]string{"team_id": team.ID, "trigger": "quality_check"}, &gen))
	require.True(t, gen.Suggested)
	require.NotNil(t, gen.Suggestion)
	assert.Equal(t, "a nightly export is slow because of an audit trigger", gen.Suggestion.DraftContent)

	var pending []map[string]any
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/suggestions", "alice", nil, &pending))
	assert.Len(t, pending, 1)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/v1/suggestions/"+gen.Suggestion.ID, "bob", nil, nil))

	var answered struct {
		Suggestion struct {
			Status string `json:"status"`
		} `json:"suggestion"`
		Hypothesis *hypothesisJSON `json:"hypothesis"`
	}
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/v1/suggestions/"+gen.Suggestion.ID+"/respond", "alice",
		map[string]string{"decision": "ACCEPT"}, &answered))
	assert.Equal(t, "ACCEPTED", answered.Suggestion.Status)
	require.NotNil(t, answered.Hypothesis)
	assert.Equal(t, "SHARED", answered.Hypothesis.Status)
	assert.Equal(t, "a nightly export is slow because of an audit trigger", answered.Hypothesis.Content)

	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPost, "/v1/suggestions/"+gen.Suggestion.ID+"/respond", "alice",
		map[string]string{"decision": "REJECT"}, nil))

	var dashboard struct {
		TotalHypotheses    int            `json:"total_hypotheses"`
		ByStatus           map[string]int `json:"by_status"`
		HighPotentialCount int            `json:"high_potential_count"`
	}
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/dashboard", "alice", nil, &dashboard))
	assert.Equal(t, 1, dashboard.TotalHypotheses)
	assert.Equal(t, 1, dashboard.ByStatus["SHARED"])
	assert.Equal(t, 1, dashboard.HighPotentialCount)
}

func TestLLMFailuresAreBadGateway(t *testing.T) {
	s := newTestServer(t)

	var h hypothesisJSON
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/v1/hypotheses", "alice", map[string]string{"content": "x"}, &h))
	base := "/v1/hypotheses/" + h.ID

	s.llm.ScoreError = errors.New("provider timeout")
	s.llm.AnonymizeError = errors.New("provider timeout")

	assert.Equal(t, http.StatusBadGateway, s.do(http.MethodPost, base+"/quality-scores/assess", "alice", nil, nil))
	assert.Equal(t, http.StatusBadGateway, s.do(http.MethodPost, base+"/suggestions/generate", "alice", nil, nil))

	var history []map[string]any
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, base+"/quality-scores", "alice", nil, &history))
	assert.Empty(t, history)
}
