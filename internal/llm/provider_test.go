package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		provider string
		key      string
		wantErr  bool
	}{
		{ProviderMock, "", false},
		{ProviderOpenAI, "sk-test", false},
		{ProviderOpenAI, "", true},
		{ProviderAnthropic, "", true},
		{ProviderCerebras, "csk", false},
		{"bard", "key", true},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			c, err := NewClient(tt.provider, tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, c)
		})
	}
}

func TestParseAssessment(t *testing.T) {
	a, err := parseAssessment("```json\n{\"novelty_score\": 0.8, \"impact_score\": 0.3, \"rationale\": \"new\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, 0.8, a.Novelty)
	assert.Equal(t, neutralScore, a.Specificity)
	assert.Equal(t, 0.3, a.Impact)
	assert.Equal(t, "new", a.Rationale)

	_, err = parseAssessment("not json")
	assert.Error(t, err)
}

func TestParseDraft(t *testing.T) {
	d, err := parseDraft(`{"content": "  retries mask a slow upstream  ", "reason": "names removed"}`)
	require.NoError(t, err)
	assert.Equal(t, "retries mask a slow upstream", d.Content)
	assert.Equal(t, "names removed", d.Reason)

	_, err = parseDraft(`{"content": "   "}`)
	assert.Error(t, err)
}

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Messages, 1)

		w.WriteHeader(status)
		resp := map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": content}}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClient_ScoreHypothesis(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"novelty_score": 0.9, "specificity_score": 0.7, "impact_score": 0.4, "rationale": "ok"}`)
	c := NewOpenAIClient("sk-test")
	c.url = srv.URL

	a, err := c.ScoreHypothesis(context.Background(), "cache misses spike after deploys")
	require.NoError(t, err)
	assert.Equal(t, 0.9, a.Novelty)
	assert.Equal(t, 0.7, a.Specificity)
	assert.Equal(t, 0.4, a.Impact)
}

func TestOpenAIClient_AnonymizeHypothesis(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"content": "a generalised claim", "reason": "dropped names"}`)
	c := NewOpenAIClient("sk-test")
	c.url = srv.URL

	d, err := c.AnonymizeHypothesis(context.Background(), "alice's service breaks on Mondays")
	require.NoError(t, err)
	assert.Equal(t, "a generalised claim", d.Content)
}

func TestOpenAIClient_ErrorStatus(t *testing.T) {
	srv := chatServer(t, http.StatusInternalServerError, "")
	c := NewOpenAIClient("sk-test")
	c.url = srv.URL

	_, err := c.ScoreHypothesis(context.Background(), "x")
	assert.ErrorContains(t, err, "status 500")
}

func TestMockClient(t *testing.T) {
	m := NewMockClient()
	d, err := m.AnonymizeHypothesis(context.Background(), "echo me")
	require.NoError(t, err)
	assert.Equal(t, "echo me", d.Content)

	a, err := m.ScoreHypothesis(context.Background(), "score me")
	require.NoError(t, err)
	assert.Equal(t, neutralScore, a.Novelty)
	assert.Equal(t, []string{"score me"}, m.ScoreCalls)

	m.Reset()
	assert.Empty(t, m.AnonymizeCalls)
}
