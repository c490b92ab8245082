package llm

import (
	"context"
	"sync"

	"github.com/Harshitk-cp/teambrain/internal/domain"
)

// MockClient is a configurable LLM client for testing.
// Set the response fields to control what each method returns.
type MockClient struct {
	mu sync.Mutex

	ScoreResponse *domain.QualityAssessment
	ScoreError    error
	// AnonymizeResponse, when nil, echoes the submitted content back.
	AnonymizeResponse *domain.AnonymizedDraft
	AnonymizeError    error

	// Call tracking for assertions
	ScoreCalls     []string
	AnonymizeCalls []string
}

func NewMockClient() *MockClient {
	c := &MockClient{}
	c.Reset()
	return c
}

func (c *MockClient) ScoreHypothesis(ctx context.Context, content string) (*domain.QualityAssessment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ScoreCalls = append(c.ScoreCalls, content)
	if c.ScoreError != nil {
		return nil, c.ScoreError
	}
	out := *c.ScoreResponse
	return &out, nil
}

func (c *MockClient) AnonymizeHypothesis(ctx context.Context, content string) (*domain.AnonymizedDraft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.AnonymizeCalls = append(c.AnonymizeCalls, content)
	if c.AnonymizeError != nil {
		return nil, c.AnonymizeError
	}
	if c.AnonymizeResponse == nil {
		return &domain.AnonymizedDraft{Content: content, Reason: "Mock suggestion"}, nil
	}
	out := *c.AnonymizeResponse
	return &out, nil
}

// Reset clears all recorded calls and resets responses to defaults.
func (c *MockClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ScoreResponse = &domain.QualityAssessment{
		Novelty:     neutralScore,
		Specificity: neutralScore,
		Impact:      neutralScore,
		Rationale:   "Mock assessment",
	}
	c.ScoreError = nil
	c.AnonymizeResponse = nil
	c.AnonymizeError = nil
	c.ScoreCalls = nil
	c.AnonymizeCalls = nil
}
