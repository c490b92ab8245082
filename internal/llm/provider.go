package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/teambrain/internal/domain"
)

// Provider constants
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderCerebras  = "cerebras"
	ProviderMock      = "mock"
)

// neutralScore is assumed for any axis the model leaves out.
const neutralScore = 0.5

// NewClient creates an LLM client based on the provider name.
// Returns an error if the provider is unknown or the API key is empty (except for mock).
func NewClient(provider, apiKey string) (domain.LLMClient, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIClient(apiKey), nil

	case ProviderAnthropic:
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for Anthropic provider")
		}
		return NewAnthropicClient(apiKey), nil

	case ProviderCerebras:
		if apiKey == "" {
			return nil, fmt.Errorf("CEREBRAS_API_KEY is required for Cerebras provider")
		}
		return NewCerebrasClient(apiKey), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (valid options: openai, anthropic, cerebras, mock)", provider)
	}
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func parseAssessment(raw string) (*domain.QualityAssessment, error) {
	raw = stripFences(raw)
	var parsed struct {
		Novelty     *float64 `json:"novelty_score"`
		Specificity *float64 `json:"specificity_score"`
		Impact      *float64 `json:"impact_score"`
		Rationale   string   `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse assessment: %w (raw: %s)", err, raw)
	}
	return &domain.QualityAssessment{
		Novelty:     orNeutral(parsed.Novelty),
		Specificity: orNeutral(parsed.Specificity),
		Impact:      orNeutral(parsed.Impact),
		Rationale:   parsed.Rationale,
	}, nil
}

func parseDraft(raw string) (*domain.AnonymizedDraft, error) {
	raw = stripFences(raw)
	var draft domain.AnonymizedDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("parse anonymized draft: %w (raw: %s)", err, raw)
	}
	draft.Content = strings.TrimSpace(draft.Content)
	if draft.Content == "" {
		return nil, fmt.Errorf("anonymized draft is empty")
	}
	return &draft, nil
}

func orNeutral(v *float64) float64 {
	if v == nil {
		return neutralScore
	}
	return *v
}
