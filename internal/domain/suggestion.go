package domain

import (
	"time"

	"github.com/google/uuid"
)

type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "PENDING"
	SuggestionAccepted SuggestionStatus = "ACCEPTED"
	SuggestionRejected SuggestionStatus = "REJECTED"
	SuggestionEdited   SuggestionStatus = "EDITED"
)

// Decision is a moderator's answer to a pending suggestion.
type Decision string

const (
	DecisionAccept Decision = "ACCEPT"
	DecisionReject Decision = "REJECT"
	DecisionEdit   Decision = "EDIT"
)

func ValidDecision(d string) bool {
	switch Decision(d) {
	case DecisionAccept, DecisionReject, DecisionEdit:
		return true
	}
	return false
}

// Outcome returns the suggestion status a decision moves to.
func (d Decision) Outcome() SuggestionStatus {
	switch d {
	case DecisionAccept:
		return SuggestionAccepted
	case DecisionEdit:
		return SuggestionEdited
	}
	return SuggestionRejected
}

// Publishes reports whether the decision shares the hypothesis.
func (d Decision) Publishes() bool {
	return d == DecisionAccept || d == DecisionEdit
}

type SharingSuggestion struct {
	ID               uuid.UUID        `json:"id"`
	HypothesisID     uuid.UUID        `json:"hypothesis_id"`
	UserID           string           `json:"user_id"`
	TeamID           *uuid.UUID       `json:"team_id,omitempty"`
	SuggestionReason string           `json:"suggestion_reason"`
	DraftContent     string           `json:"draft_content"`
	Status           SuggestionStatus `json:"status"`
	EditedContent    *string          `json:"edited_content,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	RespondedAt      *time.Time       `json:"responded_at,omitempty"`
}

// PublishedContent is the text that goes public for a publishing decision.
func (s *SharingSuggestion) PublishedContent() string {
	if s.Status == SuggestionEdited && s.EditedContent != nil {
		return *s.EditedContent
	}
	return s.DraftContent
}

// SuggestionResponse is a compare-and-swap on a pending suggestion.
type SuggestionResponse struct {
	SuggestionID  uuid.UUID
	Status        SuggestionStatus
	EditedContent *string
}

// SuggestionTrigger names the event that prompted an eligibility check.
type SuggestionTrigger string

const (
	TriggerQualityCheck         SuggestionTrigger = "quality_check"
	TriggerVerificationComplete SuggestionTrigger = "verification_complete"
)

func ValidSuggestionTrigger(t string) bool {
	switch SuggestionTrigger(t) {
	case TriggerQualityCheck, TriggerVerificationComplete:
		return true
	}
	return false
}

// ShouldSuggest reports whether h is worth proposing for sharing.
func ShouldSuggest(h *Hypothesis, trigger SuggestionTrigger) bool {
	if h.Status == StatusShared {
		return false
	}
	switch trigger {
	case TriggerQualityCheck:
		q := h.QualityScore
		return q != nil && (q.IsHighPotential || q.Overall >= HighPotentialOverall)
	case TriggerVerificationComplete:
		return h.VerificationState == StateValidated || h.VerificationState == StateFailed
	}
	return false
}

// AnonymizedDraft is what the external anonymization collaborator returns.
type AnonymizedDraft struct {
	Content string `json:"anonymized_content"`
	Reason  string `json:"suggestion_reason"`
}
