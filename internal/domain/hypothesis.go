package domain

import (
	"time"

	"github.com/google/uuid"
)

type HypothesisStatus string

const (
	StatusDraft    HypothesisStatus = "DRAFT"
	StatusProposed HypothesisStatus = "PROPOSED"
	StatusShared   HypothesisStatus = "SHARED"
)

func ValidHypothesisStatus(s string) bool {
	switch HypothesisStatus(s) {
	case StatusDraft, StatusProposed, StatusShared:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is a legal edge from s.
// DRAFT -> PROPOSED -> SHARED, DRAFT -> SHARED, and the single back-edge
// PROPOSED -> DRAFT. SHARED is terminal.
func (s HypothesisStatus) CanTransitionTo(next HypothesisStatus) bool {
	switch s {
	case StatusDraft:
		return next == StatusProposed || next == StatusShared
	case StatusProposed:
		return next == StatusDraft || next == StatusShared
	}
	return false
}

type VerificationState string

const (
	StateUnverified VerificationState = "UNVERIFIED"
	StateInProgress VerificationState = "IN_PROGRESS"
	StateValidated  VerificationState = "VALIDATED"
	StateFailed     VerificationState = "FAILED"
)

func ValidVerificationState(s string) bool {
	switch VerificationState(s) {
	case StateUnverified, StateInProgress, StateValidated, StateFailed:
		return true
	}
	return false
}

// MaxDerivationDepth bounds the ancestor walk performed when a hypothesis is
// created with a parent.
const MaxDerivationDepth = 64

type Hypothesis struct {
	ID                 uuid.UUID         `json:"id"`
	OriginUserID       string            `json:"origin_user_id,omitempty"`
	OriginUserIDHash   string            `json:"origin_user_id_hash,omitempty"`
	TeamID             *uuid.UUID        `json:"team_id,omitempty"`
	Content            string            `json:"content"`
	PrivateContent     *string           `json:"private_content,omitempty"`
	OriginalExperience *string           `json:"original_experience,omitempty"`
	Status             HypothesisStatus  `json:"status"`
	VerificationState  VerificationState `json:"verification_state"`
	QualityScore       *QualitySnapshot  `json:"quality_score,omitempty"`
	ParentHypothesisID *uuid.UUID        `json:"parent_hypothesis_id,omitempty"`
	Tags               []string          `json:"tags"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	SharedAt           *time.Time        `json:"shared_at,omitempty"`
}

// IsOrigin reports whether userID authored h.
func (h *Hypothesis) IsOrigin(userID string) bool {
	return userID != "" && h.OriginUserID == userID
}

// Redacted returns a copy of h trimmed to what a reader with the given access
// may see. Only the author sees private fields; team editors and owners also
// see the true author id.
func (h *Hypothesis) Redacted(access Access) Hypothesis {
	out := *h
	if h.Tags != nil {
		out.Tags = append([]string(nil), h.Tags...)
	}
	if access == AccessOrigin {
		return out
	}
	out.PrivateContent = nil
	out.OriginalExperience = nil
	if access != AccessTeamEditor {
		out.OriginUserID = ""
	}
	return out
}

// Access describes how a reader relates to a hypothesis.
type Access int

const (
	AccessNone Access = iota
	AccessTeamViewer
	AccessTeamEditor
	AccessOrigin
)

// StatusTransition is a compare-and-swap status update: it applies only while
// the stored status still equals From.
type StatusTransition struct {
	HypothesisID     uuid.UUID
	From             HypothesisStatus
	To               HypothesisStatus
	TeamID           *uuid.UUID
	OriginUserIDHash string
	PublishedContent *string
}

type HypothesisFilter struct {
	Status            *HypothesisStatus
	VerificationState *VerificationState
	Limit             int
}

// OriginSummary aggregates every hypothesis one user authored.
type OriginSummary struct {
	ByStatus            map[HypothesisStatus]int
	ByVerificationState map[VerificationState]int
	HighPotential       int
	// OverallScores holds the snapshot overall of each scored hypothesis.
	OverallScores []float64
}

// SharedHypothesis is an entry of a team's shared pool.
type SharedHypothesis struct {
	Hypothesis
	TotalVerifications int `json:"total_verifications"`
	SuccessCount       int `json:"success_count"`
	FailureCount       int `json:"failure_count"`
}

// Derivations describes where a hypothesis sits in its derivation forest.
type Derivations struct {
	HypothesisID uuid.UUID    `json:"hypothesis_id"`
	Ancestors    []uuid.UUID  `json:"ancestors"`
	Children     []Hypothesis `json:"children"`
}
