package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Transactor runs fn inside one storage transaction. Stores called with the
// context handed to fn take part in that transaction; nested calls join the
// outer one. The transaction commits only if fn returns nil.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type APIClientStore interface {
	Create(ctx context.Context, c *APIClient) error
	GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*APIClient, error)
}

type TeamStore interface {
	Create(ctx context.Context, t *Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*Team, error)
	// LockByID takes a row lock on the team for the rest of the transaction.
	LockByID(ctx context.Context, id uuid.UUID) error
	ListByUser(ctx context.Context, userID string) ([]TeamSummary, error)

	AddMember(ctx context.Context, m *Membership) error
	GetMembership(ctx context.Context, teamID uuid.UUID, userID string) (*Membership, error)
	UpdateMemberRole(ctx context.Context, teamID uuid.UUID, userID string, role Role) error
	RemoveMember(ctx context.Context, teamID uuid.UUID, userID string) error
	ListMembers(ctx context.Context, teamID uuid.UUID) ([]Membership, error)
	CountOwners(ctx context.Context, teamID uuid.UUID) (int, error)
	// ListSharedTeamRoles returns userID's role in every team otherUserID also
	// belongs to.
	ListSharedTeamRoles(ctx context.Context, userID, otherUserID string) ([]Role, error)
}

type HypothesisStore interface {
	Create(ctx context.Context, h *Hypothesis) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hypothesis, error)
	// GetForUpdate reads the hypothesis and locks its row for the rest of the
	// transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Hypothesis, error)
	GetParentID(ctx context.Context, id uuid.UUID) (*uuid.UUID, error)
	ListChildren(ctx context.Context, id uuid.UUID) ([]Hypothesis, error)

	// UpdateContent rewrites content and tags of an unshared hypothesis.
	UpdateContent(ctx context.Context, id uuid.UUID, content *string, tags []string) (*Hypothesis, error)
	// Transition applies t only if the stored status still equals t.From.
	Transition(ctx context.Context, t StatusTransition) (*Hypothesis, error)
	UpdateVerificationState(ctx context.Context, id uuid.UUID, state VerificationState) error
	// ApplyQualitySnapshot replaces the cached snapshot only if snap supersedes
	// the stored one, and reports whether it did.
	ApplyQualitySnapshot(ctx context.Context, id uuid.UUID, snap QualitySnapshot) (bool, error)

	ListByOrigin(ctx context.Context, userID string, f HypothesisFilter) ([]Hypothesis, error)
	ListShared(ctx context.Context, teamID uuid.UUID, f HypothesisFilter) ([]SharedHypothesis, error)
	ListHighPotential(ctx context.Context, userID string, limit int) ([]Hypothesis, error)
	SummarizeByOrigin(ctx context.Context, userID string) (*OriginSummary, error)
	DeleteByOrigin(ctx context.Context, userID string) (int64, error)
}

type VerificationStore interface {
	Create(ctx context.Context, v *Verification) error
	GetByID(ctx context.Context, id uuid.UUID) (*Verification, error)
	// HasContinuation reports whether a differential record already continues id.
	HasContinuation(ctx context.Context, id uuid.UUID) (bool, error)
	ListByHypothesis(ctx context.Context, hypothesisID uuid.UUID) ([]Verification, error)
}

type QualityScoreStore interface {
	Create(ctx context.Context, r *QualityScoreRecord) error
	// ListByHypothesis returns the scoring history newest first.
	ListByHypothesis(ctx context.Context, hypothesisID uuid.UUID, limit int) ([]QualityScoreRecord, error)
}

type SuggestionStore interface {
	Create(ctx context.Context, s *SharingSuggestion) error
	GetByID(ctx context.Context, id uuid.UUID) (*SharingSuggestion, error)
	// Respond moves a PENDING suggestion to r.Status; a suggestion that is no
	// longer pending yields a conflict.
	Respond(ctx context.Context, r SuggestionResponse) (*SharingSuggestion, error)
	ListPendingByUser(ctx context.Context, userID string, limit int) ([]SharingSuggestion, error)
	CountPendingByUser(ctx context.Context, userID string) (int, error)
	// ExpirePending rejects every pending suggestion created before cutoff.
	ExpirePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// QualityScorer assesses a hypothesis's content. Implementations call out to
// an external model; the core never calls them itself.
type QualityScorer interface {
	ScoreHypothesis(ctx context.Context, content string) (*QualityAssessment, error)
}

// Anonymizer rewrites hypothesis content so it can be published without
// identifying its author.
type Anonymizer interface {
	AnonymizeHypothesis(ctx context.Context, content string) (*AnonymizedDraft, error)
}

// LLMClient is the full collaborator surface a provider implements.
type LLMClient interface {
	QualityScorer
	Anonymizer
}
