package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/Harshitk-cp/teambrain/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSuggestionNotFound      = fmt.Errorf("suggestion %w", domain.ErrNotFound)
	ErrInvalidDecision         = fmt.Errorf("%w: decision must be ACCEPT, REJECT or EDIT", domain.ErrInvalidInput)
	ErrEditedContentRequired   = fmt.Errorf("%w: edited_content is required for EDIT", domain.ErrInvalidInput)
	ErrDraftRequired           = fmt.Errorf("%w: draft_content is required", domain.ErrInvalidInput)
	ErrShareTeamRequired       = fmt.Errorf("%w: a team is required to share", domain.ErrInvalidInput)
	ErrInvalidTrigger          = fmt.Errorf("%w: trigger must be quality_check or verification_complete", domain.ErrInvalidInput)
	ErrSuggestionAnswered      = fmt.Errorf("%w: suggestion is no longer pending", domain.ErrInvalidTransition)
	ErrAlreadyShared           = fmt.Errorf("%w: hypothesis is already shared", domain.ErrInvalidTransition)
	ErrPendingSuggestionExists = fmt.Errorf("%w: hypothesis already has a pending suggestion", domain.ErrConflict)
)

type ProposeSuggestionInput struct {
	HypothesisID uuid.UUID
	SuggestedBy  string
	Reason       string
	DraftContent string
	TeamID       *uuid.UUID
}

type RespondSuggestionInput struct {
	SuggestionID  uuid.UUID
	Actor         string
	Decision      domain.Decision
	EditedContent *string
	// TeamID overrides the team stored on the suggestion.
	TeamID *uuid.UUID
}

type SuggestionService struct {
	tx          domain.Transactor
	suggestions domain.SuggestionStore
	hypotheses  *HypothesisService
	logger      *zap.Logger
}

func NewSuggestionService(tx domain.Transactor, ss domain.SuggestionStore, hs *HypothesisService, logger *zap.Logger) *SuggestionService {
	return &SuggestionService{tx: tx, suggestions: ss, hypotheses: hs, logger: logger}
}

// Propose queues a sharing suggestion addressed to the hypothesis's origin
// user, who is the only one allowed to raise it.
func (s *SuggestionService) Propose(ctx context.Context, in ProposeSuggestionInput) (*domain.SharingSuggestion, error) {
	draft := strings.TrimSpace(in.DraftContent)
	if draft == "" {
		return nil, ErrDraftRequired
	}

	h, _, err := s.hypotheses.load(ctx, in.HypothesisID, in.SuggestedBy)
	if err != nil {
		return nil, err
	}
	if !h.IsOrigin(in.SuggestedBy) {
		return nil, ErrNotOrigin
	}
	if h.Status == domain.StatusShared {
		return nil, ErrAlreadyShared
	}
	if in.TeamID != nil {
		role, err := s.hypotheses.auth.roleIn(ctx, *in.TeamID, h.OriginUserID)
		if err != nil {
			return nil, err
		}
		if role == "" {
			return nil, ErrNotTeamMember
		}
	}

	sg := &domain.SharingSuggestion{
		HypothesisID:     h.ID,
		UserID:           h.OriginUserID,
		TeamID:           in.TeamID,
		SuggestionReason: strings.TrimSpace(in.Reason),
		DraftContent:     draft,
	}
	if err := s.suggestions.Create(ctx, sg); err != nil {
		if errors.Is(err, store.ErrConflict) {
			conflicts.WithLabelValues("propose_suggestion").Inc()
			return nil, ErrPendingSuggestionExists
		}
		return nil, err
	}

	s.logger.Info("sharing suggestion proposed",
		zap.String("suggestion_id", sg.ID.String()),
		zap.String("hypothesis_id", sg.HypothesisID.String()))
	return sg, nil
}

// Respond settles a pending suggestion. For ACCEPT and EDIT the suggestion
// update and the share commit together: if sharing fails the suggestion stays
// pending.
func (s *SuggestionService) Respond(ctx context.Context, in RespondSuggestionInput) (*domain.SharingSuggestion, *domain.Hypothesis, error) {
	if !domain.ValidDecision(string(in.Decision)) {
		return nil, nil, ErrInvalidDecision
	}
	var edited *string
	if in.Decision == domain.DecisionEdit {
		if in.EditedContent == nil || strings.TrimSpace(*in.EditedContent) == "" {
			return nil, nil, ErrEditedContentRequired
		}
		trimmed := strings.TrimSpace(*in.EditedContent)
		edited = &trimmed
	}

	var (
		sg *domain.SharingSuggestion
		h  *domain.Hypothesis
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.get(ctx, in.SuggestionID, in.Actor)
		if err != nil {
			return err
		}
		if current.Status != domain.SuggestionPending {
			return ErrSuggestionAnswered
		}
		teamID := current.TeamID
		if in.TeamID != nil {
			teamID = in.TeamID
		}
		if in.Decision.Publishes() && teamID == nil {
			return ErrShareTeamRequired
		}

		sg, err = s.suggestions.Respond(ctx, domain.SuggestionResponse{
			SuggestionID:  current.ID,
			Status:        in.Decision.Outcome(),
			EditedContent: edited,
		})
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrSuggestionAnswered
			}
			return err
		}
		if !in.Decision.Publishes() {
			return nil
		}

		published := sg.PublishedContent()
		h, err = s.hypotheses.Share(ctx, ShareInput{
			HypothesisID:     sg.HypothesisID,
			Actor:            in.Actor,
			TeamID:           *teamID,
			PublishedContent: &published,
		})
		return err
	})
	suggestionResponses.WithLabelValues(string(in.Decision), outcome(err)).Inc()
	if err != nil {
		s.logger.Warn("sharing suggestion response failed",
			zap.String("suggestion_id", in.SuggestionID.String()),
			zap.String("decision", string(in.Decision)),
			zap.Error(err))
		return nil, nil, err
	}

	s.logger.Info("sharing suggestion answered",
		zap.String("suggestion_id", sg.ID.String()),
		zap.String("status", string(sg.Status)))
	return sg, h, nil
}

// Get returns the suggestion to the user it is addressed to.
func (s *SuggestionService) Get(ctx context.Context, id uuid.UUID, actor string) (*domain.SharingSuggestion, error) {
	return s.get(ctx, id, actor)
}

func (s *SuggestionService) get(ctx context.Context, id uuid.UUID, actor string) (*domain.SharingSuggestion, error) {
	sg, err := s.suggestions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSuggestionNotFound
		}
		return nil, err
	}
	if sg.UserID != actor {
		return nil, ErrSuggestionNotFound
	}
	return sg, nil
}

func (s *SuggestionService) ListPending(ctx context.Context, userID string, limit int) ([]domain.SharingSuggestion, error) {
	out, err := s.suggestions.ListPendingByUser(ctx, userID, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.SharingSuggestion{}
	}
	return out, nil
}

// ShouldSuggest reports whether the hypothesis is worth proposing for sharing
// after the given trigger.
func (s *SuggestionService) ShouldSuggest(ctx context.Context, hypothesisID uuid.UUID, viewer string, trigger domain.SuggestionTrigger) (bool, error) {
	if !domain.ValidSuggestionTrigger(string(trigger)) {
		return false, ErrInvalidTrigger
	}
	h, _, err := s.hypotheses.load(ctx, hypothesisID, viewer)
	if err != nil {
		return false, err
	}
	return domain.ShouldSuggest(h, trigger), nil
}
