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
	ErrHypothesisNotFound  = fmt.Errorf("hypothesis %w", domain.ErrNotFound)
	ErrParentNotFound      = fmt.Errorf("parent hypothesis %w", domain.ErrNotFound)
	ErrContentRequired     = fmt.Errorf("%w: content is required", domain.ErrInvalidInput)
	ErrInvalidStatus       = fmt.Errorf("%w: unknown hypothesis status", domain.ErrInvalidInput)
	ErrInvalidState        = fmt.Errorf("%w: unknown verification state", domain.ErrInvalidInput)
	ErrNotOrigin           = fmt.Errorf("%w: only the origin user may do this", domain.ErrForbidden)
	ErrInsufficientRole    = fmt.Errorf("%w: editor role or higher required", domain.ErrForbidden)
	ErrOriginNotInTeam     = fmt.Errorf("%w: origin user is not a member of the team", domain.ErrForbidden)
	ErrDuplicateHypothesis = fmt.Errorf("%w: hypothesis id already exists", domain.ErrConflict)
	ErrStatusChanged       = fmt.Errorf("%w: hypothesis status changed", domain.ErrConflict)
	ErrIllegalTransition   = fmt.Errorf("%w: hypothesis status", domain.ErrInvalidTransition)
	ErrSharedImmutable     = fmt.Errorf("%w: shared hypotheses cannot be edited", domain.ErrInvalidTransition)
	ErrSelfDerivation      = fmt.Errorf("%w: hypothesis cannot derive from itself", domain.ErrCyclicDerivation)
	ErrDerivationCycle     = fmt.Errorf("%w: parent chain revisits a hypothesis", domain.ErrCyclicDerivation)
	ErrDerivationTooDeep   = fmt.Errorf("%w: parent chain exceeds %d levels", domain.ErrCyclicDerivation, domain.MaxDerivationDepth)
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

type CreateHypothesisInput struct {
	ID                 *uuid.UUID
	OwnerID            string
	Content            string
	OriginalExperience *string
	ParentID           *uuid.UUID
	Tags               []string
}

type ShareInput struct {
	HypothesisID     uuid.UUID
	Actor            string
	TeamID           uuid.UUID
	PublishedContent *string
	ExpectedStatus   *domain.HypothesisStatus
}

type HypothesisService struct {
	hypotheses domain.HypothesisStore
	auth       authorizer
	hasher     *OriginHasher
	logger     *zap.Logger
}

func NewHypothesisService(hs domain.HypothesisStore, ts domain.TeamStore, hasher *OriginHasher, logger *zap.Logger) *HypothesisService {
	return &HypothesisService{
		hypotheses: hs,
		auth:       authorizer{teams: ts},
		hasher:     hasher,
		logger:     logger,
	}
}

func (s *HypothesisService) Create(ctx context.Context, in CreateHypothesisInput) (*domain.Hypothesis, error) {
	if in.OwnerID == "" {
		return nil, ErrUserIDRequired
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, ErrContentRequired
	}

	id := uuid.New()
	if in.ID != nil {
		id = *in.ID
	}
	if in.ParentID != nil {
		if *in.ParentID == id {
			return nil, ErrSelfDerivation
		}
		if err := s.checkParent(ctx, id, *in.ParentID, in.OwnerID); err != nil {
			return nil, err
		}
	}

	h := &domain.Hypothesis{
		ID:                 id,
		OriginUserID:       in.OwnerID,
		Content:            content,
		OriginalExperience: in.OriginalExperience,
		ParentHypothesisID: in.ParentID,
		Tags:               normalizeTags(in.Tags),
	}
	if err := s.hypotheses.Create(ctx, h); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return nil, ErrDuplicateHypothesis
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrParentNotFound
		}
		return nil, err
	}

	s.logger.Info("hypothesis created",
		zap.String("hypothesis_id", h.ID.String()),
		zap.Bool("derived", h.ParentHypothesisID != nil))
	return h, nil
}

// checkParent requires the parent to be visible to the owner and walks its
// ancestors, failing if the walk revisits a node or runs past
// domain.MaxDerivationDepth.
func (s *HypothesisService) checkParent(ctx context.Context, id, parentID uuid.UUID, owner string) error {
	parent, err := s.hypotheses.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrParentNotFound
		}
		return err
	}
	access, err := s.auth.access(ctx, parent, owner)
	if err != nil {
		return err
	}
	if access == domain.AccessNone {
		return ErrParentNotFound
	}

	seen := map[uuid.UUID]bool{id: true}
	cur := &parentID
	for depth := 0; cur != nil; depth++ {
		if depth >= domain.MaxDerivationDepth {
			return ErrDerivationTooDeep
		}
		if seen[*cur] {
			return ErrDerivationCycle
		}
		seen[*cur] = true

		next, err := s.hypotheses.GetParentID(ctx, *cur)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// An ancestor deleted mid-walk ends the chain.
				return nil
			}
			return err
		}
		cur = next
	}
	return nil
}

// Get returns the hypothesis redacted for viewer. Hypotheses the viewer may not
// see are reported as not found.
func (s *HypothesisService) Get(ctx context.Context, id uuid.UUID, viewer string) (*domain.Hypothesis, error) {
	h, access, err := s.load(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	out := h.Redacted(access)
	return &out, nil
}

// load fetches the hypothesis and the viewer's access to it, treating an
// invisible hypothesis as missing.
func (s *HypothesisService) load(ctx context.Context, id uuid.UUID, viewer string) (*domain.Hypothesis, domain.Access, error) {
	h, err := s.hypotheses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.AccessNone, ErrHypothesisNotFound
		}
		return nil, domain.AccessNone, err
	}
	access, err := s.auth.access(ctx, h, viewer)
	if err != nil {
		return nil, domain.AccessNone, err
	}
	if access == domain.AccessNone {
		return nil, domain.AccessNone, ErrHypothesisNotFound
	}
	return h, access, nil
}

// Propose moves the origin user's DRAFT to PROPOSED.
func (s *HypothesisService) Propose(ctx context.Context, id uuid.UUID, actor string, expected *domain.HypothesisStatus) (*domain.Hypothesis, error) {
	h, _, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !h.IsOrigin(actor) {
		return nil, ErrNotOrigin
	}
	if err := checkTransition(h, domain.StatusProposed, expected); err != nil {
		return nil, err
	}
	return s.transition(ctx, domain.StatusTransition{
		HypothesisID: h.ID,
		From:         h.Status,
		To:           domain.StatusProposed,
	}, actor)
}

// Share publishes the hypothesis into a team. The origin user may share into
// any team they belong to; anyone else needs editor or owner on the team, and
// the origin user must be a member of it too.
func (s *HypothesisService) Share(ctx context.Context, in ShareInput) (*domain.Hypothesis, error) {
	if in.PublishedContent != nil && strings.TrimSpace(*in.PublishedContent) == "" {
		return nil, ErrContentRequired
	}

	h, _, err := s.load(ctx, in.HypothesisID, in.Actor)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(h, domain.StatusShared, in.ExpectedStatus); err != nil {
		return nil, err
	}

	if _, err := s.auth.teams.GetByID(ctx, in.TeamID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	actorRole, err := s.auth.roleIn(ctx, in.TeamID, in.Actor)
	if err != nil {
		return nil, err
	}
	if h.IsOrigin(in.Actor) {
		if actorRole == "" {
			return nil, ErrNotTeamMember
		}
	} else {
		if !actorRole.AtLeast(domain.RoleEditor) {
			return nil, ErrInsufficientRole
		}
		originRole, err := s.auth.roleIn(ctx, in.TeamID, h.OriginUserID)
		if err != nil {
			return nil, err
		}
		if originRole == "" {
			return nil, ErrOriginNotInTeam
		}
	}

	teamID := in.TeamID
	shared, err := s.transition(ctx, domain.StatusTransition{
		HypothesisID:     h.ID,
		From:             h.Status,
		To:               domain.StatusShared,
		TeamID:           &teamID,
		OriginUserIDHash: s.hasher.Hash(h.OriginUserID),
		PublishedContent: in.PublishedContent,
	}, in.Actor)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return shared, nil
}

// RejectToDraft sends a PROPOSED hypothesis back to DRAFT. Besides the origin
// user, editors and owners of a team the origin user belongs to may do this;
// when teamID is given the actor's role is checked in that team only.
func (s *HypothesisService) RejectToDraft(ctx context.Context, id uuid.UUID, actor string, teamID *uuid.UUID, expected *domain.HypothesisStatus) (*domain.Hypothesis, error) {
	h, access, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(h, domain.StatusDraft, expected); err != nil {
		return nil, err
	}

	if !h.IsOrigin(actor) {
		if teamID != nil {
			role, err := s.auth.roleIn(ctx, *teamID, actor)
			if err != nil {
				return nil, err
			}
			if !role.AtLeast(domain.RoleEditor) {
				return nil, ErrInsufficientRole
			}
			originRole, err := s.auth.roleIn(ctx, *teamID, h.OriginUserID)
			if err != nil {
				return nil, err
			}
			if originRole == "" {
				return nil, ErrOriginNotInTeam
			}
		} else if access != domain.AccessTeamEditor {
			return nil, ErrInsufficientRole
		}
	}

	return s.transition(ctx, domain.StatusTransition{
		HypothesisID: h.ID,
		From:         h.Status,
		To:           domain.StatusDraft,
	}, actor)
}

// Refine edits the content or tags of an unshared hypothesis. Nil arguments
// leave the field unchanged.
func (s *HypothesisService) Refine(ctx context.Context, id uuid.UUID, actor string, content *string, tags []string) (*domain.Hypothesis, error) {
	h, _, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !h.IsOrigin(actor) {
		return nil, ErrNotOrigin
	}
	if h.Status == domain.StatusShared {
		return nil, ErrSharedImmutable
	}
	if content != nil {
		trimmed := strings.TrimSpace(*content)
		if trimmed == "" {
			return nil, ErrContentRequired
		}
		content = &trimmed
	}
	if tags != nil {
		tags = normalizeTags(tags)
	}

	updated, err := s.hypotheses.UpdateContent(ctx, id, content, tags)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			conflicts.WithLabelValues("refine").Inc()
			return nil, ErrSharedImmutable
		}
		return nil, err
	}
	return updated, nil
}

// ListMine returns the user's own hypotheses, newest first.
func (s *HypothesisService) ListMine(ctx context.Context, userID string, f domain.HypothesisFilter) ([]domain.Hypothesis, error) {
	if err := validateFilter(f); err != nil {
		return nil, err
	}
	f.Limit = normalizeLimit(f.Limit)

	hs, err := s.hypotheses.ListByOrigin(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	if hs == nil {
		hs = []domain.Hypothesis{}
	}
	return hs, nil
}

// ListShared returns a team's shared pool with verification counts. The
// viewer must belong to the team.
func (s *HypothesisService) ListShared(ctx context.Context, teamID uuid.UUID, viewer string, f domain.HypothesisFilter) ([]domain.SharedHypothesis, error) {
	if err := validateFilter(f); err != nil {
		return nil, err
	}
	role, err := s.auth.roleIn(ctx, teamID, viewer)
	if err != nil {
		return nil, err
	}
	if role == "" {
		return nil, ErrTeamNotFound
	}
	f.Status = nil
	f.Limit = normalizeLimit(f.Limit)

	pool, err := s.hypotheses.ListShared(ctx, teamID, f)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SharedHypothesis, 0, len(pool))
	for _, sh := range pool {
		access := accessFor(role)
		if sh.IsOrigin(viewer) {
			access = domain.AccessOrigin
		}
		sh.Hypothesis = sh.Redacted(access)
		out = append(out, sh)
	}
	return out, nil
}

// Derivations returns the hypothesis's ancestor ids, nearest first, and the
// children the viewer can see.
func (s *HypothesisService) Derivations(ctx context.Context, id uuid.UUID, viewer string) (*domain.Derivations, error) {
	h, _, err := s.load(ctx, id, viewer)
	if err != nil {
		return nil, err
	}

	d := &domain.Derivations{HypothesisID: h.ID, Ancestors: []uuid.UUID{}, Children: []domain.Hypothesis{}}
	seen := map[uuid.UUID]bool{h.ID: true}
	for cur := h.ParentHypothesisID; cur != nil && len(d.Ancestors) < domain.MaxDerivationDepth; {
		if seen[*cur] {
			break
		}
		seen[*cur] = true
		d.Ancestors = append(d.Ancestors, *cur)
		next, err := s.hypotheses.GetParentID(ctx, *cur)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				break
			}
			return nil, err
		}
		cur = next
	}

	children, err := s.hypotheses.ListChildren(ctx, h.ID)
	if err != nil {
		return nil, err
	}
	for i := range children {
		access, err := s.auth.access(ctx, &children[i], viewer)
		if err != nil {
			return nil, err
		}
		if access == domain.AccessNone {
			continue
		}
		d.Children = append(d.Children, children[i].Redacted(access))
	}
	return d, nil
}

// PurgeUser deletes every hypothesis the user authored. Their verifications,
// scores and suggestions go with them; derived hypotheses lose their parent.
func (s *HypothesisService) PurgeUser(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrUserIDRequired
	}
	n, err := s.hypotheses.DeleteByOrigin(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("purged user hypotheses", zap.String("user_id", userID), zap.Int64("count", n))
	return n, nil
}

func (s *HypothesisService) transition(ctx context.Context, t domain.StatusTransition, actor string) (*domain.Hypothesis, error) {
	h, err := s.hypotheses.Transition(ctx, t)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			err = ErrStatusChanged
			conflicts.WithLabelValues("transition").Inc()
		}
		hypothesisTransitions.WithLabelValues(string(t.From), string(t.To), outcome(err)).Inc()
		s.logger.Warn("hypothesis transition failed",
			zap.String("hypothesis_id", t.HypothesisID.String()),
			zap.String("from", string(t.From)),
			zap.String("to", string(t.To)),
			zap.Error(err))
		return nil, err
	}

	hypothesisTransitions.WithLabelValues(string(t.From), string(t.To), outcome(nil)).Inc()
	s.logger.Info("hypothesis transitioned",
		zap.String("hypothesis_id", h.ID.String()),
		zap.String("from", string(t.From)),
		zap.String("to", string(t.To)),
		zap.String("actor", actor))
	return h, nil
}

// checkTransition reports a stale expectation as a conflict before checking
// the edge itself.
func checkTransition(h *domain.Hypothesis, to domain.HypothesisStatus, expected *domain.HypothesisStatus) error {
	if expected != nil && *expected != h.Status {
		conflicts.WithLabelValues("transition").Inc()
		return ErrStatusChanged
	}
	if !h.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w %s -> %s", ErrIllegalTransition, h.Status, to)
	}
	return nil
}

func validateFilter(f domain.HypothesisFilter) error {
	if f.Status != nil && !domain.ValidHypothesisStatus(string(*f.Status)) {
		return ErrInvalidStatus
	}
	if f.VerificationState != nil && !domain.ValidVerificationState(string(*f.VerificationState)) {
		return ErrInvalidState
	}
	return nil
}

// normalizeTags trims, drops empties and removes duplicates, keeping the first
// occurrence order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
