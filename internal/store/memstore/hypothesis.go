package memstore

import (
	"context"
	"sort"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/Harshitk-cp/teambrain/internal/store"
	"github.com/google/uuid"
)

type HypothesisStore struct {
	db *DB
}

// Create returns ErrConflict for a duplicate id and ErrNotFound when the
// parent does not exist.
func (s *HypothesisStore) Create(ctx context.Context, h *domain.Hypothesis) error {
	defer s.db.lock(ctx)()
	if _, exists := s.db.hypotheses[h.ID]; exists {
		return store.ErrConflict
	}
	if h.ParentHypothesisID != nil {
		if _, ok := s.db.hypotheses[*h.ParentHypothesisID]; !ok {
			return store.ErrNotFound
		}
	}
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.Tags == nil {
		h.Tags = []string{}
	}
	h.Status = domain.StatusDraft
	h.VerificationState = domain.StateUnverified
	h.CreatedAt = s.db.now()
	h.UpdatedAt = h.CreatedAt
	s.db.hypotheses[h.ID] = *h
	return nil
}

func (s *HypothesisStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Hypothesis, error) {
	defer s.db.lock(ctx)()
	h, ok := s.db.hypotheses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &h, nil
}

func (s *HypothesisStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Hypothesis, error) {
	return s.GetByID(ctx, id)
}

func (s *HypothesisStore) GetParentID(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	h, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return h.ParentHypothesisID, nil
}

func (s *HypothesisStore) ListChildren(ctx context.Context, id uuid.UUID) ([]domain.Hypothesis, error) {
	out := s.filter(ctx, func(h *domain.Hypothesis) bool {
		return h.ParentHypothesisID != nil && *h.ParentHypothesisID == id
	})
	sortOldestFirst(out)
	return out, nil
}

// UpdateContent returns ErrConflict when the hypothesis is missing or shared.
func (s *HypothesisStore) UpdateContent(ctx context.Context, id uuid.UUID, content *string, tags []string) (*domain.Hypothesis, error) {
	defer s.db.lock(ctx)()
	h, ok := s.db.hypotheses[id]
	if !ok || h.Status == domain.StatusShared {
		return nil, store.ErrConflict
	}
	if content != nil {
		h.Content = *content
	}
	if tags != nil {
		h.Tags = append([]string(nil), tags...)
	}
	h.UpdatedAt = s.db.now()
	s.db.hypotheses[id] = h
	return &h, nil
}

// Transition returns ErrConflict when the stored status no longer equals t.From.
func (s *HypothesisStore) Transition(ctx context.Context, t domain.StatusTransition) (*domain.Hypothesis, error) {
	defer s.db.lock(ctx)()
	h, ok := s.db.hypotheses[t.HypothesisID]
	if !ok || h.Status != t.From {
		return nil, store.ErrConflict
	}
	if t.TeamID != nil {
		if _, ok := s.db.teams[*t.TeamID]; !ok {
			return nil, store.ErrNotFound
		}
	}

	now := s.db.now()
	h.Status = t.To
	h.TeamID = t.TeamID
	if t.To == domain.StatusShared && h.SharedAt == nil {
		h.SharedAt = &now
	}
	if t.OriginUserIDHash != "" {
		h.OriginUserIDHash = t.OriginUserIDHash
	}
	if t.PublishedContent != nil {
		private := h.Content
		h.PrivateContent = &private
		h.Content = *t.PublishedContent
	}
	h.UpdatedAt = now
	s.db.hypotheses[h.ID] = h
	return &h, nil
}

func (s *HypothesisStore) UpdateVerificationState(ctx context.Context, id uuid.UUID, state domain.VerificationState) error {
	defer s.db.lock(ctx)()
	h, ok := s.db.hypotheses[id]
	if !ok {
		return store.ErrNotFound
	}
	h.VerificationState = state
	h.UpdatedAt = s.db.now()
	s.db.hypotheses[id] = h
	return nil
}

func (s *HypothesisStore) ApplyQualitySnapshot(ctx context.Context, id uuid.UUID, snap domain.QualitySnapshot) (bool, error) {
	defer s.db.lock(ctx)()
	h, ok := s.db.hypotheses[id]
	if !ok || !snap.Supersedes(h.QualityScore) {
		return false, nil
	}
	h.QualityScore = &snap
	h.UpdatedAt = s.db.now()
	s.db.hypotheses[id] = h
	return true, nil
}

func (s *HypothesisStore) ListByOrigin(ctx context.Context, userID string, f domain.HypothesisFilter) ([]domain.Hypothesis, error) {
	out := s.filter(ctx, func(h *domain.Hypothesis) bool {
		return h.OriginUserID == userID &&
			(f.Status == nil || h.Status == *f.Status) &&
			(f.VerificationState == nil || h.VerificationState == *f.VerificationState)
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return idLess(out[i].ID, out[j].ID)
	})
	return limit(out, f.Limit), nil
}

func (s *HypothesisStore) ListShared(ctx context.Context, teamID uuid.UUID, f domain.HypothesisFilter) ([]domain.SharedHypothesis, error) {
	pool := s.filter(ctx, func(h *domain.Hypothesis) bool {
		return h.Status == domain.StatusShared && h.TeamID != nil && *h.TeamID == teamID &&
			(f.VerificationState == nil || h.VerificationState == *f.VerificationState)
	})
	sort.Slice(pool, func(i, j int) bool {
		a, b := pool[i].SharedAt, pool[j].SharedAt
		if !a.Equal(*b) {
			return a.After(*b)
		}
		return idLess(pool[i].ID, pool[j].ID)
	})
	pool = limit(pool, f.Limit)

	defer s.db.lock(ctx)()
	out := make([]domain.SharedHypothesis, 0, len(pool))
	for _, h := range pool {
		sh := domain.SharedHypothesis{Hypothesis: h}
		for _, v := range s.db.verifications {
			if v.HypothesisID != h.ID {
				continue
			}
			sh.TotalVerifications++
			switch v.Result {
			case domain.ResultSuccess:
				sh.SuccessCount++
			case domain.ResultFailure:
				sh.FailureCount++
			}
		}
		out = append(out, sh)
	}
	return out, nil
}

func (s *HypothesisStore) ListHighPotential(ctx context.Context, userID string, n int) ([]domain.Hypothesis, error) {
	out := s.filter(ctx, func(h *domain.Hypothesis) bool {
		return h.OriginUserID == userID && h.QualityScore != nil && h.QualityScore.IsHighPotential
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.QualityScore.Overall != b.QualityScore.Overall {
			return a.QualityScore.Overall > b.QualityScore.Overall
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return idLess(a.ID, b.ID)
	})
	return limit(out, n), nil
}

func (s *HypothesisStore) SummarizeByOrigin(ctx context.Context, userID string) (*domain.OriginSummary, error) {
	defer s.db.lock(ctx)()
	out := &domain.OriginSummary{
		ByStatus:            make(map[domain.HypothesisStatus]int),
		ByVerificationState: make(map[domain.VerificationState]int),
	}
	for _, h := range s.db.hypotheses {
		if h.OriginUserID != userID {
			continue
		}
		out.ByStatus[h.Status]++
		out.ByVerificationState[h.VerificationState]++
		if h.QualityScore == nil {
			continue
		}
		out.OverallScores = append(out.OverallScores, h.QualityScore.Overall)
		if h.QualityScore.IsHighPotential {
			out.HighPotential++
		}
	}
	return out, nil
}

// DeleteByOrigin cascades to verifications, scores and suggestions and clears
// the parent link of derived hypotheses.
func (s *HypothesisStore) DeleteByOrigin(ctx context.Context, userID string) (int64, error) {
	defer s.db.lock(ctx)()
	deleted := make(map[uuid.UUID]bool)
	for id, h := range s.db.hypotheses {
		if h.OriginUserID == userID {
			deleted[id] = true
			delete(s.db.hypotheses, id)
		}
	}
	for id, h := range s.db.hypotheses {
		if h.ParentHypothesisID != nil && deleted[*h.ParentHypothesisID] {
			h.ParentHypothesisID = nil
			s.db.hypotheses[id] = h
		}
	}
	for id, v := range s.db.verifications {
		if deleted[v.HypothesisID] {
			delete(s.db.verifications, id)
		}
	}
	for id, r := range s.db.scores {
		if deleted[r.HypothesisID] {
			delete(s.db.scores, id)
		}
	}
	for id, sg := range s.db.suggestions {
		if deleted[sg.HypothesisID] {
			delete(s.db.suggestions, id)
		}
	}
	return int64(len(deleted)), nil
}

func (s *HypothesisStore) filter(ctx context.Context, keep func(h *domain.Hypothesis) bool) []domain.Hypothesis {
	defer s.db.lock(ctx)()
	var out []domain.Hypothesis
	for _, h := range s.db.hypotheses {
		if keep(&h) {
			out = append(out, h)
		}
	}
	return out
}

func sortOldestFirst(hs []domain.Hypothesis) {
	sort.Slice(hs, func(i, j int) bool {
		if !hs[i].CreatedAt.Equal(hs[j].CreatedAt) {
			return hs[i].CreatedAt.Before(hs[j].CreatedAt)
		}
		return idLess(hs[i].ID, hs[j].ID)
	})
}
