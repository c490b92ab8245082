package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/Harshitk-cp/teambrain/internal/store"
	"github.com/google/uuid"
)

type VerificationStore struct {
	db *DB
}

// Create returns ErrChainContinued if the parent already has a differential
// child.
func (s *VerificationStore) Create(ctx context.Context, v *domain.Verification) error {
	defer s.db.lock(ctx)()
	if _, ok := s.db.hypotheses[v.HypothesisID]; !ok {
		return store.ErrNotFound
	}
	if p := v.ParentVerificationID; p != nil {
		if _, ok := s.db.verifications[*p]; !ok {
			return store.ErrNotFound
		}
		for _, existing := range s.db.verifications {
			if existing.ParentVerificationID != nil && *existing.ParentVerificationID == *p {
				return store.ErrChainContinued
			}
		}
	}
	if v.Evidence == nil {
		v.Evidence = map[string]any{}
	}
	v.ID = uuid.New()
	v.CreatedAt = s.db.now()
	s.db.verifications[v.ID] = *v
	return nil
}

func (s *VerificationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Verification, error) {
	defer s.db.lock(ctx)()
	v, ok := s.db.verifications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &v, nil
}

func (s *VerificationStore) HasContinuation(ctx context.Context, id uuid.UUID) (bool, error) {
	defer s.db.lock(ctx)()
	for _, v := range s.db.verifications {
		if v.ParentVerificationID != nil && *v.ParentVerificationID == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *VerificationStore) ListByHypothesis(ctx context.Context, hypothesisID uuid.UUID) ([]domain.Verification, error) {
	defer s.db.lock(ctx)()
	var out []domain.Verification
	for _, v := range s.db.verifications {
		if v.HypothesisID == hypothesisID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return idLess(out[i].ID, out[j].ID)
	})
	return out, nil
}

type QualityScoreStore struct {
	db *DB
}

func (s *QualityScoreStore) Create(ctx context.Context, r *domain.QualityScoreRecord) error {
	defer s.db.lock(ctx)()
	if _, ok := s.db.hypotheses[r.HypothesisID]; !ok {
		return store.ErrNotFound
	}
	r.ID = uuid.New()
	if r.ScoredAt.IsZero() {
		r.ScoredAt = s.db.now()
	}
	s.db.scores[r.ID] = *r
	return nil
}

func (s *QualityScoreStore) ListByHypothesis(ctx context.Context, hypothesisID uuid.UUID, n int) ([]domain.QualityScoreRecord, error) {
	defer s.db.lock(ctx)()
	var out []domain.QualityScoreRecord
	for _, r := range s.db.scores {
		if r.HypothesisID == hypothesisID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.ScoredAt.Equal(b.ScoredAt) {
			return a.ScoredAt.After(b.ScoredAt)
		}
		if a.Overall != b.Overall {
			return a.Overall > b.Overall
		}
		return idLess(a.ID, b.ID)
	})
	return limit(out, n), nil
}

type SuggestionStore struct {
	db *DB
}

// Create returns ErrConflict when the hypothesis already has a pending
// suggestion.
func (s *SuggestionStore) Create(ctx context.Context, sg *domain.SharingSuggestion) error {
	defer s.db.lock(ctx)()
	if _, ok := s.db.hypotheses[sg.HypothesisID]; !ok {
		return store.ErrNotFound
	}
	for _, existing := range s.db.suggestions {
		if existing.HypothesisID == sg.HypothesisID && existing.Status == domain.SuggestionPending {
			return store.ErrConflict
		}
	}
	sg.ID = uuid.New()
	sg.Status = domain.SuggestionPending
	sg.EditedContent = nil
	sg.RespondedAt = nil
	sg.CreatedAt = s.db.now()
	s.db.suggestions[sg.ID] = *sg
	return nil
}

func (s *SuggestionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.SharingSuggestion, error) {
	defer s.db.lock(ctx)()
	sg, ok := s.db.suggestions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sg, nil
}

func (s *SuggestionStore) Respond(ctx context.Context, r domain.SuggestionResponse) (*domain.SharingSuggestion, error) {
	defer s.db.lock(ctx)()
	sg, ok := s.db.suggestions[r.SuggestionID]
	if !ok || sg.Status != domain.SuggestionPending {
		return nil, store.ErrConflict
	}
	now := s.db.now()
	sg.Status = r.Status
	sg.EditedContent = r.EditedContent
	sg.RespondedAt = &now
	s.db.suggestions[sg.ID] = sg
	return &sg, nil
}

func (s *SuggestionStore) ListPendingByUser(ctx context.Context, userID string, n int) ([]domain.SharingSuggestion, error) {
	defer s.db.lock(ctx)()
	var out []domain.SharingSuggestion
	for _, sg := range s.db.suggestions {
		if sg.UserID == userID && sg.Status == domain.SuggestionPending {
			out = append(out, sg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return idLess(out[i].ID, out[j].ID)
	})
	return limit(out, n), nil
}

func (s *SuggestionStore) CountPendingByUser(ctx context.Context, userID string) (int, error) {
	defer s.db.lock(ctx)()
	n := 0
	for _, sg := range s.db.suggestions {
		if sg.UserID == userID && sg.Status == domain.SuggestionPending {
			n++
		}
	}
	return n, nil
}

func (s *SuggestionStore) ExpirePending(ctx context.Context, cutoff time.Time) (int64, error) {
	defer s.db.lock(ctx)()
	var n int64
	for id, sg := range s.db.suggestions {
		if sg.Status != domain.SuggestionPending || !sg.CreatedAt.Before(cutoff) {
			continue
		}
		now := s.db.now()
		sg.Status = domain.SuggestionRejected
		sg.RespondedAt = &now
		s.db.suggestions[id] = sg
		n++
	}
	return n, nil
}
