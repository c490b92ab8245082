package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/Harshitk-cp/teambrain/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidScores = fmt.Errorf("%w: scores must lie in [0, 1]", domain.ErrInvalidInput)

type RecordQualityInput struct {
	HypothesisID uuid.UUID
	Actor        string
	Scores       domain.QualityScores
	Rationale    string
	// ScoredAt defaults to the current time.
	ScoredAt *time.Time
}

type QualityService struct {
	tx         domain.Transactor
	hypotheses domain.HypothesisStore
	scores     domain.QualityScoreStore
	auth       authorizer
	logger     *zap.Logger
	now        func() time.Time
}

func NewQualityService(tx domain.Transactor, hs domain.HypothesisStore, qs domain.QualityScoreStore, ts domain.TeamStore, logger *zap.Logger) *QualityService {
	return &QualityService{
		tx:         tx,
		hypotheses: hs,
		scores:     qs,
		auth:       authorizer{teams: ts},
		logger:     logger,
		now:        time.Now,
	}
}

// Record appends a score to the hypothesis's history and offers it as the new
// cached snapshot. The snapshot is replaced only when the new score supersedes
// it (later scored_at, or equal scored_at with a greater overall), so racing
// writers converge regardless of commit order.
func (s *QualityService) Record(ctx context.Context, in RecordQualityInput) (*domain.QualityScoreRecord, bool, error) {
	if !in.Scores.Valid() {
		return nil, false, ErrInvalidScores
	}
	scoredAt := s.now()
	if in.ScoredAt != nil {
		scoredAt = *in.ScoredAt
	}

	r := &domain.QualityScoreRecord{
		HypothesisID:  in.HypothesisID,
		QualityScores: in.Scores,
		Rationale:     in.Rationale,
		// Stored timestamps carry microseconds; truncating here keeps the
		// snapshot comparison identical in and out of the database.
		ScoredAt: scoredAt.UTC().Truncate(time.Microsecond),
	}
	var applied bool

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		h, err := s.hypotheses.GetForUpdate(ctx, in.HypothesisID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrHypothesisNotFound
			}
			return err
		}
		access, err := s.auth.access(ctx, h, in.Actor)
		if err != nil {
			return err
		}
		switch access {
		case domain.AccessNone:
			return ErrHypothesisNotFound
		case domain.AccessTeamViewer:
			return ErrInsufficientRole
		}

		if err := s.scores.Create(ctx, r); err != nil {
			return err
		}
		applied, err = s.hypotheses.ApplyQualitySnapshot(ctx, h.ID, r.Snapshot())
		return err
	})
	if err != nil {
		return nil, false, err
	}

	label := "kept"
	if applied {
		label = "replaced"
	}
	qualitySnapshots.WithLabelValues(label).Inc()
	s.logger.Info("quality score recorded",
		zap.String("hypothesis_id", r.HypothesisID.String()),
		zap.Float64("overall", r.Overall),
		zap.Bool("high_potential", r.IsHighPotential),
		zap.Bool("snapshot_replaced", applied))
	return r, applied, nil
}

// History returns the hypothesis's scores, newest first.
func (s *QualityService) History(ctx context.Context, hypothesisID uuid.UUID, viewer string, limit int) ([]domain.QualityScoreRecord, error) {
	h, err := s.hypotheses.GetByID(ctx, hypothesisID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrHypothesisNotFound
		}
		return nil, err
	}
	access, err := s.auth.access(ctx, h, viewer)
	if err != nil {
		return nil, err
	}
	if access == domain.AccessNone {
		return nil, ErrHypothesisNotFound
	}

	records, err := s.scores.ListByHypothesis(ctx, hypothesisID, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.QualityScoreRecord{}
	}
	return records, nil
}

// ListHighPotential returns the user's own hypotheses whose snapshot is
// flagged high potential, best first.
func (s *QualityService) ListHighPotential(ctx context.Context, userID string, limit int) ([]domain.Hypothesis, error) {
	hs, err := s.hypotheses.ListHighPotential(ctx, userID, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	if hs == nil {
		hs = []domain.Hypothesis{}
	}
	return hs, nil
}
