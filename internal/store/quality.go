package store

import (
	"context"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type QualityScoreStore struct {
	db *pgxpool.Pool
}

func NewQualityScoreStore(db *pgxpool.Pool) *QualityScoreStore {
	return &QualityScoreStore{db: db}
}

func (s *QualityScoreStore) Create(ctx context.Context, r *domain.QualityScoreRecord) error {
	err := conn(ctx, s.db).QueryRow(ctx,
		`INSERT INTO hypothesis_quality_scores
		     (hypothesis_id, novelty, specificity, impact, overall, is_high_potential, rationale, scored_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		r.HypothesisID, r.Novelty, r.Specificity, r.Impact, r.Overall, r.IsHighPotential, r.Rationale, r.ScoredAt,
	).Scan(&r.ID)
	return mapError(err)
}

func (s *QualityScoreStore) ListByHypothesis(ctx context.Context, hypothesisID uuid.UUID, limit int) ([]domain.QualityScoreRecord, error) {
	rows, err := conn(ctx, s.db).Query(ctx,
		`SELECT id, hypothesis_id, novelty, specificity, impact, overall, is_high_potential, rationale, scored_at
		 FROM hypothesis_quality_scores
		 WHERE hypothesis_id = $1
		 ORDER BY scored_at DESC, overall DESC, id
		 LIMIT $2`,
		hypothesisID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.QualityScoreRecord
	for rows.Next() {
		var r domain.QualityScoreRecord
		if err := rows.Scan(&r.ID, &r.HypothesisID, &r.Novelty, &r.Specificity, &r.Impact, &r.Overall,
			&r.IsHighPotential, &r.Rationale, &r.ScoredAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
