package store

import (
	"context"
	"time"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const hypothesisColumns = `h.id, h.origin_user_id, h.origin_user_id_hash, h.team_id, h.content,
	h.private_content, h.original_experience, h.status, h.verification_state,
	h.quality_novelty, h.quality_specificity, h.quality_impact, h.quality_overall,
	h.quality_is_high_potential, h.quality_scored_at, h.parent_hypothesis_id, h.tags,
	h.created_at, h.updated_at, h.shared_at`

type HypothesisStore struct {
	db *pgxpool.Pool
}

func NewHypothesisStore(db *pgxpool.Pool) *HypothesisStore {
	return &HypothesisStore{db: db}
}

func scanHypothesis(row pgx.Row, extra ...any) (*domain.Hypothesis, error) {
	var (
		h                                     domain.Hypothesis
		novelty, specificity, impact, overall *float64
		highPotential                         *bool
		scoredAt                              *time.Time
	)
	dest := []any{
		&h.ID, &h.OriginUserID, &h.OriginUserIDHash, &h.TeamID, &h.Content,
		&h.PrivateContent, &h.OriginalExperience, &h.Status, &h.VerificationState,
		&novelty, &specificity, &impact, &overall,
		&highPotential, &scoredAt, &h.ParentHypothesisID, &h.Tags,
		&h.CreatedAt, &h.UpdatedAt, &h.SharedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if scoredAt != nil && novelty != nil && specificity != nil && impact != nil && overall != nil {
		h.QualityScore = &domain.QualitySnapshot{
			QualityScores: domain.QualityScores{
				Novelty:         *novelty,
				Specificity:     *specificity,
				Impact:          *impact,
				Overall:         *overall,
				IsHighPotential: highPotential != nil && *highPotential,
			},
			ScoredAt: *scoredAt,
		}
	}
	if h.Tags == nil {
		h.Tags = []string{}
	}
	return &h, nil
}

func (s *HypothesisStore) queryList(ctx context.Context, sql string, args ...any) ([]domain.Hypothesis, error) {
	rows, err := conn(ctx, s.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Hypothesis
	for rows.Next() {
		h, err := scanHypothesis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

func (s *HypothesisStore) Create(ctx context.Context, h *domain.Hypothesis) error {
	tags := h.Tags
	if tags == nil {
		tags = []string{}
	}
	created, err := scanHypothesis(conn(ctx, s.db).QueryRow(ctx,
		`INSERT INTO hypotheses AS h (id, origin_user_id, content, original_experience, parent_hypothesis_id, tags)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+hypothesisColumns,
		h.ID, h.OriginUserID, h.Content, h.OriginalExperience, h.ParentHypothesisID, tags,
	))
	if err != nil {
		return mapError(err)
	}
	*h = *created
	return nil
}

func (s *HypothesisStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Hypothesis, error) {
	h, err := scanHypothesis(conn(ctx, s.db).QueryRow(ctx,
		`SELECT `+hypothesisColumns+` FROM hypotheses h WHERE h.id = $1`,
		id,
	))
	if err != nil {
		return nil, mapError(err)
	}
	return h, nil
}

func (s *HypothesisStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Hypothesis, error) {
	h, err := scanHypothesis(conn(ctx, s.db).QueryRow(ctx,
		`SELECT `+hypothesisColumns+` FROM hypotheses h WHERE h.id = $1 FOR UPDATE`,
		id,
	))
	if err != nil {
		return nil, mapError(err)
	}
	return h, nil
}

func (s *HypothesisStore) GetParentID(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	var parent *uuid.UUID
	err := conn(ctx, s.db).QueryRow(ctx,
		`SELECT parent_hypothesis_id FROM hypotheses WHERE id = $1`,
		id,
	).Scan(&parent)
	if err != nil {
		return nil, mapError(err)
	}
	return parent, nil
}

func (s *HypothesisStore) ListChildren(ctx context.Context, id uuid.UUID) ([]domain.Hypothesis, error) {
	return s.queryList(ctx,
		`SELECT `+hypothesisColumns+` FROM hypotheses h
		 WHERE h.parent_hypothesis_id = $1
		 ORDER BY h.created_at, h.id`,
		id,
	)
}

func (s *HypothesisStore) UpdateContent(ctx context.Context, id uuid.UUID, content *string, tags []string) (*domain.Hypothesis, error) {
	h, err := scanHypothesis(conn(ctx, s.db).QueryRow(ctx,
		`UPDATE hypotheses AS h
		 SET content = COALESCE($2, h.content),
		     tags = COALESCE($3, h.tags),
		     updated_at = NOW()
		 WHERE h.id = $1 AND h.status <> 'SHARED'
		 RETURNING `+hypothesisColumns,
		id, content, tags,
	))
	if err != nil {
		if mapped := mapError(err); mapped != ErrNotFound {
			return nil, mapped
		}
		return nil, ErrConflict
	}
	return h, nil
}

// Transition returns ErrConflict when the stored status no longer equals t.From.
func (s *HypothesisStore) Transition(ctx context.Context, t domain.StatusTransition) (*domain.Hypothesis, error) {
	h, err := scanHypothesis(conn(ctx, s.db).QueryRow(ctx,
		`UPDATE hypotheses AS h
		 SET status = $3,
		     team_id = $4,
		     shared_at = CASE WHEN $3 = 'SHARED' THEN COALESCE(h.shared_at, NOW()) ELSE h.shared_at END,
		     origin_user_id_hash = CASE WHEN $5 = '' THEN h.origin_user_id_hash ELSE $5 END,
		     private_content = CASE WHEN $6::text IS NULL THEN h.private_content ELSE h.content END,
		     content = COALESCE($6, h.content),
		     updated_at = NOW()
		 WHERE h.id = $1 AND h.status = $2
		 RETURNING `+hypothesisColumns,
		t.HypothesisID, t.From, t.To, t.TeamID, t.OriginUserIDHash, t.PublishedContent,
	))
	if err != nil {
		if mapped := mapError(err); mapped != ErrNotFound {
			return nil, mapped
		}
		return nil, ErrConflict
	}
	return h, nil
}

func (s *HypothesisStore) UpdateVerificationState(ctx context.Context, id uuid.UUID, state domain.VerificationState) error {
	tag, err := conn(ctx, s.db).Exec(ctx,
		`UPDATE hypotheses SET verification_state = $2, updated_at = NOW() WHERE id = $1`,
		id, state,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyQualitySnapshot mirrors the ordering of domain.QualitySnapshot.Supersedes
// in the WHERE clause so racing writers settle on the same row.
func (s *HypothesisStore) ApplyQualitySnapshot(ctx context.Context, id uuid.UUID, snap domain.QualitySnapshot) (bool, error) {
	tag, err := conn(ctx, s.db).Exec(ctx,
		`UPDATE hypotheses
		 SET quality_novelty = $2,
		     quality_specificity = $3,
		     quality_impact = $4,
		     quality_overall = $5,
		     quality_is_high_potential = $6,
		     quality_scored_at = $7,
		     updated_at = NOW()
		 WHERE id = $1
		   AND (quality_scored_at IS NULL
		        OR (quality_scored_at, quality_overall, quality_novelty, quality_specificity, quality_impact)
		           < ($7, $5, $2, $3, $4))`,
		id, snap.Novelty, snap.Specificity, snap.Impact, snap.Overall, snap.IsHighPotential, snap.ScoredAt,
	)
	if err != nil {
		return false, mapError(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *HypothesisStore) ListByOrigin(ctx context.Context, userID string, f domain.HypothesisFilter) ([]domain.Hypothesis, error) {
	return s.queryList(ctx,
		`SELECT `+hypothesisColumns+` FROM hypotheses h
		 WHERE h.origin_user_id = $1
		   AND ($2::text IS NULL OR h.status = $2)
		   AND ($3::text IS NULL OR h.verification_state = $3)
		 ORDER BY h.created_at DESC, h.id
		 LIMIT $4`,
		userID, f.Status, f.VerificationState, f.Limit,
	)
}

func (s *HypothesisStore) ListShared(ctx context.Context, teamID uuid.UUID, f domain.HypothesisFilter) ([]domain.SharedHypothesis, error) {
	rows, err := conn(ctx, s.db).Query(ctx,
		`SELECT `+hypothesisColumns+`,
		        COALESCE(v.total, 0), COALESCE(v.success, 0), COALESCE(v.failure, 0)
		 FROM hypotheses h
		 LEFT JOIN (
		     SELECT hypothesis_id,
		            COUNT(*) AS total,
		            COUNT(*) FILTER (WHERE result = 'SUCCESS') AS success,
		            COUNT(*) FILTER (WHERE result = 'FAILURE') AS failure
		     FROM hypothesis_verifications
		     GROUP BY hypothesis_id
		 ) v ON v.hypothesis_id = h.id
		 WHERE h.team_id = $1 AND h.status = 'SHARED'
		   AND ($2::text IS NULL OR h.verification_state = $2)
		 ORDER BY h.shared_at DESC, h.id
		 LIMIT $3`,
		teamID, f.VerificationState, f.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SharedHypothesis
	for rows.Next() {
		var sh domain.SharedHypothesis
		h, err := scanHypothesis(rows, &sh.TotalVerifications, &sh.SuccessCount, &sh.FailureCount)
		if err != nil {
			return nil, err
		}
		sh.Hypothesis = *h
		out = append(out, sh)
	}
	return out, rows.Err()
}

func (s *HypothesisStore) ListHighPotential(ctx context.Context, userID string, limit int) ([]domain.Hypothesis, error) {
	return s.queryList(ctx,
		`SELECT `+hypothesisColumns+` FROM hypotheses h
		 WHERE h.origin_user_id = $1 AND h.quality_is_high_potential
		 ORDER BY h.quality_overall DESC, h.created_at DESC, h.id
		 LIMIT $2`,
		userID, limit,
	)
}

func (s *HypothesisStore) SummarizeByOrigin(ctx context.Context, userID string) (*domain.OriginSummary, error) {
	out := &domain.OriginSummary{
		ByStatus:            make(map[domain.HypothesisStatus]int),
		ByVerificationState: make(map[domain.VerificationState]int),
	}

	rows, err := conn(ctx, s.db).Query(ctx,
		`SELECT status, verification_state, COUNT(*),
		        COUNT(*) FILTER (WHERE quality_is_high_potential)
		 FROM hypotheses
		 WHERE origin_user_id = $1
		 GROUP BY status, verification_state`,
		userID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	for rows.Next() {
		var (
			status        domain.HypothesisStatus
			state         domain.VerificationState
			n, highPotent int
		)
		if err := rows.Scan(&status, &state, &n, &highPotent); err != nil {
			rows.Close()
			return nil, err
		}
		out.ByStatus[status] += n
		out.ByVerificationState[state] += n
		out.HighPotential += highPotent
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	rows, err = conn(ctx, s.db).Query(ctx,
		`SELECT quality_overall FROM hypotheses
		 WHERE origin_user_id = $1 AND quality_overall IS NOT NULL`,
		userID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var overall float64
		if err := rows.Scan(&overall); err != nil {
			return nil, err
		}
		out.OverallScores = append(out.OverallScores, overall)
	}
	return out, mapError(rows.Err())
}

func (s *HypothesisStore) DeleteByOrigin(ctx context.Context, userID string) (int64, error) {
	tag, err := conn(ctx, s.db).Exec(ctx,
		`DELETE FROM hypotheses WHERE origin_user_id = $1`,
		userID,
	)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}
