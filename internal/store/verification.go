package store

import (
	"context"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const continuationIndex = "verifications_single_continuation"

const verificationColumns = `id, hypothesis_id, verifier_user_id, verifier_team_id, result,
	conditions, notes, evidence, is_differential, parent_verification_id, created_at`

type VerificationStore struct {
	db *pgxpool.Pool
}

func NewVerificationStore(db *pgxpool.Pool) *VerificationStore {
	return &VerificationStore{db: db}
}

func scanVerification(row pgx.Row) (*domain.Verification, error) {
	v := &domain.Verification{}
	err := row.Scan(&v.ID, &v.HypothesisID, &v.VerifierUserID, &v.VerifierTeamID, &v.Result,
		&v.Conditions, &v.Notes, &v.Evidence, &v.IsDifferential, &v.ParentVerificationID, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Create returns ErrChainContinued if the parent already has a differential
// child.
func (s *VerificationStore) Create(ctx context.Context, v *domain.Verification) error {
	evidence := v.Evidence
	if evidence == nil {
		evidence = map[string]any{}
	}
	created, err := scanVerification(conn(ctx, s.db).QueryRow(ctx,
		`INSERT INTO hypothesis_verifications
		     (hypothesis_id, verifier_user_id, verifier_team_id, result, conditions, notes,
		      evidence, is_differential, parent_verification_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+verificationColumns,
		v.HypothesisID, v.VerifierUserID, v.VerifierTeamID, v.Result, v.Conditions, v.Notes,
		evidence, v.IsDifferential, v.ParentVerificationID,
	))
	if err != nil {
		if constraintName(err) == continuationIndex {
			return ErrChainContinued
		}
		return mapError(err)
	}
	*v = *created
	return nil
}

func (s *VerificationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Verification, error) {
	v, err := scanVerification(conn(ctx, s.db).QueryRow(ctx,
		`SELECT `+verificationColumns+` FROM hypothesis_verifications WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, mapError(err)
	}
	return v, nil
}

func (s *VerificationStore) HasContinuation(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := conn(ctx, s.db).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM hypothesis_verifications WHERE parent_verification_id = $1)`,
		id,
	).Scan(&exists)
	return exists, err
}

func (s *VerificationStore) ListByHypothesis(ctx context.Context, hypothesisID uuid.UUID) ([]domain.Verification, error) {
	rows, err := conn(ctx, s.db).Query(ctx,
		`SELECT `+verificationColumns+` FROM hypothesis_verifications
		 WHERE hypothesis_id = $1
		 ORDER BY created_at, id`,
		hypothesisID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Verification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}
