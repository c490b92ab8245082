package store

import (
	"context"
	"time"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const suggestionColumns = `id, hypothesis_id, user_id, team_id, suggestion_reason, draft_content,
	status, edited_content, created_at, responded_at`

type SuggestionStore struct {
	db *pgxpool.Pool
}

func NewSuggestionStore(db *pgxpool.Pool) *SuggestionStore {
	return &SuggestionStore{db: db}
}

func scanSuggestion(row pgx.Row) (*domain.SharingSuggestion, error) {
	sg := &domain.SharingSuggestion{}
	err := row.Scan(&sg.ID, &sg.HypothesisID, &sg.UserID, &sg.TeamID, &sg.SuggestionReason, &sg.DraftContent,
		&sg.Status, &sg.EditedContent, &sg.CreatedAt, &sg.RespondedAt)
	if err != nil {
		return nil, err
	}
	return sg, nil
}

// Create returns ErrConflict when the hypothesis already has a pending
// suggestion.
func (s *SuggestionStore) Create(ctx context.Context, sg *domain.SharingSuggestion) error {
	created, err := scanSuggestion(conn(ctx, s.db).QueryRow(ctx,
		`INSERT INTO sharing_suggestions (hypothesis_id, user_id, team_id, suggestion_reason, draft_content)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+suggestionColumns,
		sg.HypothesisID, sg.UserID, sg.TeamID, sg.SuggestionReason, sg.DraftContent,
	))
	if err != nil {
		return mapError(err)
	}
	*sg = *created
	return nil
}

func (s *SuggestionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.SharingSuggestion, error) {
	sg, err := scanSuggestion(conn(ctx, s.db).QueryRow(ctx,
		`SELECT `+suggestionColumns+` FROM sharing_suggestions WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, mapError(err)
	}
	return sg, nil
}

func (s *SuggestionStore) Respond(ctx context.Context, r domain.SuggestionResponse) (*domain.SharingSuggestion, error) {
	sg, err := scanSuggestion(conn(ctx, s.db).QueryRow(ctx,
		`UPDATE sharing_suggestions
		 SET status = $2, edited_content = $3, responded_at = NOW()
		 WHERE id = $1 AND status = 'PENDING'
		 RETURNING `+suggestionColumns,
		r.SuggestionID, r.Status, r.EditedContent,
	))
	if err != nil {
		if mapped := mapError(err); mapped != ErrNotFound {
			return nil, mapped
		}
		return nil, ErrConflict
	}
	return sg, nil
}

func (s *SuggestionStore) ListPendingByUser(ctx context.Context, userID string, limit int) ([]domain.SharingSuggestion, error) {
	rows, err := conn(ctx, s.db).Query(ctx,
		`SELECT `+suggestionColumns+` FROM sharing_suggestions
		 WHERE user_id = $1 AND status = 'PENDING'
		 ORDER BY created_at DESC, id
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SharingSuggestion
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sg)
	}
	return out, rows.Err()
}

func (s *SuggestionStore) CountPendingByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := conn(ctx, s.db).QueryRow(ctx,
		`SELECT COUNT(*) FROM sharing_suggestions WHERE user_id = $1 AND status = 'PENDING'`,
		userID,
	).Scan(&n)
	return n, err
}

func (s *SuggestionStore) ExpirePending(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := conn(ctx, s.db).Exec(ctx,
		`UPDATE sharing_suggestions
		 SET status = 'REJECTED', responded_at = NOW()
		 WHERE status = 'PENDING' AND created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}
