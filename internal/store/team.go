package store

import (
	"context"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TeamStore struct {
	db *pgxpool.Pool
}

func NewTeamStore(db *pgxpool.Pool) *TeamStore {
	return &TeamStore{db: db}
}

func (s *TeamStore) Create(ctx context.Context, t *domain.Team) error {
	err := conn(ctx, s.db).QueryRow(ctx,
		`INSERT INTO teams (name, description, created_by) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		t.Name, t.Description, t.CreatedBy,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return mapError(err)
}

func (s *TeamStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	t := &domain.Team{}
	err := conn(ctx, s.db).QueryRow(ctx,
		`SELECT id, name, description, created_by, created_at, updated_at
		 FROM teams WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Name, &t.Description, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

func (s *TeamStore) LockByID(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	err := conn(ctx, s.db).QueryRow(ctx,
		`SELECT id FROM teams WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&locked)
	return mapError(err)
}

func (s *TeamStore) ListByUser(ctx context.Context, userID string) ([]domain.TeamSummary, error) {
	rows, err := conn(ctx, s.db).Query(ctx,
		`SELECT t.id, t.name, t.description, t.created_by, t.created_at, t.updated_at, m.role,
		        (SELECT COUNT(*) FROM team_members c WHERE c.team_id = t.id)
		 FROM teams t
		 JOIN team_members m ON m.team_id = t.id
		 WHERE m.user_id = $1
		 ORDER BY t.name, t.id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []domain.TeamSummary
	for rows.Next() {
		var t domain.TeamSummary
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt, &t.Role, &t.MemberCount); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *TeamStore) AddMember(ctx context.Context, m *domain.Membership) error {
	err := conn(ctx, s.db).QueryRow(ctx,
		`INSERT INTO team_members (team_id, user_id, role) VALUES ($1, $2, $3)
		 RETURNING joined_at`,
		m.TeamID, m.UserID, m.Role,
	).Scan(&m.JoinedAt)
	return mapError(err)
}

func (s *TeamStore) GetMembership(ctx context.Context, teamID uuid.UUID, userID string) (*domain.Membership, error) {
	m := &domain.Membership{}
	err := conn(ctx, s.db).QueryRow(ctx,
		`SELECT team_id, user_id, role, joined_at
		 FROM team_members WHERE team_id = $1 AND user_id = $2`,
		teamID, userID,
	).Scan(&m.TeamID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

func (s *TeamStore) UpdateMemberRole(ctx context.Context, teamID uuid.UUID, userID string, role domain.Role) error {
	tag, err := conn(ctx, s.db).Exec(ctx,
		`UPDATE team_members SET role = $3 WHERE team_id = $1 AND user_id = $2`,
		teamID, userID, role,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *TeamStore) RemoveMember(ctx context.Context, teamID uuid.UUID, userID string) error {
	tag, err := conn(ctx, s.db).Exec(ctx,
		`DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`,
		teamID, userID,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *TeamStore) ListMembers(ctx context.Context, teamID uuid.UUID) ([]domain.Membership, error) {
	rows, err := conn(ctx, s.db).Query(ctx,
		`SELECT team_id, user_id, role, joined_at
		 FROM team_members WHERE team_id = $1
		 ORDER BY joined_at, user_id`,
		teamID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *TeamStore) CountOwners(ctx context.Context, teamID uuid.UUID) (int, error) {
	var n int
	err := conn(ctx, s.db).QueryRow(ctx,
		`SELECT COUNT(*) FROM team_members WHERE team_id = $1 AND role = 'owner'`,
		teamID,
	).Scan(&n)
	return n, err
}

func (s *TeamStore) ListSharedTeamRoles(ctx context.Context, userID, otherUserID string) ([]domain.Role, error) {
	rows, err := conn(ctx, s.db).Query(ctx,
		`SELECT a.role
		 FROM team_members a
		 JOIN team_members b ON b.team_id = a.team_id
		 WHERE a.user_id = $1 AND b.user_id = $2`,
		userID, otherUserID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var r domain.Role
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}
