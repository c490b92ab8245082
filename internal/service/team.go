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
	ErrTeamNotFound      = fmt.Errorf("team %w", domain.ErrNotFound)
	ErrMemberNotFound    = fmt.Errorf("team member %w", domain.ErrNotFound)
	ErrTeamNameRequired  = fmt.Errorf("%w: team name is required", domain.ErrInvalidInput)
	ErrUserIDRequired    = fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	ErrInvalidRole       = fmt.Errorf("%w: role must be owner, editor or viewer", domain.ErrInvalidInput)
	ErrNotTeamOwner      = fmt.Errorf("%w: team owner role required", domain.ErrForbidden)
	ErrNotTeamMember     = fmt.Errorf("%w: not a member of the team", domain.ErrForbidden)
	ErrAlreadyTeamMember = fmt.Errorf("%w: user is already a team member", domain.ErrConflict)
	ErrLastTeamOwner     = fmt.Errorf("%w: a team must keep at least one owner", domain.ErrConflict)
)

type TeamService struct {
	tx     domain.Transactor
	teams  domain.TeamStore
	logger *zap.Logger
}

func NewTeamService(tx domain.Transactor, ts domain.TeamStore, logger *zap.Logger) *TeamService {
	return &TeamService{tx: tx, teams: ts, logger: logger}
}

// Create stores the team and makes creator its first owner in one transaction.
func (s *TeamService) Create(ctx context.Context, name, description, creator string) (*domain.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	if creator == "" {
		return nil, ErrUserIDRequired
	}

	t := &domain.Team{Name: name, Description: description, CreatedBy: creator}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.teams.Create(ctx, t); err != nil {
			return err
		}
		return s.teams.AddMember(ctx, &domain.Membership{TeamID: t.ID, UserID: creator, Role: domain.RoleOwner})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("team created", zap.String("team_id", t.ID.String()), zap.String("created_by", creator))
	return t, nil
}

// RoleOf returns the user's role in the team, or "" when they are not a member.
func (s *TeamService) RoleOf(ctx context.Context, teamID uuid.UUID, userID string) (domain.Role, error) {
	if err := s.ensureTeam(ctx, teamID); err != nil {
		return "", err
	}
	return authorizer{teams: s.teams}.roleIn(ctx, teamID, userID)
}

// Get returns the team to one of its members. Non-members get ErrTeamNotFound.
func (s *TeamService) Get(ctx context.Context, teamID uuid.UUID, actor string) (*domain.Team, error) {
	if _, err := s.requireMember(ctx, teamID, actor); err != nil {
		return nil, err
	}
	t, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *TeamService) ListMembers(ctx context.Context, teamID uuid.UUID, actor string) ([]domain.Membership, error) {
	if _, err := s.requireMember(ctx, teamID, actor); err != nil {
		return nil, err
	}
	members, err := s.teams.ListMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []domain.Membership{}
	}
	return members, nil
}

func (s *TeamService) ListForUser(ctx context.Context, userID string) ([]domain.TeamSummary, error) {
	teams, err := s.teams.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if teams == nil {
		teams = []domain.TeamSummary{}
	}
	return teams, nil
}

func (s *TeamService) AddMember(ctx context.Context, teamID uuid.UUID, actor, userID string, role domain.Role) (*domain.Membership, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if !domain.ValidRole(string(role)) {
		return nil, ErrInvalidRole
	}

	m := &domain.Membership{TeamID: teamID, UserID: userID, Role: role}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.lockTeam(ctx, teamID); err != nil {
			return err
		}
		if err := s.requireOwner(ctx, teamID, actor); err != nil {
			return err
		}
		if err := s.teams.AddMember(ctx, m); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrAlreadyTeamMember
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("team member added",
		zap.String("team_id", teamID.String()),
		zap.String("user_id", userID),
		zap.String("role", string(role)))
	return m, nil
}

// ChangeRole is owner only and refuses to demote the team's last owner.
func (s *TeamService) ChangeRole(ctx context.Context, teamID uuid.UUID, actor, userID string, role domain.Role) (*domain.Membership, error) {
	if !domain.ValidRole(string(role)) {
		return nil, ErrInvalidRole
	}

	var m *domain.Membership
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.lockTeam(ctx, teamID); err != nil {
			return err
		}
		if err := s.requireOwner(ctx, teamID, actor); err != nil {
			return err
		}
		target, err := s.membership(ctx, teamID, userID)
		if err != nil {
			return err
		}
		if target.Role == role {
			m = target
			return nil
		}
		if target.Role == domain.RoleOwner {
			if err := s.ensureAnotherOwner(ctx, teamID); err != nil {
				return err
			}
		}
		if err := s.teams.UpdateMemberRole(ctx, teamID, userID, role); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrMemberNotFound
			}
			return err
		}
		target.Role = role
		m = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("team member role changed",
		zap.String("team_id", teamID.String()),
		zap.String("user_id", userID),
		zap.String("role", string(role)))
	return m, nil
}

// RemoveMember lets an owner remove anyone and any member remove themselves,
// as long as the team keeps an owner.
func (s *TeamService) RemoveMember(ctx context.Context, teamID uuid.UUID, actor, userID string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.lockTeam(ctx, teamID); err != nil {
			return err
		}
		if actor != userID {
			if err := s.requireOwner(ctx, teamID, actor); err != nil {
				return err
			}
		}
		target, err := s.membership(ctx, teamID, userID)
		if err != nil {
			if actor == userID && errors.Is(err, ErrMemberNotFound) {
				return ErrNotTeamMember
			}
			return err
		}
		if target.Role == domain.RoleOwner {
			if err := s.ensureAnotherOwner(ctx, teamID); err != nil {
				return err
			}
		}
		if err := s.teams.RemoveMember(ctx, teamID, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrMemberNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("team member removed",
		zap.String("team_id", teamID.String()),
		zap.String("user_id", userID),
		zap.String("removed_by", actor))
	return nil
}

func (s *TeamService) ensureTeam(ctx context.Context, teamID uuid.UUID) error {
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTeamNotFound
		}
		return err
	}
	return nil
}

func (s *TeamService) lockTeam(ctx context.Context, teamID uuid.UUID) error {
	if err := s.teams.LockByID(ctx, teamID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTeamNotFound
		}
		return err
	}
	return nil
}

func (s *TeamService) membership(ctx context.Context, teamID uuid.UUID, userID string) (*domain.Membership, error) {
	m, err := s.teams.GetMembership(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return m, nil
}

// requireMember hides the team from non-members.
func (s *TeamService) requireMember(ctx context.Context, teamID uuid.UUID, actor string) (*domain.Membership, error) {
	m, err := s.membership(ctx, teamID, actor)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *TeamService) requireOwner(ctx context.Context, teamID uuid.UUID, actor string) error {
	m, err := s.membership(ctx, teamID, actor)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return ErrNotTeamOwner
		}
		return err
	}
	if m.Role != domain.RoleOwner {
		return ErrNotTeamOwner
	}
	return nil
}

func (s *TeamService) ensureAnotherOwner(ctx context.Context, teamID uuid.UUID) error {
	owners, err := s.teams.CountOwners(ctx, teamID)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return ErrLastTeamOwner
	}
	return nil
}
