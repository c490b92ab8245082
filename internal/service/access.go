package service

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/Harshitk-cp/teambrain/internal/store"
	"github.com/google/uuid"
)

// authorizer resolves what a user may do with a hypothesis from team
// membership. It reads the membership tables on every call.
type authorizer struct {
	teams domain.TeamStore
}

// roleIn returns userID's role in teamID, or "" when they are not a member.
func (a authorizer) roleIn(ctx context.Context, teamID uuid.UUID, userID string) (domain.Role, error) {
	m, err := a.teams.GetMembership(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return m.Role, nil
}

// access works out how userID relates to h:
//   - the origin user always has full access
//   - a SHARED hypothesis is visible to members of the team it is shared to
//   - a PROPOSED hypothesis is visible to anyone who shares a team with the
//     origin user, at their best role across those teams
//   - a DRAFT is private to the origin user
func (a authorizer) access(ctx context.Context, h *domain.Hypothesis, userID string) (domain.Access, error) {
	if h.IsOrigin(userID) {
		return domain.AccessOrigin, nil
	}
	if userID == "" {
		return domain.AccessNone, nil
	}

	var role domain.Role
	switch h.Status {
	case domain.StatusShared:
		if h.TeamID == nil {
			return domain.AccessNone, nil
		}
		r, err := a.roleIn(ctx, *h.TeamID, userID)
		if err != nil {
			return domain.AccessNone, err
		}
		role = r
	case domain.StatusProposed:
		roles, err := a.teams.ListSharedTeamRoles(ctx, userID, h.OriginUserID)
		if err != nil {
			return domain.AccessNone, err
		}
		for _, r := range roles {
			if r.AtLeast(role) {
				role = r
			}
		}
	}
	return accessFor(role), nil
}

func accessFor(role domain.Role) domain.Access {
	switch {
	case role.AtLeast(domain.RoleEditor):
		return domain.AccessTeamEditor
	case role.AtLeast(domain.RoleViewer):
		return domain.AccessTeamViewer
	}
	return domain.AccessNone
}
