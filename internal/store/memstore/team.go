package memstore

import (
	"context"
	"sort"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/Harshitk-cp/teambrain/internal/store"
	"github.com/google/uuid"
)

type APIClientStore struct {
	db *DB
}

func (s *APIClientStore) Create(ctx context.Context, c *domain.APIClient) error {
	defer s.db.lock(ctx)()
	for _, existing := range s.db.clients {
		if existing.APIKeyHash == c.APIKeyHash {
			return store.ErrConflict
		}
	}
	c.ID = uuid.New()
	c.CreatedAt = s.db.now()
	c.UpdatedAt = c.CreatedAt
	s.db.clients[c.ID] = *c
	return nil
}

func (s *APIClientStore) GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*domain.APIClient, error) {
	defer s.db.lock(ctx)()
	for _, c := range s.db.clients {
		if c.APIKeyHash == apiKeyHash {
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

type TeamStore struct {
	db *DB
}

func (s *TeamStore) Create(ctx context.Context, t *domain.Team) error {
	defer s.db.lock(ctx)()
	t.ID = uuid.New()
	t.CreatedAt = s.db.now()
	t.UpdatedAt = t.CreatedAt
	s.db.teams[t.ID] = *t
	s.db.members[t.ID] = make(map[string]domain.Membership)
	return nil
}

func (s *TeamStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	defer s.db.lock(ctx)()
	t, ok := s.db.teams[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

// LockByID only checks existence; the transactor already serialises writers.
func (s *TeamStore) LockByID(ctx context.Context, id uuid.UUID) error {
	_, err := s.GetByID(ctx, id)
	return err
}

func (s *TeamStore) ListByUser(ctx context.Context, userID string) ([]domain.TeamSummary, error) {
	defer s.db.lock(ctx)()
	var out []domain.TeamSummary
	for id, members := range s.db.members {
		m, ok := members[userID]
		if !ok {
			continue
		}
		out = append(out, domain.TeamSummary{Team: s.db.teams[id], Role: m.Role, MemberCount: len(members)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return idLess(out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *TeamStore) AddMember(ctx context.Context, m *domain.Membership) error {
	defer s.db.lock(ctx)()
	members, ok := s.db.members[m.TeamID]
	if !ok {
		return store.ErrNotFound
	}
	if _, exists := members[m.UserID]; exists {
		return store.ErrConflict
	}
	m.JoinedAt = s.db.now()
	members[m.UserID] = *m
	return nil
}

func (s *TeamStore) GetMembership(ctx context.Context, teamID uuid.UUID, userID string) (*domain.Membership, error) {
	defer s.db.lock(ctx)()
	m, ok := s.db.members[teamID][userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func (s *TeamStore) UpdateMemberRole(ctx context.Context, teamID uuid.UUID, userID string, role domain.Role) error {
	defer s.db.lock(ctx)()
	m, ok := s.db.members[teamID][userID]
	if !ok {
		return store.ErrNotFound
	}
	m.Role = role
	s.db.members[teamID][userID] = m
	return nil
}

func (s *TeamStore) RemoveMember(ctx context.Context, teamID uuid.UUID, userID string) error {
	defer s.db.lock(ctx)()
	if _, ok := s.db.members[teamID][userID]; !ok {
		return store.ErrNotFound
	}
	delete(s.db.members[teamID], userID)
	return nil
}

func (s *TeamStore) ListMembers(ctx context.Context, teamID uuid.UUID) ([]domain.Membership, error) {
	defer s.db.lock(ctx)()
	var out []domain.Membership
	for _, m := range s.db.members[teamID] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (s *TeamStore) CountOwners(ctx context.Context, teamID uuid.UUID) (int, error) {
	defer s.db.lock(ctx)()
	n := 0
	for _, m := range s.db.members[teamID] {
		if m.Role == domain.RoleOwner {
			n++
		}
	}
	return n, nil
}

func (s *TeamStore) ListSharedTeamRoles(ctx context.Context, userID, otherUserID string) ([]domain.Role, error) {
	defer s.db.lock(ctx)()
	var out []domain.Role
	for _, members := range s.db.members {
		a, ok := members[userID]
		if !ok {
			continue
		}
		if _, ok := members[otherUserID]; ok {
			out = append(out, a.Role)
		}
	}
	return out, nil
}
