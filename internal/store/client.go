package store

import (
	"context"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type APIClientStore struct {
	db *pgxpool.Pool
}

func NewAPIClientStore(db *pgxpool.Pool) *APIClientStore {
	return &APIClientStore{db: db}
}

func (s *APIClientStore) Create(ctx context.Context, c *domain.APIClient) error {
	err := conn(ctx, s.db).QueryRow(ctx,
		`INSERT INTO api_clients (name, api_key_hash) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		c.Name, c.APIKeyHash,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapError(err)
}

func (s *APIClientStore) GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*domain.APIClient, error) {
	c := &domain.APIClient{}
	err := conn(ctx, s.db).QueryRow(ctx,
		`SELECT id, name, api_key_hash, created_at, updated_at
		 FROM api_clients WHERE api_key_hash = $1`,
		apiKeyHash,
	).Scan(&c.ID, &c.Name, &c.APIKeyHash, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}
