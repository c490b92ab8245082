package domain

import (
	"time"

	"github.com/google/uuid"
)

// APIClient is a trusted request-layer caller. It authenticates with an API key
// and forwards the id of the end user it acts for.
type APIClient struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	APIKeyHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
