package handlers

import (
	"net/http"
	"strings"

	"github.com/Harshitk-cp/teambrain/internal/api/middleware"
	"github.com/Harshitk-cp/teambrain/internal/domain"
)

type ClientHandler struct {
	store domain.APIClientStore
}

func NewClientHandler(store domain.APIClientStore) *ClientHandler {
	return &ClientHandler{store: store}
}

type createClientRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type createClientResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if !decode(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	apiKey, err := middleware.GenerateAPIKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate API key")
		return
	}

	client := &domain.APIClient{
		Name:       name,
		APIKeyHash: middleware.HashAPIKey(apiKey),
	}
	if err := h.store.Create(r.Context(), client); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create client")
		return
	}

	writeJSON(w, http.StatusCreated, createClientResponse{
		ID:     client.ID.String(),
		Name:   client.Name,
		APIKey: apiKey,
	})
}
