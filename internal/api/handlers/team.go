package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/Harshitk-cp/teambrain/internal/service"
	"github.com/go-chi/chi/v5"
)

type TeamHandler struct {
	svc *service.TeamService
}

func NewTeamHandler(svc *service.TeamService) *TeamHandler {
	return &TeamHandler{svc: svc}
}

type createTeamRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type addMemberRequest struct {
	UserID string `json:"user_id" validate:"required,max=256"`
	Role   string `json:"role" validate:"required,role"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

type teamResponse struct {
	*domain.Team
	Role domain.Role `json:"role"`
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req createTeamRequest
	if !decode(w, r, &req) {
		return
	}

	team, err := h.svc.Create(r.Context(), req.Name, req.Description, userID)
	if err != nil {
		writeServiceError(w, err, "failed to create team")
		return
	}
	writeJSON(w, http.StatusCreated, teamResponse{Team: team, Role: domain.RoleOwner})
}

func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	teams, err := h.svc.ListForUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "failed to list teams")
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	teamID, ok := uuidParam(w, r, "id", "team")
	if !ok {
		return
	}

	team, err := h.svc.Get(r.Context(), teamID, userID)
	if err != nil {
		writeServiceError(w, err, "failed to get team")
		return
	}
	role, err := h.svc.RoleOf(r.Context(), teamID, userID)
	if err != nil {
		writeServiceError(w, err, "failed to get team")
		return
	}
	writeJSON(w, http.StatusOK, teamResponse{Team: team, Role: role})
}

func (h *TeamHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	teamID, ok := uuidParam(w, r, "id", "team")
	if !ok {
		return
	}

	members, err := h.svc.ListMembers(r.Context(), teamID, userID)
	if err != nil {
		writeServiceError(w, err, "failed to list members")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	teamID, ok := uuidParam(w, r, "id", "team")
	if !ok {
		return
	}

	var req addMemberRequest
	if !decode(w, r, &req) {
		return
	}

	m, err := h.svc.AddMember(r.Context(), teamID, userID, req.UserID, domain.Role(req.Role))
	if err != nil {
		writeServiceError(w, err, "failed to add member")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *TeamHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	teamID, ok := uuidParam(w, r, "id", "team")
	if !ok {
		return
	}

	var req changeRoleRequest
	if !decode(w, r, &req) {
		return
	}

	m, err := h.svc.ChangeRole(r.Context(), teamID, userID, chi.URLParam(r, "userID"), domain.Role(req.Role))
	if err != nil {
		writeServiceError(w, err, "failed to change role")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	teamID, ok := uuidParam(w, r, "id", "team")
	if !ok {
		return
	}

	if err := h.svc.RemoveMember(r.Context(), teamID, userID, chi.URLParam(r, "userID")); err != nil {
		writeServiceError(w, err, "failed to remove member")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
