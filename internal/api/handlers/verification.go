package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/Harshitk-cp/teambrain/internal/service"
)

type VerificationHandler struct {
	svc *service.VerificationService
}

func NewVerificationHandler(svc *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

type submitVerificationRequest struct {
	Result               string         `json:"result" validate:"required,vresult"`
	VerifierTeamID       *string        `json:"verifier_team_id,omitempty" validate:"omitempty,uuid"`
	Conditions           string         `json:"conditions" validate:"max=5000"`
	Notes                string         `json:"notes" validate:"max=5000"`
	Evidence             map[string]any `json:"evidence,omitempty"`
	ParentVerificationID *string        `json:"parent_verification_id,omitempty" validate:"omitempty,uuid"`
}

type submitVerificationResponse struct {
	*domain.Verification
	VerificationState domain.VerificationState `json:"verification_state"`
}

func (h *VerificationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "hypothesis")
	if !ok {
		return
	}

	var req submitVerificationRequest
	if !decode(w, r, &req) {
		return
	}
	teamID, err := parseOptionalUUID(req.VerifierTeamID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid verifier_team_id")
		return
	}
	parentID, err := parseOptionalUUID(req.ParentVerificationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid parent_verification_id")
		return
	}

	v, state, err := h.svc.Submit(r.Context(), service.SubmitVerificationInput{
		HypothesisID:   id,
		VerifierID:     userID,
		VerifierTeamID: teamID,
		Result:         domain.VerificationResult(req.Result),
		Conditions:     req.Conditions,
		Notes:          req.Notes,
		Evidence:       req.Evidence,
		DifferentialOf: parentID,
	})
	if err != nil {
		writeServiceError(w, err, "failed to submit verification")
		return
	}
	writeJSON(w, http.StatusCreated, submitVerificationResponse{Verification: v, VerificationState: state})
}

func (h *VerificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "hypothesis")
	if !ok {
		return
	}

	chains, err := h.svc.List(r.Context(), id, userID)
	if err != nil {
		writeServiceError(w, err, "failed to list verifications")
		return
	}
	if chains == nil {
		chains = []domain.VerificationChain{}
	}
	writeJSON(w, http.StatusOK, chains)
}
