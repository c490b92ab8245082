package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/Harshitk-cp/teambrain/internal/service"
	"github.com/google/uuid"
)

type HypothesisHandler struct {
	svc *service.HypothesisService
}

func NewHypothesisHandler(svc *service.HypothesisService) *HypothesisHandler {
	return &HypothesisHandler{svc: svc}
}

type createHypothesisRequest struct {
	ID                 *string  `json:"id,omitempty" validate:"omitempty,uuid"`
	Content            string   `json:"content" validate:"required,max=20000"`
	OriginalExperience *string  `json:"original_experience,omitempty" validate:"omitempty,max=20000"`
	ParentHypothesisID *string  `json:"parent_hypothesis_id,omitempty" validate:"omitempty,uuid"`
	Tags               []string `json:"tags,omitempty" validate:"max=32,dive,max=64"`
}

type updateHypothesisRequest struct {
	Content *string  `json:"content,omitempty" validate:"omitempty,max=20000"`
	Tags    []string `json:"tags,omitempty" validate:"max=32,dive,max=64"`
}

type transitionRequest struct {
	ExpectedStatus *string `json:"expected_status,omitempty" validate:"omitempty,hstatus"`
}

type shareRequest struct {
	TeamID           string  `json:"team_id" validate:"required,uuid"`
	PublishedContent *string `json:"published_content,omitempty" validate:"omitempty,max=20000"`
	ExpectedStatus   *string `json:"expected_status,omitempty" validate:"omitempty,hstatus"`
}

type rejectRequest struct {
	TeamID         *string `json:"team_id,omitempty" validate:"omitempty,uuid"`
	ExpectedStatus *string `json:"expected_status,omitempty" validate:"omitempty,hstatus"`
}

func (h *HypothesisHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req createHypothesisRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := parseOptionalUUID(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	parentID, err := parseOptionalUUID(req.ParentHypothesisID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid parent_hypothesis_id")
		return
	}

	hyp, err := h.svc.Create(r.Context(), service.CreateHypothesisInput{
		ID:                 id,
		OwnerID:            userID,
		Content:            req.Content,
		OriginalExperience: req.OriginalExperience,
		ParentID:           parentID,
		Tags:               req.Tags,
	})
	if err != nil {
		writeServiceError(w, err, "failed to create hypothesis")
		return
	}
	writeJSON(w, http.StatusCreated, hyp)
}

func (h *HypothesisHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "hypothesis")
	if !ok {
		return
	}

	hyp, err := h.svc.Get(r.Context(), id, userID)
	if err != nil {
		writeServiceError(w, err, "failed to get hypothesis")
		return
	}
	writeJSON(w, http.StatusOK, hyp)
}

func (h *HypothesisHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	hs, err := h.svc.ListMine(r.Context(), userID, filterFromQuery(r))
	if err != nil {
		writeServiceError(w, err, "failed to list hypotheses")
		return
	}
	writeJSON(w, http.StatusOK, hs)
}

// ListTeam serves a team's shared pool.
func (h *HypothesisHandler) ListTeam(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	teamID, ok := uuidParam(w, r, "id", "team")
	if !ok {
		return
	}

	pool, err := h.svc.ListShared(r.Context(), teamID, userID, filterFromQuery(r))
	if err != nil {
		writeServiceError(w, err, "failed to list shared hypotheses")
		return
	}
	writeJSON(w, http.StatusOK, pool)
}

func (h *HypothesisHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "hypothesis")
	if !ok {
		return
	}

	var req updateHypothesisRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Content == nil && req.Tags == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	hyp, err := h.svc.Refine(r.Context(), id, userID, req.Content, req.Tags)
	if err != nil {
		writeServiceError(w, err, "failed to update hypothesis")
		return
	}
	writeJSON(w, http.StatusOK, hyp)
}

func (h *HypothesisHandler) Propose(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "hypothesis")
	if !ok {
		return
	}

	var req transitionRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}

	hyp, err := h.svc.Propose(r.Context(), id, userID, statusPtr(req.ExpectedStatus))
	if err != nil {
		writeServiceError(w, err, "failed to propose hypothesis")
		return
	}
	writeJSON(w, http.StatusOK, hyp)
}

func (h *HypothesisHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "hypothesis")
	if !ok {
		return
	}

	var req shareRequest
	if !decode(w, r, &req) {
		return
	}
	teamID, err := uuid.Parse(req.TeamID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid team_id")
		return
	}

	hyp, err := h.svc.Share(r.Context(), service.ShareInput{
		HypothesisID:     id,
		Actor:            userID,
		TeamID:           teamID,
		PublishedContent: req.PublishedContent,
		ExpectedStatus:   statusPtr(req.ExpectedStatus),
	})
	if err != nil {
		writeServiceError(w, err, "failed to share hypothesis")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(hyp, userID))
}

func (h *HypothesisHandler) Reject(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "hypothesis")
	if !ok {
		return
	}

	var req rejectRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	teamID, err := parseOptionalUUID(req.TeamID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid team_id")
		return
	}

	hyp, err := h.svc.RejectToDraft(r.Context(), id, userID, teamID, statusPtr(req.ExpectedStatus))
	if err != nil {
		writeServiceError(w, err, "failed to reject hypothesis")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(hyp, userID))
}

func (h *HypothesisHandler) Derivations(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "hypothesis")
	if !ok {
		return
	}

	d, err := h.svc.Derivations(r.Context(), id, userID)
	if err != nil {
		writeServiceError(w, err, "failed to get derivations")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func filterFromQuery(r *http.Request) domain.HypothesisFilter {
	q := r.URL.Query()
	f := domain.HypothesisFilter{Limit: limitParam(r)}
	if v := q.Get("status"); v != "" {
		status := domain.HypothesisStatus(v)
		f.Status = &status
	}
	if v := q.Get("verification_state"); v != "" {
		state := domain.VerificationState(v)
		f.VerificationState = &state
	}
	return f
}

func statusPtr(s *string) *domain.HypothesisStatus {
	if s == nil || *s == "" {
		return nil
	}
	status := domain.HypothesisStatus(*s)
	return &status
}

// viewOf redacts a hypothesis a non-origin editor just acted on.
func viewOf(hyp *domain.Hypothesis, userID string) domain.Hypothesis {
	if hyp.IsOrigin(userID) {
		return *hyp
	}
	return hyp.Redacted(domain.AccessTeamEditor)
}
