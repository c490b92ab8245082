package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/Harshitk-cp/teambrain/internal/service"
	"go.uber.org/zap"
)

type SuggestionHandler struct {
	svc        *service.SuggestionService
	hypotheses *service.HypothesisService
	anonymizer domain.Anonymizer
	logger     *zap.Logger
}

func NewSuggestionHandler(svc *service.SuggestionService, hs *service.HypothesisService, anonymizer domain.Anonymizer, logger *zap.Logger) *SuggestionHandler {
	return &SuggestionHandler{svc: svc, hypotheses: hs, anonymizer: anonymizer, logger: logger}
}

type proposeSuggestionRequest struct {
	DraftContent string  `json:"draft_content" validate:"required,max=20000"`
	Reason       string  `json:"suggestion_reason" validate:"max=5000"`
	TeamID       *string `json:"team_id,omitempty" validate:"omitempty,uuid"`
}

type generateSuggestionRequest struct {
	TeamID  *string `json:"team_id,omitempty" validate:"omitempty,uuid"`
	Trigger string  `json:"trigger,omitempty" validate:"omitempty,trigger"`
}

type respondSuggestionRequest struct {
	Decision      string  `json:"decision" validate:"required,decision"`
	EditedContent *string `json:"edited_content,omitempty" validate:"omitempty,max=20000"`
	TeamID        *string `json:"team_id,omitempty" validate:"omitempty,uuid"`
}

type respondSuggestionResponse struct {
	Suggestion *domain.SharingSuggestion `json:"suggestion"`
	Hypothesis *domain.Hypothesis        `json:"hypothesis,omitempty"`
}

type generateSuggestionResponse struct {
	Suggested  bool                      `json:"suggested"`
	Suggestion *domain.SharingSuggestion `json:"suggestion,omitempty"`
}

func (h *SuggestionHandler) Propose(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "hypothesis")
	if !ok {
		return
	}

	var req proposeSuggestionRequest
	if !decode(w, r, &req) {
		return
	}
	teamID, err := parseOptionalUUID(req.TeamID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid team_id")
		return
	}

	sg, err := h.svc.Propose(r.Context(), service.ProposeSuggestionInput{
		HypothesisID: id,
		SuggestedBy:  userID,
		Reason:       req.Reason,
		DraftContent: req.DraftContent,
		TeamID:       teamID,
	})
	if err != nil {
		writeServiceError(w, err, "failed to propose suggestion")
		return
	}
	writeJSON(w, http.StatusCreated, sg)
}

// Generate has the anonymizer draft a suggestion for the hypothesis. With a
// trigger the draft is only produced when the hypothesis is eligible.
func (h *SuggestionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "hypothesis")
	if !ok {
		return
	}

	var req generateSuggestionRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	teamID, err := parseOptionalUUID(req.TeamID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid team_id")
		return
	}

	if req.Trigger != "" {
		eligible, err := h.svc.ShouldSuggest(r.Context(), id, userID, domain.SuggestionTrigger(req.Trigger))
		if err != nil {
			writeServiceError(w, err, "failed to check eligibility")
			return
		}
		if !eligible {
			writeJSON(w, http.StatusOK, generateSuggestionResponse{Suggested: false})
			return
		}
	}

	hyp, err := h.hypotheses.Get(r.Context(), id, userID)
	if err != nil {
		writeServiceError(w, err, "failed to get hypothesis")
		return
	}
	draft, err := h.anonymizer.AnonymizeHypothesis(r.Context(), hyp.Content)
	if err != nil {
		h.logger.Warn("anonymization failed", zap.String("hypothesis_id", id.String()), zap.Error(err))
		writeError(w, http.StatusBadGateway, "anonymization failed")
		return
	}

	sg, err := h.svc.Propose(r.Context(), service.ProposeSuggestionInput{
		HypothesisID: id,
		SuggestedBy:  userID,
		Reason:       draft.Reason,
		DraftContent: draft.Content,
		TeamID:       teamID,
	})
	if err != nil {
		writeServiceError(w, err, "failed to propose suggestion")
		return
	}
	writeJSON(w, http.StatusCreated, generateSuggestionResponse{Suggested: true, Suggestion: sg})
}

func (h *SuggestionHandler) Respond(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "suggestion")
	if !ok {
		return
	}

	var req respondSuggestionRequest
	if !decode(w, r, &req) {
		return
	}
	teamID, err := parseOptionalUUID(req.TeamID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid team_id")
		return
	}

	sg, hyp, err := h.svc.Respond(r.Context(), service.RespondSuggestionInput{
		SuggestionID:  id,
		Actor:         userID,
		Decision:      domain.Decision(req.Decision),
		EditedContent: req.EditedContent,
		TeamID:        teamID,
	})
	if err != nil {
		writeServiceError(w, err, "failed to respond to suggestion")
		return
	}
	writeJSON(w, http.StatusOK, respondSuggestionResponse{Suggestion: sg, Hypothesis: hyp})
}

func (h *SuggestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "suggestion")
	if !ok {
		return
	}

	sg, err := h.svc.Get(r.Context(), id, userID)
	if err != nil {
		writeServiceError(w, err, "failed to get suggestion")
		return
	}
	writeJSON(w, http.StatusOK, sg)
}

func (h *SuggestionHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	out, err := h.svc.ListPending(r.Context(), userID, limitParam(r))
	if err != nil {
		writeServiceError(w, err, "failed to list suggestions")
		return
	}
	writeJSON(w, http.StatusOK, out)
}
