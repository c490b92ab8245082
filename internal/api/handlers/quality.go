package handlers

import (
	"net/http"
	"time"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/Harshitk-cp/teambrain/internal/service"
	"go.uber.org/zap"
)

type QualityHandler struct {
	svc        *service.QualityService
	hypotheses *service.HypothesisService
	scorer     domain.QualityScorer
	logger     *zap.Logger
}

func NewQualityHandler(svc *service.QualityService, hs *service.HypothesisService, scorer domain.QualityScorer, logger *zap.Logger) *QualityHandler {
	return &QualityHandler{svc: svc, hypotheses: hs, scorer: scorer, logger: logger}
}

type recordQualityRequest struct {
	Novelty         float64    `json:"novelty" validate:"gte=0,lte=1"`
	Specificity     float64    `json:"specificity" validate:"gte=0,lte=1"`
	Impact          float64    `json:"impact" validate:"gte=0,lte=1"`
	Overall         *float64   `json:"overall,omitempty" validate:"omitempty,gte=0,lte=1"`
	IsHighPotential *bool      `json:"is_high_potential,omitempty"`
	Rationale       string     `json:"rationale" validate:"max=5000"`
	ScoredAt        *time.Time `json:"scored_at,omitempty"`
}

type recordQualityResponse struct {
	*domain.QualityScoreRecord
	SnapshotReplaced bool `json:"snapshot_replaced"`
}

// Record stores caller-supplied scores. When overall or the high-potential
// flag is omitted it is derived from the components.
func (h *QualityHandler) Record(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "hypothesis")
	if !ok {
		return
	}

	var req recordQualityRequest
	if !decode(w, r, &req) {
		return
	}

	scores := domain.DeriveQualityScores(req.Novelty, req.Specificity, req.Impact)
	if req.Overall != nil {
		scores.Overall = *req.Overall
	}
	if req.IsHighPotential != nil {
		scores.IsHighPotential = *req.IsHighPotential
	}

	rec, applied, err := h.svc.Record(r.Context(), service.RecordQualityInput{
		HypothesisID: id,
		Actor:        userID,
		Scores:       scores,
		Rationale:    req.Rationale,
		ScoredAt:     req.ScoredAt,
	})
	if err != nil {
		writeServiceError(w, err, "failed to record quality score")
		return
	}
	writeJSON(w, http.StatusCreated, recordQualityResponse{QualityScoreRecord: rec, SnapshotReplaced: applied})
}

// Assess asks the configured scorer to rate the hypothesis and records the
// result.
func (h *QualityHandler) Assess(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "hypothesis")
	if !ok {
		return
	}

	hyp, err := h.hypotheses.Get(r.Context(), id, userID)
	if err != nil {
		writeServiceError(w, err, "failed to get hypothesis")
		return
	}

	assessment, err := h.scorer.ScoreHypothesis(r.Context(), hyp.Content)
	if err != nil {
		h.logger.Warn("quality assessment failed", zap.String("hypothesis_id", id.String()), zap.Error(err))
		writeError(w, http.StatusBadGateway, "quality assessment failed")
		return
	}

	rec, applied, err := h.svc.Record(r.Context(), service.RecordQualityInput{
		HypothesisID: id,
		Actor:        userID,
		Scores:       domain.DeriveQualityScores(assessment.Novelty, assessment.Specificity, assessment.Impact),
		Rationale:    assessment.Rationale,
	})
	if err != nil {
		writeServiceError(w, err, "failed to record quality score")
		return
	}
	writeJSON(w, http.StatusCreated, recordQualityResponse{QualityScoreRecord: rec, SnapshotReplaced: applied})
}

func (h *QualityHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "hypothesis")
	if !ok {
		return
	}

	records, err := h.svc.History(r.Context(), id, userID, limitParam(r))
	if err != nil {
		writeServiceError(w, err, "failed to list quality scores")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *QualityHandler) HighPotential(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	hs, err := h.svc.ListHighPotential(r.Context(), userID, limitParam(r))
	if err != nil {
		writeServiceError(w, err, "failed to list high potential hypotheses")
		return
	}
	writeJSON(w, http.StatusOK, hs)
}
