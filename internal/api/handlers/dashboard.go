package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/teambrain/internal/service"
)

type DashboardHandler struct {
	svc *service.DashboardService
}

func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	stats, err := h.svc.Stats(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "failed to build dashboard")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
