package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/xavierca1/leadbase/internal/usecase"
)

// DashboardHandler serves campaigns, stats, history and settings.
type DashboardHandler struct {
	Manage *usecase.ManageLeadsUseCase
	Stats  *usecase.StatsUseCase
	Logger *zap.Logger
}

func NewDashboardHandler(manage *usecase.ManageLeadsUseCase, stats *usecase.StatsUseCase, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{Manage: manage, Stats: stats, Logger: logger}
}

type ClearRequest struct {
	Confirm string `json:"confirm"`
}

func (h *DashboardHandler) Campaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.Manage.Campaigns(r.Context())
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"campaigns": campaigns})
}

func (h *DashboardHandler) StatsSummary(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Stats.Execute(r.Context())
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *DashboardHandler) Ingestions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	list, err := h.Manage.ListIngestions(r.Context(), limit)
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ingestions": list})
}

func (h *DashboardHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.Manage.Count(r.Context())
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, count)
}

// Clear handles POST /api/settings/clear. The body must carry the exact
// confirmation phrase.
func (h *DashboardHandler) Clear(w http.ResponseWriter, r *http.Request) {
	var req ClearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	n, err := h.Manage.ClearAll(r.Context(), req.Confirm)
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
