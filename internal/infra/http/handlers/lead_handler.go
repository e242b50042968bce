package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/leadbase/internal/usecase"
)

type LeadHandler struct {
	Search *usecase.SearchLeadsUseCase
	Manage *usecase.ManageLeadsUseCase
	Logger *zap.Logger
}

func NewLeadHandler(search *usecase.SearchLeadsUseCase, manage *usecase.ManageLeadsUseCase, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{Search: search, Manage: manage, Logger: logger}
}

type EmailsRequest struct {
	Emails   []string `json:"emails"`
	Campaign string   `json:"campaign,omitempty"`
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

// List handles GET /api/leads.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r.URL.Query())
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}

	res, err := h.Search.Execute(r.Context(), filters)
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Browse handles GET /api/leads/browse, filtering the full snapshot.
func (h *LeadHandler) Browse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	desc := strings.EqualFold(q.Get("order"), "desc")

	leads, err := h.Search.Browse(r.Context(), q.Get("q"), q.Get("sort"), desc)
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads, "total": len(leads)})
}

// Get handles GET /api/leads/{email}.
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	lead, err := h.Manage.Get(r.Context(), emailParam(r))
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// Delete handles DELETE /api/leads/{email}.
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	n, err := h.Manage.Delete(r.Context(), emailParam(r))
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// BulkDelete handles POST /api/leads/delete.
func (h *LeadHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req EmailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	n, err := h.Manage.Delete(r.Context(), req.Emails...)
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// UpdateNotes handles PUT /api/leads/{email}/notes.
func (h *LeadHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req NotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	email := emailParam(r)
	if err := h.Manage.UpdateNotes(r.Context(), email, req.Notes); err != nil {
		writeError(w, h.Logger, r, err)
		return
	}

	lead, err := h.Manage.Get(r.Context(), email)
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// Tag handles POST /api/leads/tag.
func (h *LeadHandler) Tag(w http.ResponseWriter, r *http.Request) {
	var req EmailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}

	n, err := h.Manage.TagLeads(r.Context(), req.Emails, req.Campaign)
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"tagged": n})
}

func emailParam(r *http.Request) string {
	raw := chi.URLParam(r, "email")
	if email, err := url.PathUnescape(raw); err == nil {
		return email
	}
	return raw
}
