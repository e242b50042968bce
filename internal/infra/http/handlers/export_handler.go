package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/xavierca1/leadbase/internal/usecase"
)

type ExportHandler struct {
	Export *usecase.ExportLeadsUseCase
	Logger *zap.Logger
}

func NewExportHandler(export *usecase.ExportLeadsUseCase, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{Export: export, Logger: logger}
}

// Handle serves GET /api/leads/export as a CSV attachment.
func (h *ExportHandler) Handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters, err := parseFilters(q)
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	format, err := usecase.ParseExportFormat(q.Get("format"))
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}

	out, err := h.Export.Execute(r.Context(), usecase.ExportLeadsInput{
		Filters:     filters,
		Format:      format,
		Label:       q.Get("filename"),
		TagCampaign: q.Get("tag"),
	})
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}

	w.Header().Set("X-Export-Count", strconv.Itoa(out.Count))
	w.Header().Set("X-Tagged-Count", strconv.FormatInt(out.Tagged, 10))
	writeCSV(w, out.Filename, out.Content)
}
