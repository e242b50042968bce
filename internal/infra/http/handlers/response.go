package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/leadbase/internal/infra/http/middleware"
	"github.com/xavierca1/leadbase/internal/leadcsv"
	"github.com/xavierca1/leadbase/internal/usecase"
)

const (
	CodeInternal      = "INTERNAL_ERROR"
	CodeSetupRequired = "SETUP_REQUIRED"
	CodeBadRequest    = "BAD_REQUEST"
)

type ErrorResponse struct {
	Error      string   `json:"error"`
	Message    string   `json:"message"`
	Candidates []string `json:"candidates,omitempty"`
	Suggested  string   `json:"suggested,omitempty"`
	Missing    []string `json:"missing,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeCSV(w http.ResponseWriter, filename string, content []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: CodeBadRequest, Message: message})
}

// writeError maps use case errors to HTTP responses and logs them once.
func writeError(w http.ResponseWriter, logger *zap.Logger, r *http.Request, err error) {
	log := logger.With(zap.String("method", r.Method), zap.String("path", r.URL.Path))

	var de *usecase.DomainError
	if errors.As(err, &de) {
		resp := ErrorResponse{Error: de.Code, Message: de.Message}

		var ambiguous *leadcsv.AmbiguousColumnError
		if errors.As(err, &ambiguous) {
			resp.Candidates = ambiguous.Candidates
			resp.Suggested = ambiguous.Suggested
		}

		log.Info("request rejected", zap.String("code", de.Code), zap.String("reason", de.Message))
		writeJSON(w, domainStatus(de.Code), resp)
		return
	}

	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		middleware.RecordStoreError(te.Op)
		log.Error("store operation failed", zap.String("op", te.Op), zap.Error(te.Err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: te.Code, Message: te.Error()})
		return
	}

	log.Error("unexpected error", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: CodeInternal, Message: "internal server error"})
}

func domainStatus(code string) int {
	switch code {
	case usecase.CodeAmbiguousEmailColumn:
		return http.StatusConflict
	case usecase.CodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case usecase.CodeLeadNotFound, usecase.CodeNothingToExport:
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// SetupRequired answers every request while store credentials are missing.
func SetupRequired(missing []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   CodeSetupRequired,
			Message: "database credentials are not configured",
			Missing: missing,
		})
	})
}
