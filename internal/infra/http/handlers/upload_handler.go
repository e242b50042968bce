package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/xavierca1/leadbase/internal/usecase"
)

// Extra room for multipart boundaries and form fields on top of the file.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	Ingest *usecase.IngestLeadsUseCase
	Logger *zap.Logger
}

func NewUploadHandler(ingest *usecase.IngestLeadsUseCase, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{Ingest: ingest, Logger: logger}
}

// Preview handles POST /api/uploads/preview.
func (h *UploadHandler) Preview(w http.ResponseWriter, r *http.Request) {
	file, header, ok := h.readFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	out, err := h.Ingest.Preview(r.Context(), usecase.PreviewInput{
		Filename:    header.Filename,
		Content:     file,
		EmailColumn: r.FormValue("email_column"),
	})
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Upload handles POST /api/uploads.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, ok := h.readFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	out, err := h.Ingest.Execute(r.Context(), usecase.IngestLeadsInput{
		Filename:    header.Filename,
		Content:     file,
		Campaign:    r.FormValue("campaign"),
		EmailColumn: r.FormValue("email_column"),
	})
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// Clean handles POST /api/uploads/clean and returns the new rows as CSV.
func (h *UploadHandler) Clean(w http.ResponseWriter, r *http.Request) {
	file, header, ok := h.readFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	out, err := h.Ingest.CleanExport(r.Context(), usecase.IngestLeadsInput{
		Filename:    header.Filename,
		Content:     file,
		Campaign:    r.FormValue("campaign"),
		EmailColumn: r.FormValue("email_column"),
	})
	if err != nil {
		writeError(w, h.Logger, r, err)
		return
	}

	w.Header().Set("X-New-Count", strconv.Itoa(out.NewCount))
	w.Header().Set("X-Duplicate-Count", strconv.Itoa(out.DuplicateCount))
	w.Header().Set("X-Invalid-Count", strconv.Itoa(out.InvalidCount))
	writeCSV(w, out.Filename, out.Content)
}

func (h *UploadHandler) readFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	limit := h.Ingest.MaxBytes
	if limit <= 0 {
		limit = usecase.DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, h.Logger, r, usecase.ErrFileTooLarge)
			return nil, nil, false
		}
		badRequest(w, "expected a multipart form with a file field")
		return nil, nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, io.EOF) {
			badRequest(w, "no file uploaded")
			return nil, nil, false
		}
		badRequest(w, "could not read uploaded file")
		return nil, nil, false
	}
	return file, header, true
}
