package files

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/intake/pkg/handlers"
	"github.com/JaimeStill/intake/pkg/pagination"
	"github.com/JaimeStill/intake/pkg/routes"
)

// UploadResponse acknowledges an accepted registration.
type UploadResponse struct {
	Message string `json:"message"`
	Summary
}

// Handler provides HTTP endpoints for ingestion operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, logger, pagination config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "files"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for file endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/file",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "/upload", Handler: h.Upload},
			{Method: "GET", Pattern: "/status/{fileId}", Handler: h.Status},
			{Method: "GET", Pattern: "/results/{fileId}", Handler: h.Results},
		},
	}
}

// Upload accepts a multipart form with a "file" part and an optional
// "fileId" field. It responds 201 as soon as the record is registered;
// the transfer finishes in the background.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadSize {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrValidation)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errNoFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrValidation)
		return
	}

	contentType := detectContentType(header.Header.Get("Content-Type"), data)

	cmd := RegisterCommand{
		Data:        data,
		FileName:    header.Filename,
		ContentType: contentType,
		FileID:      r.FormValue("fileId"),
		PageCount:   extractPDFPageCount(h.logger, data, contentType),
	}

	summary, err := h.sys.Register(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, UploadResponse{
		Message: "File upload requested",
		Summary: *summary,
	})
}

// Status returns the ingestion status of a file.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	view, err := h.sys.Status(r.Context(), r.PathValue("fileId"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, view)
}

// Results returns the classifier findings for a file.
func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	res, err := h.sys.Results(r.Context(), r.PathValue("fileId"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, res)
}

// List returns a page of ingestion records, optionally filtered by status.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Status is matched case-insensitively.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := strings.TrimSpace(values.Get("status")); s != "" {
		status := Status(strings.ToUpper(s))
		f.Status = &status
	}

	return f
}

var errNoFile = fmt.Errorf("%w: no file uploaded", ErrValidation)

func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}

func extractPDFPageCount(logger *slog.Logger, data []byte, contentType string) *int {
	if contentType != "application/pdf" {
		return nil
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("failed to extract PDF page count", "error", err)
		return nil
	}

	return &count
}
