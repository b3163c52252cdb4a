package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sei/sei-backend/internal/docextract/domain"
	"github.com/sei/sei-backend/internal/docextract/service"
	apperrors "github.com/sei/sei-backend/pkg/errors"
	"github.com/sei/sei-backend/pkg/httputil"
	"github.com/sei/sei-backend/pkg/logger"
	"github.com/sei/sei-backend/pkg/messaging"
)

const fileField = "file"

// multipart overhead allowed on top of the file size limit
const formOverhead = 64 << 10

// Handler handles HTTP requests for document field extraction
type Handler struct {
	service        *service.Service
	log            *logger.Logger
	maxUploadBytes int64
	exposeDetails  bool
}

// NewHandler creates a new document extraction handler
func NewHandler(svc *service.Service, maxUploadBytes int64, exposeDetails bool, log *logger.Logger) *Handler {
	return &Handler{
		service:        svc,
		log:            log,
		maxUploadBytes: maxUploadBytes,
		exposeDetails:  exposeDetails,
	}
}

// Routes mounts the document routes on r
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/v1/documents", func(r chi.Router) {
		r.Get("/formats", h.Formats)
		r.Post("/extract", h.Extract)
		r.Post("/extract/jobs", h.StartJob)
		r.Get("/extract/jobs/{jobId}", h.GetJob)
	})

	// Path used by existing clients
	r.Post("/process-pdf", h.Extract)
}

// Extract handles POST /documents/extract
// Accepts a multipart form with the document in the "file" part and responds
// with every configured field, empty when not found.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	doc, err := h.readUpload(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ext, err := h.service.Extract(requestContext(r), doc)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ext.Fields)
}

// StartJob handles POST /documents/extract/jobs
// Same input as Extract; returns 202 with a job to poll.
func (h *Handler) StartJob(w http.ResponseWriter, r *http.Request) {
	doc, err := h.readUpload(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	job := h.service.StartExtraction(requestContext(r), doc)
	httputil.Accepted(w, job)
}

// GetJob handles GET /documents/extract/jobs/{jobId}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.service.GetJob(chi.URLParam(r, "jobId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, job)
}

// Formats handles GET /documents/formats
func (h *Handler) Formats(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.service.Formats())
}

// readUpload reads the "file" part into memory. Uploads never touch disk.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*domain.UploadedDocument, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+formOverhead)

	if err := r.ParseMultipartForm(h.maxUploadBytes + formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, apperrors.UploadTooLarge(h.maxUploadBytes)
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			return nil, apperrors.NoFileProvided()
		default:
			return nil, apperrors.InvalidMultipart(err)
		}
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(fileField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, apperrors.NoFileProvided()
		}
		return nil, apperrors.InvalidMultipart(err)
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		return nil, apperrors.UploadTooLarge(h.maxUploadBytes)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.ReadUpload(err)
	}

	doc := &domain.UploadedDocument{
		Filename:  header.Filename,
		MediaType: header.Header.Get("Content-Type"),
		Data:      data,
	}

	h.log.WithRequestID(httputil.GetRequestID(r.Context())).Info().
		Str("filename", doc.Filename).
		Int("size", doc.Size()).
		Str("media_type", doc.MediaType).
		Msg("document received")

	return doc, nil
}

// requestContext tags audit events with the request ID
func requestContext(r *http.Request) context.Context {
	return messaging.WithCorrelationID(r.Context(), httputil.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.StatusCode < http.StatusInternalServerError {
		h.log.WithRequestID(httputil.GetRequestID(r.Context())).Debug().
			Str("code", appErr.Code).
			Msg("request rejected")
	}
	httputil.Error(w, r, err, h.exposeDetails)
}
