package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sei/sei-backend/pkg/i18n"
)

// Standard error types
var (
	ErrNotFound      = errors.New("resource not found")
	ErrValidation    = errors.New("validation error")
	ErrDocumentParse = errors.New("document parse error")
	ErrParseTimeout  = errors.New("parse timeout")
	ErrInternal      = errors.New("internal server error")
)

// Error codes
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeDocumentParse = "DOCUMENT_PARSE_ERROR"
	CodeParseTimeout  = "PARSE_TIMEOUT"
	CodeNotFound      = "NOT_FOUND"
	CodeInternal      = "INTERNAL_ERROR"
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Cause      error             `json:"-"`
	Message    string            `json:"message"`
	MessageKey string            `json:"-"` // i18n key for localization
	Params     map[string]string `json:"-"` // Parameters for i18n interpolation
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`

	// Details is client-safe diagnostic text, e.g. the parser's complaint.
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the underlying cause
func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Localize returns a localized version of the error message
func (e *AppError) Localize(ctx context.Context) string {
	if e.MessageKey == "" {
		return e.Message
	}
	return i18n.TFromContext(ctx, e.MessageKey, e.Params)
}

// WithDetails sets client-facing details on an AppError
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewWithKey creates a new AppError with an i18n key
func NewWithKey(code string, messageKey string, statusCode int, params ...map[string]string) *AppError {
	var p map[string]string
	if len(params) > 0 {
		p = params[0]
	}
	return &AppError{
		Code:       code,
		Message:    i18n.T(messageKey, p), // Default message in English
		MessageKey: messageKey,
		Params:     p,
		StatusCode: statusCode,
	}
}

// Common error constructors

func NotFound(resourceKey string) *AppError {
	resourceName := i18n.T("resources." + resourceKey)
	return &AppError{
		Err:        ErrNotFound,
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resourceName),
		MessageKey: "errors.not_found",
		Params:     map[string]string{"resource": resourceName},
		StatusCode: http.StatusNotFound,
	}
}

// Validation builds a 400 error for a message key
func Validation(messageKey string, params ...map[string]string) *AppError {
	e := NewWithKey(CodeValidation, messageKey, http.StatusBadRequest, params...)
	e.Err = ErrValidation
	return e
}

func NoFileProvided() *AppError {
	return Validation("errors.no_file")
}

func UploadTooLarge(limit int64) *AppError {
	return Validation("errors.upload_too_large", map[string]string{"limit": formatBytes(limit)})
}

func InvalidMultipart(cause error) *AppError {
	e := Validation("errors.invalid_multipart")
	e.Cause = cause
	return e
}

func ReadUpload(cause error) *AppError {
	e := Validation("errors.read_upload")
	e.Cause = cause
	return e
}

// DocumentParse reports bytes that could not be interpreted. The cause's
// message is the parser diagnostic and is returned to the client.
func DocumentParse(cause error) *AppError {
	e := NewWithKey(CodeDocumentParse, "errors.document_parse", http.StatusInternalServerError)
	e.Err = ErrDocumentParse
	e.Cause = cause
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

func ParseTimeout(timeout time.Duration) *AppError {
	e := NewWithKey(CodeParseTimeout, "errors.parse_timeout", http.StatusInternalServerError)
	e.Err = ErrParseTimeout
	e.Details = fmt.Sprintf("extraction exceeded %s", timeout)
	return e
}

// Internal hides the cause from clients; see httputil.Error for when it is exposed.
func Internal(cause error) *AppError {
	e := NewWithKey(CodeInternal, "errors.internal", http.StatusInternalServerError)
	e.Err = ErrInternal
	e.Cause = cause
	return e
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.0f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
