package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/sei/sei-backend/pkg/errors"
)

// Response is a standard API response. Exactly one of Data or Error is set.
type Response struct {
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details string      `json:"details,omitempty"`
}

// ErrorCodeHeader carries the machine-readable error code alongside the body
const ErrorCodeHeader = "X-Error-Code"

// WriteJSON sends v as the JSON body without the response envelope
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(v)
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	WriteJSON(w, statusCode, Response{Data: data})
}

// Accepted sends a 202 Accepted response
func Accepted(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusAccepted, data)
}

// Error sends a localized error response using the request context.
// Causes of internal errors are only written to details when exposeInternal is set.
func Error(w http.ResponseWriter, r *http.Request, err error, exposeInternal bool) {
	var appErr *errors.AppError
	if !errors.As(err, &appErr) {
		appErr = errors.Internal(err)
	}

	response := Response{
		Error:   appErr.Localize(r.Context()),
		Details: appErr.Details,
	}

	if response.Details == "" && exposeInternal && appErr.Code == errors.CodeInternal && appErr.Cause != nil {
		response.Details = appErr.Cause.Error()
	}

	w.Header().Set(ErrorCodeHeader, appErr.Code)
	WriteJSON(w, appErr.StatusCode, response)
}

