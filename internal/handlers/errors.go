package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"carenest/internal/apperr"
)

// response is the envelope of every JSON body
type response struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    any                 `json:"data,omitempty"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondWithData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, response{Success: true, Message: message, Data: data})
}

func respondWithMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Success: status < http.StatusBadRequest, Message: message})
}

// statusFor maps an error kind onto an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError writes err as a JSON failure. Server errors are logged and
// their details are never sent to the client.
func respondWithError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", w.Header().Get(requestIDHeader)),
			zap.Error(err))
		writeJSON(w, status, response{Message: ErrInternalServerError})
		return
	}

	writeJSON(w, status, response{
		Message: apperr.Message(err, http.StatusText(status)),
		Errors:  apperr.Fields(err),
	})
}
