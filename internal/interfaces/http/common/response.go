package common

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/landlink-ke/land-market/api/internal/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string            `json:"error"`
	Field     string            `json:"field,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
	Updated   *int              `json:"updated,omitempty"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// WriteJSON serializes payload to JSON with status and logs on failure.
func WriteJSON(logger *log.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Printf("JSON encode failed: %v", err)
	}
}

// WriteMessage writes a plain error message with status.
func WriteMessage(logger *log.Logger, w http.ResponseWriter, status int, message string) {
	WriteJSON(logger, w, status, ErrorResponse{Error: message})
}

// WriteError maps an application error to its HTTP status. Unclassified
// errors are logged with op and answered with a generic 500.
func WriteError(logger *log.Logger, w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		validation *domain.ValidationError
		bulk       *domain.BulkError
	)
	switch {
	case errors.As(err, &bulk):
		failed := make(map[string]string, len(bulk.Failed))
		for id, ferr := range bulk.Failed {
			failed[id] = ferr.Error()
		}
		updated := bulk.Updated
		WriteJSON(logger, w, http.StatusMultiStatus, ErrorResponse{Error: "some listings were not updated", Updated: &updated, Failed: failed})
	case errors.As(err, &validation):
		WriteJSON(logger, w, http.StatusBadRequest, ErrorResponse{Error: validation.Message, Field: validation.Field})
	case errors.Is(err, domain.ErrValidation):
		WriteMessage(logger, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		WriteMessage(logger, w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrPermissionDenied):
		if PrincipalFromContext(r.Context()).IsAnonymous() {
			WriteMessage(logger, w, http.StatusUnauthorized, "authentication required")
			return
		}
		WriteMessage(logger, w, http.StatusForbidden, "permission denied")
	case errors.Is(err, domain.ErrConversationClosed):
		WriteMessage(logger, w, http.StatusConflict, "conversation is closed")
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		if logger != nil {
			logger.Printf("%s upstream failure: %v", op, err)
		}
		WriteJSON(logger, w, http.StatusServiceUnavailable, ErrorResponse{Error: "assistant is unavailable, try again", Retryable: true})
	default:
		if logger != nil {
			logger.Printf("%s failed: %v", op, err)
		}
		WriteMessage(logger, w, http.StatusInternalServerError, "internal error")
	}
}

// DecodeJSON reads a size-limited JSON body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxRequestBody))
	if err := dec.Decode(dst); err != nil {
		return domain.NewValidationError("", "invalid request body")
	}
	return nil
}
