package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrValidation          = errors.New("validation failed")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrConversationClosed  = errors.New("conversation is closed")
	ErrMalformedRecord     = errors.New("malformed record")
)

// ValidationError reports a rejected input field. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// BulkError is returned when some targets of a bulk mutation failed.
// Updates already applied are not rolled back.
type BulkError struct {
	Updated int
	Failed  map[string]error
}

func (e *BulkError) Error() string {
	ids := e.FailedIDs()
	return fmt.Sprintf("bulk update: %d updated, %d failed (%s)", e.Updated, len(ids), strings.Join(ids, ", "))
}

// FailedIDs returns the failed ids in a stable order.
func (e *BulkError) FailedIDs() []string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// UpstreamError wraps a failure of an external collaborator. It matches
// ErrUpstreamUnavailable.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}
