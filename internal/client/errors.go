package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bissquit/powerbill/internal/domain"
)

// ErrNoSession is returned before a protected call when the local credential
// is missing or stale. No request is sent.
var ErrNoSession = fmt.Errorf("not logged in or session expired: %w", domain.ErrUnauthorized)

// FieldViolation is one rejected request field reported by the server.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-2xx response from the billing API.
type APIError struct {
	Status  int
	Message string
	Fields  []FieldViolation
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	msg := fmt.Sprintf("api error %d: %s:", e.Status, e.Message)
	for _, f := range e.Fields {
		msg += fmt.Sprintf(" %s (%s)", f.Field, f.Message)
	}
	return msg
}

// Unwrap maps the status onto the shared error taxonomy.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return domain.ErrInvalidInput
	}
	return nil
}

// IsUnauthorized reports whether err means the caller must log in again.
func IsUnauthorized(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized)
}
