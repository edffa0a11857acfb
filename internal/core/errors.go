package core

import (
	"errors"

	"github.com/pminternship/alloc-admin/internal/api"
)

// ErrBusy is returned when a workflow is started while another is in flight.
var ErrBusy = errors.New("another operation is in progress")

// ValidationError is a local input problem detected before any remote call.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field, message string, cause error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: cause}
}

// Message normalizes any workflow error to the single line shown to the operator.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	if errors.Is(err, ErrBusy) {
		return "Another operation is in progress"
	}
	var re *api.RemoteError
	if errors.As(err, &re) {
		return re.Error()
	}
	return err.Error()
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
