package timeee_client

import (
	"errors"
	"fmt"
)

// ErrSaveInProgress is returned when a save is attempted while another one
// has not finished yet.
var ErrSaveInProgress = errors.New("session save already in progress")

// ValidationError reports a session that was rejected locally and never sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// BackendUnavailableError reports a transport or service failure while saving.
// The session is discarded; nothing is retried.
type BackendUnavailableError struct {
	Err error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("backend unavailable: %v", e.Err)
}

func (e *BackendUnavailableError) Unwrap() error {
	return e.Err
}
