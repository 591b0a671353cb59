package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/pitchprep/internal/pitch"
)

// Error kinds surfaced to callers.
const (
	KindProfileIncomplete = "profile_incomplete"
	KindGenerationFailed  = "generation_failed"
	KindPersistenceFailed = "persistence_failed"
	KindInvalidRequest    = "invalid_request"
	KindInternal          = "internal"
)

var (
	// ErrProfileIncomplete is the sentinel wrapped by ProfileIncompleteError.
	ErrProfileIncomplete = errors.New("profile incomplete")
	// ErrInvalidRequest marks requests that cannot name a company.
	ErrInvalidRequest = errors.New("invalid request")
)

// ProfileIncompleteError is returned before any external call when the profile
// is missing or lacks the minimum fields.
type ProfileIncompleteError struct {
	UserID  uuid.UUID
	Missing []string
}

func (e *ProfileIncompleteError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("profile not found for user %s", e.UserID)
	}
	return fmt.Sprintf("profile incomplete for user %s: missing %s", e.UserID, strings.Join(e.Missing, ", "))
}

func (e *ProfileIncompleteError) Unwrap() error {
	return ErrProfileIncomplete
}

// PersistenceError reports a failed upsert. The computed result is still
// returned alongside it with Persisted set to false.
type PersistenceError struct {
	Company string
	Cause   error
}

func (e *PersistenceError) Error() string {
	if e.Company == "" {
		return fmt.Sprintf("persistence failed: %v", e.Cause)
	}
	return fmt.Sprintf("persisting pitch for %q failed: %v", e.Company, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// Kind maps err to the category shown to users.
func Kind(err error) string {
	var profileErr *ProfileIncompleteError
	var genErr *pitch.GenerationSchemaError
	var persistErr *PersistenceError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &profileErr):
		return KindProfileIncomplete
	case errors.As(err, &genErr):
		return KindGenerationFailed
	case errors.As(err, &persistErr):
		return KindPersistenceFailed
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	default:
		return KindInternal
	}
}
