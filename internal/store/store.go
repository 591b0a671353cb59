// Package store defines the persistence contracts for employer contexts and pitch
// records and provides in-memory and Redis implementations.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jonathan/pitchprep/internal/types"
)

// ErrEmptyKey is returned when a record or context key is blank.
var ErrEmptyKey = errors.New("empty key")

// EmployerContextStore caches researched employer contexts keyed by normalized
// company name. Put replaces any existing entry wholesale.
type EmployerContextStore interface {
	// Get returns nil, nil when no entry exists.
	Get(ctx context.Context, normalizedName string) (*types.EmployerContext, error)
	Put(ctx context.Context, c types.EmployerContext) error
}

// PitchRecordStore owns the lifecycle of persisted pitch records. One record
// exists per (user, company key); Upsert overwrites it in place, preserving
// CreatedAt and strictly increasing UpdatedAt.
//
// An Upsert with an id key adopts a prior record stored under the normalized
// company name for the same user, so a company researched ad hoc and later added
// to the roster keeps a single record.
type PitchRecordStore interface {
	Upsert(ctx context.Context, userID uuid.UUID, key types.CompanyKey, in types.RecordInput) (types.PitchRecord, error)
	// Get returns nil, nil when no record exists.
	Get(ctx context.Context, userID uuid.UUID, key types.CompanyKey) (*types.PitchRecord, error)
	List(ctx context.Context, userID uuid.UUID) ([]types.PitchRecord, error)
	// ClearAll removes every record of the user and reports how many were removed.
	ClearAll(ctx context.Context, userID uuid.UUID) (int64, error)
}
