package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/pitchprep/internal/store"
	"github.com/jonathan/pitchprep/internal/types"
)

// ContextStore is the Postgres store.EmployerContextStore.
type ContextStore struct {
	db *DB
}

var _ store.EmployerContextStore = (*ContextStore)(nil)

// ContextStore returns the employer context store backed by db.
func (db *DB) ContextStore() *ContextStore {
	return &ContextStore{db: db}
}

// Get implements store.EmployerContextStore.
func (s *ContextStore) Get(ctx context.Context, normalizedName string) (*types.EmployerContext, error) {
	var raw []byte
	err := s.db.pool.QueryRow(ctx,
		`SELECT context FROM employer_contexts WHERE name_normalized = $1`,
		types.NormalizeCompanyName(normalizedName),
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employer context: %w", err)
	}
	var c types.EmployerContext
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to decode employer context: %w", err)
	}
	return &c, nil
}

// Put implements store.EmployerContextStore.
func (s *ContextStore) Put(ctx context.Context, c types.EmployerContext) error {
	key := types.NormalizeCompanyName(c.CompanyName)
	if key == "" {
		return store.ErrEmptyKey
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal employer context: %w", err)
	}
	_, err = s.db.pool.Exec(ctx,
		`INSERT INTO employer_contexts (name_normalized, company_name, context, fetched_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name_normalized) DO UPDATE SET
		     company_name = $2, context = $3, fetched_at = $4, updated_at = NOW()`,
		key, c.CompanyName, raw, c.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save employer context: %w", err)
	}
	return nil
}
