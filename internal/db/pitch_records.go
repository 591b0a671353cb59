package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/pitchprep/internal/store"
	"github.com/jonathan/pitchprep/internal/types"
)

// PitchRecords is the Postgres store.PitchRecordStore.
type PitchRecords struct {
	db *DB
}

var _ store.PitchRecordStore = (*PitchRecords)(nil)

// PitchRecords returns the pitch record store backed by db.
func (db *DB) PitchRecords() *PitchRecords {
	return &PitchRecords{db: db}
}

const recordColumns = `user_id, key_kind, key_value, company_name, company_id, match_score,
	score_breakdown, match_reasoning, career_fair_card, created_at, updated_at`

// Upsert implements store.PitchRecordStore. The adoption of a name-keyed record
// and the write happen in one transaction.
func (s *PitchRecords) Upsert(ctx context.Context, userID uuid.UUID, key types.CompanyKey, in types.RecordInput) (types.PitchRecord, error) {
	if key.IsZero() {
		return types.PitchRecord{}, store.ErrEmptyKey
	}
	breakdown, err := json.Marshal(in.ScoreBreakdown)
	if err != nil {
		return types.PitchRecord{}, fmt.Errorf("failed to marshal score breakdown: %w", err)
	}
	card, err := json.Marshal(in.Artifact)
	if err != nil {
		return types.PitchRecord{}, fmt.Errorf("failed to marshal career fair card: %w", err)
	}

	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return types.PitchRecord{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if key.IsID() {
		nameKey := types.CompanyKeyByName(in.CompanyName)
		if !nameKey.IsZero() {
			_, err = tx.Exec(ctx,
				`UPDATE pitch_records SET key_kind = $3, key_value = $4
				 WHERE user_id = $1 AND key_kind = $5 AND key_value = $2
				   AND NOT EXISTS (
				       SELECT 1 FROM pitch_records
				       WHERE user_id = $1 AND key_kind = $3 AND key_value = $4)`,
				userID, nameKey.Value, string(types.CompanyKeyID), key.Value, string(types.CompanyKeyName),
			)
			if err != nil {
				return types.PitchRecord{}, fmt.Errorf("failed to adopt name keyed record: %w", err)
			}
		}
	}

	rec := types.PitchRecord{UserID: userID, CompanyKey: key, RecordInput: in}
	err = tx.QueryRow(ctx,
		`INSERT INTO pitch_records (user_id, key_kind, key_value, company_name, company_id, match_score,
		                            score_breakdown, match_reasoning, career_fair_card)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (user_id, key_kind, key_value) DO UPDATE SET
		     company_name = EXCLUDED.company_name,
		     company_id = EXCLUDED.company_id,
		     match_score = EXCLUDED.match_score,
		     score_breakdown = EXCLUDED.score_breakdown,
		     match_reasoning = EXCLUDED.match_reasoning,
		     career_fair_card = EXCLUDED.career_fair_card,
		     updated_at = GREATEST(clock_timestamp(), pitch_records.updated_at + INTERVAL '1 microsecond')
		 RETURNING created_at, updated_at`,
		userID, string(key.Kind), key.Value, in.CompanyName, nullIfEmpty(in.CompanyID), in.MatchScore,
		breakdown, in.MatchReasoning, card,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return types.PitchRecord{}, fmt.Errorf("failed to upsert pitch record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return types.PitchRecord{}, fmt.Errorf("failed to commit pitch record: %w", err)
	}
	return rec, nil
}

// Get implements store.PitchRecordStore.
func (s *PitchRecords) Get(ctx context.Context, userID uuid.UUID, key types.CompanyKey) (*types.PitchRecord, error) {
	rec, err := scanRecord(s.db.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM pitch_records
		 WHERE user_id = $1 AND key_kind = $2 AND key_value = $3`,
		userID, string(key.Kind), key.Value,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pitch record: %w", err)
	}
	return rec, nil
}

// List implements store.PitchRecordStore, most recently updated first.
func (s *PitchRecords) List(ctx context.Context, userID uuid.UUID) ([]types.PitchRecord, error) {
	rows, err := s.db.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM pitch_records
		 WHERE user_id = $1
		 ORDER BY updated_at DESC, key_kind, key_value`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pitch records: %w", err)
	}
	defer rows.Close()

	out := []types.PitchRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pitch record: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list pitch records: %w", err)
	}
	return out, nil
}

// ClearAll implements store.PitchRecordStore.
func (s *PitchRecords) ClearAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := s.db.pool.Exec(ctx, `DELETE FROM pitch_records WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear pitch records: %w", err)
	}
	return result.RowsAffected(), nil
}

func scanRecord(row pgx.Row) (*types.PitchRecord, error) {
	var rec types.PitchRecord
	var kind string
	var companyID *string
	var breakdown, card []byte
	err := row.Scan(&rec.UserID, &kind, &rec.CompanyKey.Value, &rec.CompanyName, &companyID, &rec.MatchScore,
		&breakdown, &rec.MatchReasoning, &card, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.CompanyKey.Kind = types.CompanyKeyKind(kind)
	rec.CompanyID = derefString(companyID)
	if err := decodeRecordJSON(breakdown, card, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func decodeRecordJSON(breakdown, card []byte, rec *types.PitchRecord) error {
	if err := json.Unmarshal(breakdown, &rec.ScoreBreakdown); err != nil {
		return fmt.Errorf("failed to decode score breakdown: %w", err)
	}
	if err := json.Unmarshal(card, &rec.Artifact); err != nil {
		return fmt.Errorf("failed to decode career fair card: %w", err)
	}
	return nil
}
