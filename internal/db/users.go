package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/pitchprep/internal/types"
)

// GetUserProfile loads the profile of userID. Name, email and resume text fall
// back to the user row when the stored profile leaves them empty.
func (db *DB) GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	var name, email, resumeText string
	var raw []byte
	err := db.pool.QueryRow(ctx,
		`SELECT name, email, resume_text, profile FROM users WHERE id = $1`,
		userID,
	).Scan(&name, &email, &resumeText, &raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	return decodeProfile(raw, name, email, resumeText)
}

// SaveUserProfile creates or replaces the profile of userID.
func (db *DB) SaveUserProfile(ctx context.Context, userID uuid.UUID, p types.UserProfile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, resume_text, profile)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		     name = $2, email = $3, resume_text = $4, profile = $5, updated_at = NOW()`,
		userID, p.Name, p.Email, p.ResumeText, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to save user profile: %w", err)
	}
	return nil
}

func decodeProfile(raw []byte, name, email, resumeText string) (*types.UserProfile, error) {
	var p types.UserProfile
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to decode user profile: %w", err)
		}
	}
	if p.Name == "" {
		p.Name = name
	}
	if p.Email == "" {
		p.Email = email
	}
	if p.ResumeText == "" {
		p.ResumeText = resumeText
	}
	return &p, nil
}
