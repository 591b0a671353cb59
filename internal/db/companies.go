package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/pitchprep/internal/types"
)

const companyColumns = `id, name, location, hiring_now, job_description, top_roles, category, generated`

// GetRosterCompany retrieves a roster company by id.
func (db *DB) GetRosterCompany(ctx context.Context, id string) (*types.RosterCompany, error) {
	c, err := scanCompany(db.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`,
		strings.TrimSpace(id),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return c, nil
}

// FindRosterCompanyByName retrieves a roster company by normalized name.
func (db *DB) FindRosterCompanyByName(ctx context.Context, name string) (*types.RosterCompany, error) {
	c, err := scanCompany(db.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE name_normalized = $1
		 ORDER BY created_at LIMIT 1`,
		types.NormalizeCompanyName(name),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find company: %w", err)
	}
	return c, nil
}

// ListEventCompanies returns the companies attending eventID in roster order.
func (db *DB) ListEventCompanies(ctx context.Context, eventID string) ([]types.RosterCompany, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT c.id, c.name, c.location, c.hiring_now, c.job_description, c.top_roles, c.category, c.generated
		 FROM event_companies ec
		 JOIN companies c ON c.id = ec.company_id
		 WHERE ec.event_id = $1
		 ORDER BY ec.position, c.name`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list event companies: %w", err)
	}
	defer rows.Close()

	var out []types.RosterCompany
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list event companies: %w", err)
	}
	return out, nil
}

// ListCompanyNames returns the names of every roster company.
func (db *DB) ListCompanyNames(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx, `SELECT name FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan company name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// MarkCompanyGenerated flags a roster company as having a generated pitch.
func (db *DB) MarkCompanyGenerated(ctx context.Context, id string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE companies SET generated = TRUE, updated_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark company generated: %w", err)
	}
	return nil
}

// UpsertRosterCompany creates or replaces a roster company.
func (db *DB) UpsertRosterCompany(ctx context.Context, c types.RosterCompany) error {
	if strings.TrimSpace(c.ID) == "" || strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("company id and name are required")
	}
	roles, err := json.Marshal(nonNil(c.TopRoles))
	if err != nil {
		return fmt.Errorf("failed to marshal top roles: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO companies (id, name, name_normalized, location, hiring_now, job_description, top_roles, category)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		     name = $2, name_normalized = $3, location = $4, hiring_now = $5,
		     job_description = $6, top_roles = $7, category = $8, updated_at = NOW()`,
		c.ID, c.Name, types.NormalizeCompanyName(c.Name), c.Location, c.HiringNow,
		c.JobDescription, roles, c.Category,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert company: %w", err)
	}
	return nil
}

// UpsertEvent creates an event or renames it.
func (db *DB) UpsertEvent(ctx context.Context, id, name string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO events (id, name) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET name = $2`,
		id, name,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert event: %w", err)
	}
	return nil
}

// AddEventCompany places a company on an event roster.
func (db *DB) AddEventCompany(ctx context.Context, eventID, companyID string, position int) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO event_companies (event_id, company_id, position) VALUES ($1, $2, $3)
		 ON CONFLICT (event_id, company_id) DO UPDATE SET position = $3`,
		eventID, companyID, position,
	)
	if err != nil {
		return fmt.Errorf("failed to add event company: %w", err)
	}
	return nil
}

func scanCompany(row pgx.Row) (*types.RosterCompany, error) {
	var c types.RosterCompany
	var roles []byte
	if err := row.Scan(&c.ID, &c.Name, &c.Location, &c.HiringNow, &c.JobDescription, &roles, &c.Category, &c.Generated); err != nil {
		return nil, err
	}
	if len(roles) > 0 {
		if err := json.Unmarshal(roles, &c.TopRoles); err != nil {
			return nil, fmt.Errorf("failed to decode top roles: %w", err)
		}
	}
	return &c, nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
