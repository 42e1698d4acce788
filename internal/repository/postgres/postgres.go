// Package postgres implements the repository interfaces on PostgreSQL via pgx.
//
// Expected tables (owned by the main application, read-only here):
//
//	user_profiles(id uuid, full_name, location, availability_status, job_title,
//	              experience_level, bio text, skills text[], user_type text,
//	              embedding vector)
//	resumes(id uuid, user_id uuid, feedback jsonb, uploaded_at timestamptz)
//	jobs(id uuid, user_id uuid, title, description, industry, job_seniority text,
//	     required_skills text[], created_at timestamptz)
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new PostgreSQL connection pool
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	db.Pool.Close()
}

// uuidStrings converts ids for use with a `$n::uuid[]` parameter.
func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
