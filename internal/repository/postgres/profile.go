package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/knoguchi/talentrank/internal/repository"
)

const profileColumns = `
	id,
	COALESCE(full_name, ''),
	COALESCE(location, ''),
	COALESCE(availability_status, ''),
	COALESCE(job_title, ''),
	COALESCE(experience_level, ''),
	COALESCE(bio, ''),
	COALESCE(skills, '{}'),
	COALESCE(user_type, '')
`

// ProfileRepo implements repository.ProfileRepository
type ProfileRepo struct {
	db *DB
}

// NewProfileRepo creates a new profile repository
func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// GetByIDs retrieves the profiles for a set of ids with a single query
func (r *ProfileRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*repository.CandidateProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE id = ANY($1::uuid[])`
	rows, err := r.db.Pool.Query(ctx, query, uuidStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}
	return scanProfiles(rows)
}

// ListByType retrieves up to limit profiles of a user type. No ORDER BY is
// applied; rows come back in whatever order the table yields them.
func (r *ProfileRepo) ListByType(ctx context.Context, userType string, limit int) ([]*repository.CandidateProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE user_type = $1 LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, query, userType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return scanProfiles(rows)
}

// Ping verifies the database is reachable
func (r *ProfileRepo) Ping(ctx context.Context) error {
	return r.db.Pool.Ping(ctx)
}

func scanProfiles(rows pgx.Rows) ([]*repository.CandidateProfile, error) {
	defer rows.Close()

	var profiles []*repository.CandidateProfile
	for rows.Next() {
		var p repository.CandidateProfile
		if err := rows.Scan(&p.ID, &p.FullName, &p.Location, &p.AvailabilityStatus,
			&p.JobTitle, &p.ExperienceLevel, &p.Bio, &p.Skills, &p.UserType); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return profiles, nil
}

// Ensure ProfileRepo implements the interface
var _ repository.ProfileRepository = (*ProfileRepo)(nil)
