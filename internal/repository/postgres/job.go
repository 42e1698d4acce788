package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/knoguchi/talentrank/internal/repository"
)

// JobRepo implements repository.JobRepository
type JobRepo struct {
	db *DB
}

// NewJobRepo creates a new job repository
func NewJobRepo(db *DB) *JobRepo {
	return &JobRepo{db: db}
}

// GetByID retrieves a job by ID
func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*repository.Job, error) {
	query := `
		SELECT id, user_id, COALESCE(title, ''), COALESCE(description, ''),
		       COALESCE(required_skills, '{}'), COALESCE(industry, ''),
		       COALESCE(job_seniority, ''), created_at
		FROM jobs
		WHERE id = $1
	`
	var job repository.Job
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.OwnerID, &job.Title, &job.Description,
		&job.RequiredSkills, &job.Industry, &job.JobSeniority, &job.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// ListRecentByOwner retrieves the newest jobs posted by a recruiter
func (r *JobRepo) ListRecentByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*repository.Job, error) {
	query := `
		SELECT id, user_id, COALESCE(title, ''), COALESCE(industry, ''),
		       COALESCE(job_seniority, ''), created_at
		FROM jobs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Pool.Query(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*repository.Job, 0, limit)
	for rows.Next() {
		var job repository.Job
		if err := rows.Scan(&job.ID, &job.OwnerID, &job.Title, &job.Industry,
			&job.JobSeniority, &job.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, &job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return jobs, nil
}

// Ensure JobRepo implements the interface
var _ repository.JobRepository = (*JobRepo)(nil)
