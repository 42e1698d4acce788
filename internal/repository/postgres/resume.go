package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/knoguchi/talentrank/internal/repository"
)

// ResumeRepo implements repository.ResumeRepository
type ResumeRepo struct {
	db *DB
}

// NewResumeRepo creates a new resume repository
func NewResumeRepo(db *DB) *ResumeRepo {
	return &ResumeRepo{db: db}
}

// ListByUserIDs retrieves all resumes of the given users, most recent upload first.
// Resumes sharing an upload time are returned by id so the order is stable.
func (r *ResumeRepo) ListByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]*repository.Resume, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, user_id, COALESCE(feedback->>'summary', ''), uploaded_at
		FROM resumes
		WHERE user_id = ANY($1::uuid[])
		ORDER BY uploaded_at DESC, id
	`
	rows, err := r.db.Pool.Query(ctx, query, uuidStrings(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	var resumes []*repository.Resume
	for rows.Next() {
		var resume repository.Resume
		if err := rows.Scan(&resume.ID, &resume.UserID, &resume.Summary, &resume.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		resumes = append(resumes, &resume)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return resumes, nil
}

// Ensure ResumeRepo implements the interface
var _ repository.ResumeRepository = (*ResumeRepo)(nil)
