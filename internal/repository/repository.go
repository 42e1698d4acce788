// Package repository defines domain models and read-only data access interfaces
// for candidate profiles, resumes and job postings.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// UserTypeApplicant marks profiles that can be ranked as candidates.
const UserTypeApplicant = "applicant"

// CandidateProfile is one searchable person. The profile embedding is held
// by the vector index only and is never loaded here.
type CandidateProfile struct {
	ID                 uuid.UUID `json:"id"`
	FullName           string    `json:"full_name"`
	Location           string    `json:"location"`
	AvailabilityStatus string    `json:"availability_status"`
	JobTitle           string    `json:"job_title"`
	ExperienceLevel    string    `json:"experience_level"`
	Bio                string    `json:"bio"`
	Skills             []string  `json:"skills"`
	UserType           string    `json:"user_type"`
}

// Resume is an uploaded resume reduced to the fields ranking needs.
type Resume struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Summary    string // feedback summary, empty when the feedback has none
	UploadedAt time.Time
}

// Job is a job posting used to give the ranking query context.
type Job struct {
	ID             uuid.UUID `json:"id"`
	OwnerID        uuid.UUID `json:"-"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	RequiredSkills []string  `json:"required_skills,omitempty"`
	Industry       string    `json:"industry"`
	JobSeniority   string    `json:"job_seniority"`
	CreatedAt      time.Time `json:"created_at"`
}

// ProfileRepository reads candidate profiles
type ProfileRepository interface {
	// GetByIDs returns the profiles that exist for ids, in no particular order.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*CandidateProfile, error)
	// ListByType returns up to limit profiles of userType in store order.
	ListByType(ctx context.Context, userType string, limit int) ([]*CandidateProfile, error)
	// Ping checks connectivity to the backing store.
	Ping(ctx context.Context) error
}

// ResumeRepository reads resumes
type ResumeRepository interface {
	// ListByUserIDs returns every resume of the given users, newest upload first.
	ListByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]*Resume, error)
}

// JobRepository reads job postings
type JobRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Job, error)
	// ListRecentByOwner returns the owner's newest jobs first.
	ListRecentByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*Job, error)
}
