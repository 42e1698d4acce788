package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// SuggestedPrompts are example searches offered to recruiters.
var SuggestedPrompts = []string{
	"Find full-stack developers with React and Node.js experience",
	"Senior data scientists with Python and machine learning background",
	"Marketing professionals with digital marketing expertise",
	"UX/UI designers with e-commerce and mobile app experience",
}

// JobSuggestion is a recent job the recruiter can scope a search to.
type JobSuggestion struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Industry     string    `json:"industry"`
	JobSeniority string    `json:"job_seniority"`
}

// Suggestions is the payload for starting a new search.
type Suggestions struct {
	RecentJobs       []JobSuggestion `json:"recentJobs"`
	SuggestedPrompts []string        `json:"suggestedPrompts"`
}

// Suggestions returns the owner's most recent jobs and the example prompts.
// A nil owner, as for service callers, gets prompts only.
func (s *RankingService) Suggestions(ctx context.Context, ownerID uuid.UUID) (*Suggestions, error) {
	out := &Suggestions{
		RecentJobs:       []JobSuggestion{},
		SuggestedPrompts: append([]string(nil), SuggestedPrompts...),
	}
	if ownerID == uuid.Nil || s.jobs == nil {
		return out, nil
	}

	jobs, err := s.jobs.ListRecentByOwner(ctx, ownerID, s.suggestedJobs)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent jobs: %w", err)
	}

	for _, j := range jobs {
		out.RecentJobs = append(out.RecentJobs, JobSuggestion{
			ID:           j.ID,
			Title:        j.Title,
			Industry:     j.Industry,
			JobSeniority: j.JobSeniority,
		})
	}
	return out, nil
}
