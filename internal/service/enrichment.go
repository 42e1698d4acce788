package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/knoguchi/talentrank/internal/repository"
)

// SummaryMap maps a candidate id to the summary of their latest resume.
// Candidates without a resume are absent.
type SummaryMap map[uuid.UUID]string

// Enrich loads resume summaries for candidates. A failed fetch is logged and
// yields an empty map.
func (s *RankingService) Enrich(ctx context.Context, candidates []*repository.CandidateProfile) SummaryMap {
	ctx, span := s.tracer.Start(ctx, "ranking.enrich")
	defer span.End()

	if len(candidates) == 0 {
		return SummaryMap{}
	}

	ids := make([]uuid.UUID, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}

	resumes, err := s.resumes.ListByUserIDs(ctx, ids)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("resume fetch failed, ranking without summaries", "error", err)
		return SummaryMap{}
	}

	return summarize(resumes)
}

// summarize keeps one summary per user, from the most recently uploaded
// resume. Among equal upload times the first one seen wins.
func summarize(resumes []*repository.Resume) SummaryMap {
	summaries := make(SummaryMap, len(resumes))
	latest := make(map[uuid.UUID]*repository.Resume, len(resumes))

	for _, r := range resumes {
		if r == nil {
			continue
		}
		if cur, ok := latest[r.UserID]; ok && !r.UploadedAt.After(cur.UploadedAt) {
			continue
		}
		latest[r.UserID] = r
		summaries[r.UserID] = r.Summary
	}

	return summaries
}
