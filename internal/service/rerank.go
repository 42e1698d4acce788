package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/knoguchi/talentrank/internal/repository"
	"github.com/knoguchi/talentrank/internal/reranker"
	"go.opentelemetry.io/otel/attribute"
)

// RerankMethod tags how the final ordering was produced.
type RerankMethod string

const (
	MethodRerank           RerankMethod = "rerank"
	MethodFallbackNoRerank RerankMethod = "fallback_no_rerank"
)

// Placeholders used when a profile field is empty.
const (
	notAvailable    = "N/A"
	noResumeSummary = "No resume summary available."
)

var errRerankerDisabled = errors.New("reranker not configured")

// RankedCandidate is one entry of the ranking response.
type RankedCandidate struct {
	ID             uuid.UUID                    `json:"id"`
	Profile        *repository.CandidateProfile `json:"profile"`
	Summary        string                       `json:"summary"`
	Skills         []string                     `json:"skills"`
	RelevanceScore float64                      `json:"relevanceScore"`

	// Synthetic marks a placeholder score that only preserves display order.
	Synthetic bool `json:"synthetic,omitempty"`
}

// Rerank orders candidates by reranker relevance, dropping results below the
// minimum score. When the reranker call fails, the first candidates of the
// pool are returned unfiltered with synthetic descending scores.
func (s *RankingService) Rerank(
	ctx context.Context,
	candidates []*repository.CandidateProfile,
	summaries SummaryMap,
	query string,
) ([]RankedCandidate, RerankMethod) {
	ctx, span := s.tracer.Start(ctx, "ranking.rerank")
	defer span.End()

	documents := make([]string, len(candidates))
	for i, c := range candidates {
		documents[i] = compositeDocument(c, summaries[c.ID])
	}

	results, err := s.callReranker(ctx, query, documents)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("method", string(MethodFallbackNoRerank)))
		s.logger.Warn("reranking failed, using retrieval order", "error", err)
		return s.fallbackRanking(candidates, summaries), MethodFallbackNoRerank
	}

	ranked := make([]RankedCandidate, 0, len(results))
	used := make([]bool, len(candidates))
	for _, r := range results {
		if math.IsNaN(r.RelevanceScore) || r.RelevanceScore < s.minRelevanceScore {
			continue
		}
		if r.Index < 0 || r.Index >= len(candidates) || used[r.Index] {
			continue
		}
		used[r.Index] = true
		ranked = append(ranked, newRankedCandidate(candidates[r.Index], summaries, r.RelevanceScore, false))
	}

	span.SetAttributes(
		attribute.String("method", string(MethodRerank)),
		attribute.Int("results", len(results)),
		attribute.Int("ranked", len(ranked)),
	)
	return ranked, MethodRerank
}

func (s *RankingService) callReranker(ctx context.Context, query string, documents []string) ([]reranker.Result, error) {
	if s.reranker == nil {
		return nil, errRerankerDisabled
	}

	rerankCtx, cancel := context.WithTimeout(ctx, s.rerankTimeout)
	defer cancel()

	results, err := s.reranker.Rerank(rerankCtx, query, documents)
	if err != nil {
		return nil, fmt.Errorf("rerank with %s: %w", s.reranker.ModelName(), err)
	}
	return results, nil
}

// fallbackRanking keeps pool order and assigns 0.50, 0.49, 0.48 and so on.
func (s *RankingService) fallbackRanking(candidates []*repository.CandidateProfile, summaries SummaryMap) []RankedCandidate {
	n := min(s.fallbackLimit, len(candidates))
	ranked := make([]RankedCandidate, n)
	for i := range n {
		ranked[i] = newRankedCandidate(candidates[i], summaries, syntheticScore(i), true)
	}
	return ranked
}

// syntheticScore is computed in hundredths so consecutive scores differ by
// exactly 0.01.
func syntheticScore(position int) float64 {
	return float64(50-position) / 100
}

func newRankedCandidate(c *repository.CandidateProfile, summaries SummaryMap, score float64, synthetic bool) RankedCandidate {
	skills := c.Skills
	if skills == nil {
		skills = []string{}
	}
	return RankedCandidate{
		ID:             c.ID,
		Profile:        c,
		Summary:        firstNonEmpty(summaries[c.ID], c.Bio),
		Skills:         skills,
		RelevanceScore: score,
		Synthetic:      synthetic,
	}
}

// compositeDocument renders a candidate as reranker input.
func compositeDocument(c *repository.CandidateProfile, summary string) string {
	skills := notAvailable
	if len(c.Skills) > 0 {
		skills = strings.Join(c.Skills, ", ")
	}

	lines := []string{
		"Name: " + c.FullName,
		"Location: " + firstNonEmpty(c.Location, notAvailable),
		"Availability: " + firstNonEmpty(c.AvailabilityStatus, notAvailable),
		"Title: " + firstNonEmpty(c.JobTitle, notAvailable),
		"Experience Level: " + firstNonEmpty(c.ExperienceLevel, notAvailable),
		"Bio: " + c.Bio,
		"Skills: " + skills,
		"Resume Summary: " + firstNonEmpty(summary, noResumeSummary),
	}
	return strings.Join(lines, "\n")
}

// firstNonEmpty returns the first value that is not empty, or "".
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
