package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/knoguchi/talentrank/internal/repository"
	"github.com/knoguchi/talentrank/internal/reranker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeDocument(t *testing.T) {
	full := &repository.CandidateProfile{
		FullName:           "Ada Lovelace",
		Location:           "London",
		AvailabilityStatus: "Available",
		JobTitle:           "Data Scientist",
		ExperienceLevel:    "Senior",
		Bio:                "Analytical engine enthusiast",
		Skills:             []string{"Python", "ML"},
	}
	assert.Equal(t, "Name: Ada Lovelace\n"+
		"Location: London\n"+
		"Availability: Available\n"+
		"Title: Data Scientist\n"+
		"Experience Level: Senior\n"+
		"Bio: Analytical engine enthusiast\n"+
		"Skills: Python, ML\n"+
		"Resume Summary: Led ML team",
		compositeDocument(full, "Led ML team"))

	sparse := &repository.CandidateProfile{FullName: "Bob"}
	assert.Equal(t, "Name: Bob\n"+
		"Location: N/A\n"+
		"Availability: N/A\n"+
		"Title: N/A\n"+
		"Experience Level: N/A\n"+
		"Bio: \n"+
		"Skills: N/A\n"+
		"Resume Summary: No resume summary available.",
		compositeDocument(sparse, ""))
}

func TestRerank_ThresholdAndServiceOrder(t *testing.T) {
	pool := applicants(4)
	rr := &fakeReranker{rerank: func(context.Context, string, []string) ([]reranker.Result, error) {
		return []reranker.Result{
			{Index: 2, RelevanceScore: 0.8},
			{Index: 0, RelevanceScore: 0.005}, // exactly at the floor stays
			{Index: 3, RelevanceScore: 0.0049},
			{Index: 1, RelevanceScore: 0.0001},
		}, nil
	}}
	s := NewRankingService(&fakeProfiles{}, &fakeResumes{}, rr, WithLogger(discardLogger))

	ranked, method := s.Rerank(context.Background(), pool, SummaryMap{}, "q")

	assert.Equal(t, MethodRerank, method)
	require.Len(t, ranked, 2)
	assert.Equal(t, pool[2].ID, ranked[0].ID)
	assert.Equal(t, pool[0].ID, ranked[1].ID)
	assert.Equal(t, 0.8, ranked[0].RelevanceScore)
	assert.False(t, ranked[0].Synthetic)
}

func TestRerank_IgnoresDuplicateAndUnknownIndexes(t *testing.T) {
	pool := applicants(2)
	rr := &fakeReranker{rerank: func(context.Context, string, []string) ([]reranker.Result, error) {
		return []reranker.Result{
			{Index: 1, RelevanceScore: 0.9},
			{Index: 1, RelevanceScore: 0.7},
			{Index: 5, RelevanceScore: 0.6},
			{Index: -1, RelevanceScore: 0.5},
			{Index: 0, RelevanceScore: 0.4},
		}, nil
	}}
	s := NewRankingService(&fakeProfiles{}, &fakeResumes{}, rr, WithLogger(discardLogger))

	ranked, _ := s.Rerank(context.Background(), pool, nil, "q")

	require.Len(t, ranked, 2)
	assert.Equal(t, pool[1].ID, ranked[0].ID)
	assert.Equal(t, 0.9, ranked[0].RelevanceScore)
	assert.Equal(t, pool[0].ID, ranked[1].ID)
}

func TestRerank_ZeroSurvivorsIsSuccess(t *testing.T) {
	s := NewRankingService(&fakeProfiles{}, &fakeResumes{}, scoresReranker(0.001, 0.002), WithLogger(discardLogger))

	ranked, method := s.Rerank(context.Background(), applicants(2), nil, "q")

	assert.Equal(t, MethodRerank, method)
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)
}

func TestRerank_FallbackScores(t *testing.T) {
	tests := []struct {
		name     string
		poolSize int
		wantLen  int
	}{
		{"large pool capped", 20, 12},
		{"small pool", 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := applicants(tt.poolSize)
			s := NewRankingService(&fakeProfiles{}, &fakeResumes{}, failingReranker(errors.New("429 too many requests")), WithLogger(discardLogger))

			ranked, method := s.Rerank(context.Background(), pool, nil, "q")

			assert.Equal(t, MethodFallbackNoRerank, method)
			require.Len(t, ranked, tt.wantLen)
			assert.Equal(t, 0.5, ranked[0].RelevanceScore)
			for i, rc := range ranked {
				assert.Equal(t, pool[i].ID, rc.ID, "pool order kept")
				assert.True(t, rc.Synthetic)
				if i > 0 {
					assert.InDelta(t, 0.01, ranked[i-1].RelevanceScore-rc.RelevanceScore, 1e-9)
				}
			}
		})
	}
}

func TestRerank_FallbackLimitCapped(t *testing.T) {
	pool := applicants(60)
	s := NewRankingService(&fakeProfiles{}, &fakeResumes{}, nil,
		WithLogger(discardLogger),
		WithFallbackLimit(60),
	)

	ranked, _ := s.Rerank(context.Background(), pool, nil, "q")

	require.Len(t, ranked, MaxFallbackLimit)
	assert.InDelta(t, 0.01, ranked[len(ranked)-1].RelevanceScore, 1e-9)
	for _, rc := range ranked {
		assert.Positive(t, rc.RelevanceScore)
	}
}

func TestRerank_NoRerankerFallsBack(t *testing.T) {
	s := NewRankingService(&fakeProfiles{}, &fakeResumes{}, nil, WithLogger(discardLogger))

	ranked, method := s.Rerank(context.Background(), applicants(3), nil, "q")

	assert.Equal(t, MethodFallbackNoRerank, method)
	assert.Len(t, ranked, 3)
}

func TestRerank_TimeoutFallsBack(t *testing.T) {
	slow := &fakeReranker{rerank: func(ctx context.Context, _ string, _ []string) ([]reranker.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	s := NewRankingService(&fakeProfiles{}, &fakeResumes{}, slow,
		WithLogger(discardLogger),
		WithTimeouts(0, 0, 20*time.Millisecond),
	)

	ranked, method := s.Rerank(context.Background(), applicants(2), nil, "q")

	assert.Equal(t, MethodFallbackNoRerank, method)
	assert.Len(t, ranked, 2)
}

func TestRerank_SummaryResolution(t *testing.T) {
	pool := applicants(3)
	pool[2].Bio = ""
	summaries := SummaryMap{
		pool[0].ID: "from resume",
		pool[1].ID: "", // resume without summary falls back to bio
	}
	rr := scoresReranker(0.9, 0.8, 0.7)
	s := NewRankingService(&fakeProfiles{}, &fakeResumes{}, rr, WithLogger(discardLogger))

	ranked, _ := s.Rerank(context.Background(), pool, summaries, "q")

	require.Len(t, ranked, 3)
	assert.Equal(t, "from resume", ranked[0].Summary)
	assert.Equal(t, pool[1].Bio, ranked[1].Summary)
	assert.Empty(t, ranked[2].Summary)
	assert.Contains(t, rr.lastDocs[0], "Resume Summary: from resume")
	assert.Contains(t, rr.lastDocs[1], "Resume Summary: No resume summary available.")
}
