package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/knoguchi/talentrank/internal/repository"
	"github.com/stretchr/testify/assert"
)

func TestSummarize_LatestResumeWins(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// Deliberately not in upload order.
	resumes := []*repository.Resume{
		{UserID: alice, Summary: "old", UploadedAt: t0},
		{UserID: bob, Summary: "bob only", UploadedAt: t0},
		{UserID: alice, Summary: "newest", UploadedAt: t0.Add(48 * time.Hour)},
		{UserID: alice, Summary: "middle", UploadedAt: t0.Add(24 * time.Hour)},
	}

	got := summarize(resumes)

	assert.Equal(t, SummaryMap{alice: "newest", bob: "bob only"}, got)
}

func TestSummarize_TieKeepsFirstSeen(t *testing.T) {
	id := uuid.New()
	at := time.Now()

	got := summarize([]*repository.Resume{
		{UserID: id, Summary: "first", UploadedAt: at},
		{UserID: id, Summary: "second", UploadedAt: at},
	})

	assert.Equal(t, "first", got[id])
}

func TestSummarize_EmptySummaryIsKept(t *testing.T) {
	id := uuid.New()
	got := summarize([]*repository.Resume{{UserID: id, UploadedAt: time.Now()}})

	v, ok := got[id]
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestEnrich(t *testing.T) {
	pool := applicants(3)
	resumes := &fakeResumes{resumes: []*repository.Resume{
		{UserID: pool[0].ID, Summary: "strong Go background", UploadedAt: time.Now()},
		{UserID: uuid.New(), Summary: "not in pool", UploadedAt: time.Now()},
	}}
	s := NewRankingService(&fakeProfiles{}, resumes, nil, WithLogger(discardLogger))

	got := s.Enrich(context.Background(), pool)

	assert.Equal(t, SummaryMap{pool[0].ID: "strong Go background"}, got)
}

func TestEnrich_FailureIsNonFatal(t *testing.T) {
	s := NewRankingService(&fakeProfiles{}, &fakeResumes{err: errors.New("db down")}, nil, WithLogger(discardLogger))

	got := s.Enrich(context.Background(), applicants(2))

	assert.NotNil(t, got)
	assert.Empty(t, got)
}
