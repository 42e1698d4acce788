package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/knoguchi/talentrank/internal/repository"
	"github.com/knoguchi/talentrank/internal/reranker"
	"github.com/knoguchi/talentrank/internal/vectorstore"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func applicant(name string) *repository.CandidateProfile {
	return &repository.CandidateProfile{
		ID:       uuid.New(),
		FullName: name,
		JobTitle: "Engineer",
		Bio:      name + " bio",
		Skills:   []string{"Go", "SQL"},
		UserType: repository.UserTypeApplicant,
	}
}

func applicants(n int) []*repository.CandidateProfile {
	out := make([]*repository.CandidateProfile, n)
	for i := range out {
		out[i] = applicant(fmt.Sprintf("candidate-%02d", i))
	}
	return out
}

type fakeProfiles struct {
	mu         sync.Mutex
	all        []*repository.CandidateProfile
	getErr     error
	listErr    error
	getCalls   int
	listCalls  int
	listLimit  int
	resolveNil bool
}

func (f *fakeProfiles) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*repository.CandidateProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.resolveNil {
		return nil, nil
	}
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	// Reverse store order so callers cannot rely on it.
	var out []*repository.CandidateProfile
	for i := len(f.all) - 1; i >= 0; i-- {
		if want[f.all[i].ID] {
			out = append(out, f.all[i])
		}
	}
	return out, nil
}

func (f *fakeProfiles) ListByType(_ context.Context, userType string, limit int) ([]*repository.CandidateProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.listLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*repository.CandidateProfile
	for _, p := range f.all {
		if p.UserType == userType && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProfiles) Ping(context.Context) error { return nil }

type fakeResumes struct {
	mu      sync.Mutex
	resumes []*repository.Resume
	err     error
	calls   int
}

func (f *fakeResumes) ListByUserIDs(_ context.Context, userIDs []uuid.UUID) ([]*repository.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	want := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		want[id] = true
	}
	var out []*repository.Resume
	for _, r := range f.resumes {
		if want[r.UserID] {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeJobs struct {
	jobs      map[uuid.UUID]*repository.Job
	err       error
	recent    []*repository.Job
	lastOwner uuid.UUID
	lastLimit int
}

func (f *fakeJobs) GetByID(_ context.Context, id uuid.UUID) (*repository.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	job, ok := f.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return job, nil
}

func (f *fakeJobs) ListRecentByOwner(_ context.Context, ownerID uuid.UUID, limit int) ([]*repository.Job, error) {
	f.lastOwner = ownerID
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.recent, nil
}

type fakeEmbedder struct {
	err      error
	block    bool // wait for the context to expire
	lastText string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.lastText = text
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

type fakeVectors struct {
	hits       []vectorstore.SearchResult
	err        error
	block      bool
	lastTopK   int
	lastFilter map[string]string
}

func (f *fakeVectors) Search(ctx context.Context, _ []float32, topK int, filter map[string]string) ([]vectorstore.SearchResult, error) {
	f.lastTopK = topK
	f.lastFilter = filter
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func hitsFor(profiles []*repository.CandidateProfile) []vectorstore.SearchResult {
	hits := make([]vectorstore.SearchResult, len(profiles))
	for i, p := range profiles {
		hits[i] = vectorstore.SearchResult{ID: p.ID.String(), Score: 0.9 - float32(i)*0.01}
	}
	return hits
}

type fakeReranker struct {
	rerank    func(ctx context.Context, query string, documents []string) ([]reranker.Result, error)
	calls     int
	lastQuery string
	lastDocs  []string
}

func (f *fakeReranker) Rerank(ctx context.Context, query string, documents []string) ([]reranker.Result, error) {
	f.calls++
	f.lastQuery = query
	f.lastDocs = documents
	return f.rerank(ctx, query, documents)
}

func (f *fakeReranker) ModelName() string { return "fake-rerank" }

// scoresReranker returns the given scores, one per document in order.
func scoresReranker(scores ...float64) *fakeReranker {
	return &fakeReranker{rerank: func(_ context.Context, _ string, docs []string) ([]reranker.Result, error) {
		out := make([]reranker.Result, 0, len(docs))
		for i := range docs {
			if i < len(scores) {
				out = append(out, reranker.Result{Index: i, RelevanceScore: scores[i]})
			}
		}
		return out, nil
	}}
}

func failingReranker(err error) *fakeReranker {
	return &fakeReranker{rerank: func(context.Context, string, []string) ([]reranker.Result, error) {
		return nil, err
	}}
}
