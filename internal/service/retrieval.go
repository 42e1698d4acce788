package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/knoguchi/talentrank/internal/repository"
	"github.com/knoguchi/talentrank/internal/vectorstore"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// RetrievalMethod tags how the candidate pool was produced.
type RetrievalMethod string

const (
	MethodVectorSearch RetrievalMethod = "vector_search"
	MethodFullScan     RetrievalMethod = "full_scan"
)

var (
	errVectorTierDisabled = errors.New("vector search not configured")
	errNoVectorMatches    = errors.New("vector search returned no matches")
	errNoProfilesResolved = errors.New("no profiles resolved for vector matches")
)

// Pool is the bounded candidate set produced by retrieval.
type Pool struct {
	Candidates []*repository.CandidateProfile
	Method     RetrievalMethod

	// summaries is filled when resumes were fetched alongside the profiles.
	summaries SummaryMap
}

type retrievalState int

const (
	stateVectorTier retrievalState = iota
	stateFullScanTier
	stateTerminalEmpty
)

// Retrieve produces the candidate pool for query.
//
// Tiers are tried in order and the first one that yields candidates wins:
// vector search, then a full scan of applicants. Vector search failures are
// logged and fall through. A full scan failure is ErrRetrieval. When the full
// scan finds nobody the returned pool is empty.
func (s *RankingService) Retrieve(ctx context.Context, query string) (*Pool, error) {
	ctx, span := s.tracer.Start(ctx, "ranking.retrieve")
	defer span.End()

	state := stateVectorTier
	for {
		switch state {
		case stateVectorTier:
			pool, err := s.vectorTier(ctx, query)
			if err == nil {
				span.SetAttributes(attribute.String("method", string(pool.Method)))
				return pool, nil
			}
			if !errors.Is(err, errVectorTierDisabled) {
				s.logger.Warn("vector search failed, using full scan", "error", err)
			}
			state = stateFullScanTier

		case stateFullScanTier:
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			profiles, err := s.profiles.ListByType(ctx, repository.UserTypeApplicant, s.poolSize)
			if err != nil {
				span.RecordError(err)
				return nil, fmt.Errorf("%w: failed to fetch candidates: %w", ErrRetrieval, err)
			}
			if len(profiles) == 0 {
				state = stateTerminalEmpty
				continue
			}
			span.SetAttributes(attribute.String("method", string(MethodFullScan)))
			return &Pool{Candidates: profiles, Method: MethodFullScan}, nil

		case stateTerminalEmpty:
			span.SetAttributes(attribute.String("method", string(MethodFullScan)))
			return &Pool{Method: MethodFullScan}, nil
		}
	}
}

// vectorTier embeds the query, searches the index and resolves the hits to
// profiles. Resumes for the hits are fetched concurrently with the profile
// lookup.
func (s *RankingService) vectorTier(ctx context.Context, query string) (*Pool, error) {
	if s.embedder == nil || s.vectors == nil {
		return nil, errVectorTierDisabled
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	vector, err := s.embedder.Embed(embedCtx, query)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	hits, err := s.vectors.Search(searchCtx, vector, s.poolSize, map[string]string{
		vectorstore.FieldUserType: repository.UserTypeApplicant,
	})
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}

	ids := hitIDs(hits)
	if len(ids) == 0 {
		return nil, errNoVectorMatches
	}

	var (
		profiles  []*repository.CandidateProfile
		resumes   []*repository.Resume
		resumeErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.profiles.GetByIDs(gctx, ids)
		if err != nil {
			return fmt.Errorf("failed to resolve profiles: %w", err)
		}
		profiles = p
		return nil
	})
	g.Go(func() error {
		resumes, resumeErr = s.resumes.ListByUserIDs(gctx, ids)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	profiles = orderByIDs(profiles, ids)
	if len(profiles) == 0 {
		return nil, errNoProfilesResolved
	}

	summaries := SummaryMap{}
	if resumeErr != nil {
		s.logger.Warn("resume fetch failed, ranking without summaries", "error", resumeErr)
	} else {
		summaries = summarize(resumes)
	}

	return &Pool{Candidates: profiles, Method: MethodVectorSearch, summaries: summaries}, nil
}

// hitIDs returns the distinct profile ids of hits in rank order. Hits whose
// id is not a UUID are skipped.
func hitIDs(hits []vectorstore.SearchResult) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(hits))
	seen := make(map[uuid.UUID]bool, len(hits))
	for _, h := range hits {
		id, err := uuid.Parse(h.ID)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// orderByIDs arranges profiles in the order of ids, dropping ids with no
// profile.
func orderByIDs(profiles []*repository.CandidateProfile, ids []uuid.UUID) []*repository.CandidateProfile {
	byID := make(map[uuid.UUID]*repository.CandidateProfile, len(profiles))
	for _, p := range profiles {
		if p != nil {
			byID[p.ID] = p
		}
	}

	ordered := make([]*repository.CandidateProfile, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
			delete(byID, id)
		}
	}
	return ordered
}
