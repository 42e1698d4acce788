// Package service implements the two-stage candidate ranking pipeline.
//
// A request flows through query composition, candidate retrieval, resume
// enrichment and reranking, and ends with the conversation turn being
// recorded. Retrieval and reranking each degrade to a cheaper method when
// their external dependency fails; the method actually used is reported in
// the pipeline trace.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/knoguchi/talentrank/internal/embedder"
	"github.com/knoguchi/talentrank/internal/memory"
	"github.com/knoguchi/talentrank/internal/metrics"
	"github.com/knoguchi/talentrank/internal/repository"
	"github.com/knoguchi/talentrank/internal/reranker"
	"github.com/knoguchi/talentrank/internal/vectorstore"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/knoguchi/talentrank/internal/service"

// Pipeline defaults.
const (
	DefaultPoolSize          = 50
	DefaultMinRelevanceScore = 0.005
	DefaultFallbackLimit     = 12

	// MaxFallbackLimit keeps every synthetic score positive.
	MaxFallbackLimit = 50

	DefaultEmbedTimeout  = 10 * time.Second
	DefaultSearchTimeout = 5 * time.Second
	DefaultRerankTimeout = 15 * time.Second

	DefaultSuggestedJobLimit = 5
)

// stageSkipped is the stage-2 method when there was nothing to rank.
const stageSkipped = "skipped"

// RankRequest is one ranking call.
type RankRequest struct {
	Query   string
	JobID   *uuid.UUID
	History memory.History
}

// PipelineTrace summarizes how each stage ran. Informational only.
type PipelineTrace struct {
	Stage1 string `json:"stage1"`
	Stage2 string `json:"stage2"`
}

// RankResult is the ranked candidates plus the updated conversation.
type RankResult struct {
	Candidates []RankedCandidate `json:"candidates"`
	History    memory.History    `json:"conversationHistory"`
	Pipeline   PipelineTrace     `json:"pipeline"`
}

// RankingService runs the candidate ranking pipeline. It holds no per-request
// state and is safe for concurrent use.
type RankingService struct {
	profiles repository.ProfileRepository
	resumes  repository.ResumeRepository
	jobs     repository.JobRepository // optional
	embedder embedder.Embedder        // optional with vectors; both nil disables the vector tier
	vectors  vectorstore.VectorStore
	reranker reranker.Reranker

	poolSize          int
	minRelevanceScore float64
	fallbackLimit     int
	embedTimeout      time.Duration
	searchTimeout     time.Duration
	rerankTimeout     time.Duration
	suggestedJobs     int

	checkCredentials func() error
	logger           *slog.Logger
	metrics          *metrics.Metrics
	tracer           trace.Tracer
}

// RankingServiceOption is a functional option for configuring RankingService.
type RankingServiceOption func(*RankingService)

// WithPoolSize sets how many candidates retrieval produces.
func WithPoolSize(n int) RankingServiceOption {
	return func(s *RankingService) {
		if n > 0 {
			s.poolSize = n
		}
	}
}

// WithMinRelevanceScore sets the floor below which reranked results are dropped.
func WithMinRelevanceScore(score float64) RankingServiceOption {
	return func(s *RankingService) {
		s.minRelevanceScore = score
	}
}

// WithFallbackLimit sets how many candidates the no-rerank fallback returns,
// capped at MaxFallbackLimit.
func WithFallbackLimit(n int) RankingServiceOption {
	return func(s *RankingService) {
		if n >= 0 {
			s.fallbackLimit = min(n, MaxFallbackLimit)
		}
	}
}

// WithTimeouts sets per-call timeouts. Zero values keep the defaults.
func WithTimeouts(embed, search, rerank time.Duration) RankingServiceOption {
	return func(s *RankingService) {
		if embed > 0 {
			s.embedTimeout = embed
		}
		if search > 0 {
			s.searchTimeout = search
		}
		if rerank > 0 {
			s.rerankTimeout = rerank
		}
	}
}

// WithVectorSearch enables the vector retrieval tier.
func WithVectorSearch(e embedder.Embedder, v vectorstore.VectorStore) RankingServiceOption {
	return func(s *RankingService) {
		s.embedder = e
		s.vectors = v
	}
}

// WithJobs enables job context lookup for requests that carry a job id.
func WithJobs(jobs repository.JobRepository) RankingServiceOption {
	return func(s *RankingService) {
		s.jobs = jobs
	}
}

// WithSuggestedJobLimit sets how many recent jobs Suggestions returns.
func WithSuggestedJobLimit(n int) RankingServiceOption {
	return func(s *RankingService) {
		if n > 0 {
			s.suggestedJobs = n
		}
	}
}

// WithCredentialCheck installs a check run at the start of every request.
// A failure is reported as ErrConfiguration.
func WithCredentialCheck(check func() error) RankingServiceOption {
	return func(s *RankingService) {
		s.checkCredentials = check
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RankingServiceOption {
	return func(s *RankingService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the Prometheus metrics to record into.
func WithMetrics(m *metrics.Metrics) RankingServiceOption {
	return func(s *RankingService) {
		s.metrics = m
	}
}

// WithTracer overrides the OpenTelemetry tracer.
func WithTracer(t trace.Tracer) RankingServiceOption {
	return func(s *RankingService) {
		if t != nil {
			s.tracer = t
		}
	}
}

// NewRankingService creates a new RankingService
func NewRankingService(
	profiles repository.ProfileRepository,
	resumes repository.ResumeRepository,
	rr reranker.Reranker,
	opts ...RankingServiceOption,
) *RankingService {
	s := &RankingService{
		profiles:          profiles,
		resumes:           resumes,
		reranker:          rr,
		poolSize:          DefaultPoolSize,
		minRelevanceScore: DefaultMinRelevanceScore,
		fallbackLimit:     DefaultFallbackLimit,
		embedTimeout:      DefaultEmbedTimeout,
		searchTimeout:     DefaultSearchTimeout,
		rerankTimeout:     DefaultRerankTimeout,
		suggestedJobs:     DefaultSuggestedJobLimit,
		logger:            slog.Default(),
		tracer:            otel.Tracer(instrumentationName),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Rank runs the full pipeline for one request.
func (s *RankingService) Rank(ctx context.Context, req RankRequest) (result *RankResult, err error) {
	ctx, span := s.tracer.Start(ctx, "ranking.rank")
	defer span.End()

	defer func() {
		s.metrics.RecordRequest(outcome(result, err))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrValidation)
	}

	if s.checkCredentials != nil {
		if err := s.checkCredentials(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
	}

	query := ComposeQuery(req.Query, req.History, s.lookupJob(ctx, req.JobID))
	span.SetAttributes(
		attribute.Int("history.turns", len(req.History)),
		attribute.Bool("job_context", req.JobID != nil),
	)

	start := time.Now()
	pool, err := s.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordStage("retrieve", string(pool.Method), time.Since(start))
	s.metrics.RecordPool(len(pool.Candidates))

	if len(pool.Candidates) == 0 {
		s.logger.Info("no applicants to rank", "method", pool.Method)
		return &RankResult{
			Candidates: []RankedCandidate{},
			History:    memory.RecordEmpty(req.History, req.Query),
			Pipeline: PipelineTrace{
				Stage1: fmt.Sprintf("%s (0 candidates)", pool.Method),
				Stage2: fmt.Sprintf("%s (0 ranked results)", stageSkipped),
			},
		}, nil
	}

	summaries := pool.summaries
	if summaries == nil {
		summaries = s.Enrich(ctx, pool.Candidates)
	}

	start = time.Now()
	ranked, method := s.Rerank(ctx, pool.Candidates, summaries, query)
	s.metrics.RecordStage("rerank", string(method), time.Since(start))
	s.metrics.RecordRanked(len(ranked))

	result = &RankResult{
		Candidates: ranked,
		History:    memory.Record(req.History, req.Query, len(ranked)),
		Pipeline: PipelineTrace{
			Stage1: fmt.Sprintf("%s (%d candidates)", pool.Method, len(pool.Candidates)),
			Stage2: fmt.Sprintf("%s (%d ranked results)", method, len(ranked)),
		},
	}

	span.SetAttributes(
		attribute.String("stage1.method", string(pool.Method)),
		attribute.Int("stage1.pool", len(pool.Candidates)),
		attribute.String("stage2.method", string(method)),
		attribute.Int("stage2.ranked", len(ranked)),
	)
	s.logger.Info("ranked candidates",
		"stage1", result.Pipeline.Stage1,
		"stage2", result.Pipeline.Stage2,
	)

	return result, nil
}

// lookupJob loads the job used for query context. A missing job, or a
// failed lookup, only drops the job context.
func (s *RankingService) lookupJob(ctx context.Context, id *uuid.UUID) *repository.Job {
	if id == nil || s.jobs == nil {
		return nil
	}

	job, err := s.jobs.GetByID(ctx, *id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("job not found, ranking without job context", "job_id", *id)
		} else {
			s.logger.Warn("job lookup failed, ranking without job context", "job_id", *id, "error", err)
		}
		return nil
	}
	return job
}

func outcome(result *RankResult, err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return metrics.OutcomeValidationError
	case errors.Is(err, ErrConfiguration):
		return metrics.OutcomeConfigurationError
	case err != nil:
		return metrics.OutcomeRetrievalError
	case len(result.Candidates) == 0:
		return metrics.OutcomeEmpty
	default:
		return metrics.OutcomeOK
	}
}
