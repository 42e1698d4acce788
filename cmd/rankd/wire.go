package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/knoguchi/talentrank/internal/config"
	"github.com/knoguchi/talentrank/internal/embedder"
	"github.com/knoguchi/talentrank/internal/llm"
	"github.com/knoguchi/talentrank/internal/metrics"
	"github.com/knoguchi/talentrank/internal/repository"
	"github.com/knoguchi/talentrank/internal/repository/postgres"
	"github.com/knoguchi/talentrank/internal/reranker"
	"github.com/knoguchi/talentrank/internal/service"
	"github.com/knoguchi/talentrank/internal/vectorstore"
	"golang.org/x/time/rate"
)

// app holds the wired ranking service and what must be closed on exit.
type app struct {
	ranking  *service.RankingService
	profiles *postgres.ProfileRepo
	closers  []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// ready reports whether PostgreSQL is reachable.
func (a *app) ready(ctx context.Context) error {
	return a.profiles.Ping(ctx)
}

// buildApp connects to the backing stores and wires the pipeline from cfg.
func buildApp(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*app, error) {
	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a := &app{closers: []func(){db.Close}}
	slog.Info("connected to PostgreSQL")

	vectors, closeVectors, err := newVectorStore(ctx, cfg, db)
	if err != nil {
		a.Close()
		return nil, err
	}
	if closeVectors != nil {
		a.closers = append(a.closers, closeVectors)
	}

	limiter := newCohereLimiter(cfg)
	embed := newEmbedder(cfg, limiter)
	rr := newReranker(cfg, limiter)
	slog.Info("initialized providers",
		"vector_backend", cfg.VectorBackend,
		"embedding_model", embed.ModelName(),
		"rerank_model", rr.ModelName(),
	)

	a.profiles = postgres.NewProfileRepo(db)
	a.ranking = service.NewRankingService(
		a.profiles,
		postgres.NewResumeRepo(db),
		rr,
		service.WithVectorSearch(embed, vectors),
		service.WithJobs(postgres.NewJobRepo(db)),
		service.WithPoolSize(cfg.PoolSize),
		service.WithMinRelevanceScore(cfg.RerankMinScore),
		service.WithFallbackLimit(cfg.FallbackLimit),
		service.WithTimeouts(cfg.EmbedTimeout, cfg.SearchTimeout, cfg.RerankTimeout),
		service.WithSuggestedJobLimit(cfg.SuggestedJobLimit),
		service.WithCredentialCheck(cfg.CheckCredentials),
		service.WithMetrics(m),
		service.WithLogger(slog.Default()),
	)

	return a, nil
}

func newVectorStore(ctx context.Context, cfg *config.Config, db *postgres.DB) (vectorstore.VectorStore, func(), error) {
	switch cfg.VectorBackend {
	case config.BackendPgvector:
		slog.Info("using pgvector for similarity search")
		return vectorstore.NewPgvectorStore(db.Pool, "user_profiles"), nil, nil
	default:
		store, err := vectorstore.NewQdrantStore(ctx, vectorstore.QdrantConfig{
			URL:        cfg.QdrantGRPCURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
			UserAgent:  "rankd/" + version,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
		}
		slog.Info("connected to Qdrant", "collection", cfg.QdrantCollection)
		return store, func() { _ = store.Close() }, nil
	}
}

// newCohereLimiter shares one token bucket between the embed and rerank
// clients, since Cohere limits per API key.
func newCohereLimiter(cfg *config.Config) *rate.Limiter {
	if cfg.CohereRateLimit <= 0 {
		return nil
	}
	burst := max(int(cfg.CohereRateLimit), 1)
	return rate.NewLimiter(rate.Limit(cfg.CohereRateLimit), burst)
}

func newEmbedder(cfg *config.Config, limiter *rate.Limiter) embedder.Embedder {
	if cfg.EmbeddingProvider == config.ProviderOllama {
		return embedder.NewOllamaEmbedder(embedder.OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaEmbeddingModel,
		})
	}
	return embedder.NewCohereEmbedder(embedder.CohereConfig{
		BaseURL: cfg.CohereBaseURL,
		APIKey:  cfg.CohereAPIKey,
		Model:   cfg.CohereEmbeddingModel,
		Limiter: limiter,
	})
}

func newReranker(cfg *config.Config, limiter *rate.Limiter) reranker.Reranker {
	if cfg.RerankProvider == config.ProviderLLM {
		client := llm.NewOllamaClient(
			llm.WithBaseURL(cfg.OllamaURL),
			llm.WithModel(cfg.OllamaLLMModel),
		)
		return reranker.NewLLMReranker(client, reranker.WithModel(cfg.OllamaLLMModel))
	}
	return reranker.NewCohereReranker(reranker.CohereConfig{
		BaseURL: cfg.CohereBaseURL,
		APIKey:  cfg.CohereAPIKey,
		Model:   cfg.CohereRerankModel,
		Limiter: limiter,
	})
}

// Ensure interfaces are satisfied at compile time
var (
	_ repository.ProfileRepository = (*postgres.ProfileRepo)(nil)
	_ repository.ResumeRepository  = (*postgres.ResumeRepo)(nil)
	_ repository.JobRepository     = (*postgres.JobRepo)(nil)
	_ vectorstore.VectorStore      = (*vectorstore.QdrantStore)(nil)
	_ vectorstore.VectorStore      = (*vectorstore.PgvectorStore)(nil)
	_ embedder.Embedder            = (*embedder.CohereEmbedder)(nil)
	_ embedder.Embedder            = (*embedder.OllamaEmbedder)(nil)
	_ llm.LLM                      = (*llm.OllamaClient)(nil)
)
