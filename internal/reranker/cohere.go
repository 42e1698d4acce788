package reranker

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/option"
	"golang.org/x/time/rate"
)

const (
	// DefaultCohereModel is the default rerank model.
	DefaultCohereModel = "rerank-english-v3.0"
)

// CohereConfig holds configuration for the Cohere reranker.
type CohereConfig struct {
	// BaseURL overrides the SDK's default API host.
	BaseURL string
	APIKey  string
	Model   string

	// Limiter throttles outbound calls; nil means unlimited.
	Limiter *rate.Limiter

	HTTPClient *http.Client
}

// CohereReranker implements Reranker with Cohere's hosted rerank endpoint.
type CohereReranker struct {
	client  *cohereclient.Client
	model   string
	limiter *rate.Limiter
}

// NewCohereReranker creates a new Cohere reranker.
func NewCohereReranker(cfg CohereConfig) *CohereReranker {
	model := cfg.Model
	if model == "" {
		model = DefaultCohereModel
	}

	opts := []option.RequestOption{
		option.WithToken(cfg.APIKey),
		// Callers fall back to pool order on failure, so the SDK must not retry.
		option.WithMaxAttempts(1),
	}
	if baseURL := strings.TrimSuffix(cfg.BaseURL, "/"); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &CohereReranker{
		client:  cohereclient.NewClient(opts...),
		model:   model,
		limiter: cfg.Limiter,
	}
}

// Rerank scores every document in one request. Cohere returns results sorted
// by relevance, and that order is kept.
func (r *CohereReranker) Rerank(ctx context.Context, query string, documents []string) ([]Result, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	topN := len(documents)
	resp, err := r.client.V2.Rerank(ctx, &cohere.V2RerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: documents,
		TopN:      &topN,
	})
	if err != nil {
		return nil, fmt.Errorf("cohere rerank: %w", err)
	}
	if resp == nil {
		return nil, nil
	}

	results := make([]Result, 0, len(resp.Results))
	for _, res := range resp.Results {
		if res == nil {
			continue
		}
		results = append(results, Result{Index: res.Index, RelevanceScore: res.RelevanceScore})
	}

	return results, nil
}

// ModelName returns the rerank model in use.
func (r *CohereReranker) ModelName() string {
	return r.model
}

// Ensure CohereReranker implements Reranker interface.
var _ Reranker = (*CohereReranker)(nil)
