package embedder

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
	// DefaultCohereModel is the default embedding model.
	DefaultCohereModel = "embed-english-v3.0"
)

// CohereConfig holds configuration for the Cohere embedder.
type CohereConfig struct {
	// BaseURL overrides the SDK's default API host.
	BaseURL string
	APIKey  string
	Model   string

	// Limiter throttles outbound calls; nil means unlimited.
	Limiter *rate.Limiter

	HTTPClient *http.Client
}

// CohereEmbedder implements the Embedder interface using Cohere's v2 embed API.
type CohereEmbedder struct {
	client  *cohereclient.Client
	model   string
	limiter *rate.Limiter
}

// NewCohereEmbedder creates a new Cohere embedder with the given configuration.
func NewCohereEmbedder(cfg CohereConfig) *CohereEmbedder {
	model := cfg.Model
	if model == "" {
		model = DefaultCohereModel
	}

	opts := []option.RequestOption{
		option.WithToken(cfg.APIKey),
		// A failed embed downgrades retrieval to the full scan instead.
		option.WithMaxAttempts(1),
	}
	if baseURL := strings.TrimSuffix(cfg.BaseURL, "/"); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &CohereEmbedder{
		client:  cohereclient.NewClient(opts...),
		model:   model,
		limiter: cfg.Limiter,
	}
}

// Embed generates a search-query embedding for text.
func (e *CohereEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	resp, err := e.client.V2.Embed(ctx, &cohere.V2EmbedRequest{
		Model:          e.model,
		Texts:          []string{text},
		InputType:      cohere.EmbedInputTypeSearchQuery,
		EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
	})
	if err != nil {
		return nil, fmt.Errorf("cohere embed: %w", err)
	}

	if resp == nil || resp.Embeddings == nil ||
		len(resp.Embeddings.Float) == 0 || len(resp.Embeddings.Float[0]) == 0 {
		return nil, fmt.Errorf("cohere: %w", ErrEmptyEmbedding)
	}

	return toFloat32(resp.Embeddings.Float[0]), nil
}

// ModelName returns the name of the embedding model being used.
func (e *CohereEmbedder) ModelName() string {
	return e.model
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

// Ensure CohereEmbedder implements Embedder interface.
var _ Embedder = (*CohereEmbedder)(nil)
