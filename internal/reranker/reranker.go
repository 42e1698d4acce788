// Package reranker provides cross-encoder style relevance scoring for
// candidate documents.
//
// A reranker sees the query and each document together, which makes it
// more accurate than vector similarity but too expensive to run over the
// whole profile table. It is therefore applied to the bounded pool produced
// by retrieval.
//
// Callers are expected to degrade gracefully when Rerank returns an error.
package reranker

import (
	"context"
)

// Result is the relevance of one input document.
type Result struct {
	// Index is the position of the document in the request.
	Index int
	// RelevanceScore is provider-defined, typically in [0, 1].
	RelevanceScore float64
}

// Reranker defines the interface for scoring documents against a query.
type Reranker interface {
	// Rerank scores documents against query in a single batch. Results are
	// ordered by descending relevance, and that order is authoritative.
	Rerank(ctx context.Context, query string, documents []string) ([]Result, error)

	// ModelName returns the model identifier for logging.
	ModelName() string
}
