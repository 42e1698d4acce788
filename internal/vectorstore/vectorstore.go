// Package vectorstore provides interfaces and implementations for vector similarity search.
package vectorstore

import (
	"context"
)

// Payload field names shared by every backend.
const (
	FieldProfileID = "id"
	FieldUserType  = "user_type"
)

// SearchResult represents a search result from the vector store
type SearchResult struct {
	ID    string // profile id
	Score float32
}

// VectorStore defines the interface for approximate nearest-neighbour search
// over profile embeddings
type VectorStore interface {
	// Search returns up to topK nearest neighbours of vector whose payload
	// matches every field of filter, best match first.
	Search(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]SearchResult, error)
}
