package vectorstore

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// QdrantStore implements VectorStore using Qdrant
type QdrantStore struct {
	client     *qdrant.Client
	collection string
}

// QdrantConfig holds connection settings for Qdrant
type QdrantConfig struct {
	// URL in "host:port" form (e.g., "localhost:6334")
	URL        string
	APIKey     string
	Collection string
	UserAgent  string
}

// NewQdrantStore creates a new Qdrant vector store client
func NewQdrantStore(ctx context.Context, cfg QdrantConfig) (*QdrantStore, error) {
	host, portStr, err := net.SplitHostPort(cfg.URL)
	if err != nil {
		// If no port specified, assume default
		host = cfg.URL
		portStr = "6334"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port in qdrant url: %w", err)
	}

	useTLS := cfg.APIKey != ""
	var dialOpts []grpc.DialOption
	if cfg.UserAgent != "" {
		dialOpts = append(dialOpts, grpc.WithUserAgent(cfg.UserAgent))
	}
	if !useTLS {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:        host,
		Port:        port,
		APIKey:      cfg.APIKey,
		UseTLS:      useTLS,
		GrpcOptions: dialOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = "user_profiles"
	}

	return &QdrantStore{client: client, collection: collection}, nil
}

// Close closes the Qdrant client connection
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// Search performs similarity search restricted by exact-match payload filters
func (s *QdrantStore) Search(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]SearchResult, error) {
	response, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         buildQdrantFilter(filter),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]SearchResult, 0, len(response))
	for _, point := range response {
		results = append(results, SearchResult{
			ID:    pointProfileID(point),
			Score: point.Score,
		})
	}

	return results, nil
}

// buildQdrantFilter turns exact-match fields into a Must filter. Keys are
// sorted so the request is deterministic.
func buildQdrantFilter(filter map[string]string) *qdrant.Filter {
	if len(filter) == 0 {
		return nil
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conditions := make([]*qdrant.Condition, 0, len(keys))
	for _, k := range keys {
		conditions = append(conditions, qdrant.NewMatch(k, filter[k]))
	}
	return &qdrant.Filter{Must: conditions}
}

// pointProfileID prefers the "id" payload field and falls back to the point's
// own UUID, which is the profile id when points are keyed by profile.
func pointProfileID(point *qdrant.ScoredPoint) string {
	if v, ok := point.GetPayload()[FieldProfileID]; ok {
		if id := v.GetStringValue(); id != "" {
			return id
		}
	}
	if uuid := point.GetId().GetUuid(); uuid != "" {
		return uuid
	}
	return strconv.FormatUint(point.GetId().GetNum(), 10)
}

// Ensure QdrantStore implements VectorStore
var _ VectorStore = (*QdrantStore)(nil)
