package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PgvectorStore implements VectorStore over the embedding column of the
// profile table using the pgvector extension.
type PgvectorStore struct {
	pool  *pgxpool.Pool
	table string
	// columns that may appear in a filter; anything else is rejected
	filterable map[string]bool
}

// NewPgvectorStore creates a store that searches table.embedding by cosine distance
func NewPgvectorStore(pool *pgxpool.Pool, table string) *PgvectorStore {
	if table == "" {
		table = "user_profiles"
	}
	return &PgvectorStore{
		pool:  pool,
		table: table,
		filterable: map[string]bool{
			FieldUserType: true,
		},
	}
}

// Search returns the nearest profiles by cosine distance. Score is the cosine
// similarity (1 - distance).
func (s *PgvectorStore) Search(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]SearchResult, error) {
	query, args, err := s.buildSearchQuery(pgvector.NewVector(vector), topK, filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SearchResult, error) {
		var r SearchResult
		err := row.Scan(&r.ID, &r.Score)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan search results: %w", err)
	}

	return results, nil
}

func (s *PgvectorStore) buildSearchQuery(vector pgvector.Vector, topK int, filter map[string]string) (string, []any, error) {
	args := []any{vector}
	where := []string{"embedding IS NOT NULL"}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !s.filterable[k] {
			return "", nil, fmt.Errorf("unsupported filter field %q", k)
		}
		args = append(args, filter[k])
		where = append(where, fmt.Sprintf("%s = $%d", k, len(args)))
	}

	args = append(args, topK)
	query := fmt.Sprintf(`
		SELECT id::text, (1 - (embedding <=> $1))::real AS similarity
		FROM %s
		WHERE %s
		ORDER BY embedding <=> $1
		LIMIT $%d`,
		s.table, strings.Join(where, " AND "), len(args))

	return query, args, nil
}

// Ensure PgvectorStore implements VectorStore
var _ VectorStore = (*PgvectorStore)(nil)
