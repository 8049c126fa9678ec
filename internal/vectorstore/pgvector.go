package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// PgVectorAdapter implements Store against a single content_embeddings table,
// using cosine distance for similarity search.
type PgVectorAdapter struct {
	db *sql.DB
}

func NewPgVectorAdapter(db *sql.DB) *PgVectorAdapter {
	return &PgVectorAdapter{db: db}
}

// Upsert stores or replaces the embedding for a shared content id.
func (p *PgVectorAdapter) Upsert(ctx context.Context, sharedContentID string, embedding []float32, category, platform string) error {
	vectorStr := formatVector(embedding)

	query := `
		INSERT INTO content_embeddings (shared_content_id, embedding, content_category, source_platform)
		VALUES ($1, $2::vector, $3, $4)
		ON CONFLICT (shared_content_id) DO UPDATE
		SET embedding = EXCLUDED.embedding,
		    content_category = EXCLUDED.content_category,
		    source_platform = EXCLUDED.source_platform
	`

	if _, err := p.db.ExecContext(ctx, query, sharedContentID, vectorStr, category, platform); err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	return nil
}

// Search finds embeddings most similar to query.Embedding, ordered by
// ascending cosine distance.
func (p *PgVectorAdapter) Search(ctx context.Context, query SearchQuery) ([]SearchResult, error) {
	if query.Limit == 0 {
		query.Limit = 10
	}
	if query.SimilarityThreshold == 0 {
		query.SimilarityThreshold = 0.7
	}

	vectorStr := formatVector(query.Embedding)

	args := []interface{}{vectorStr, query.SimilarityThreshold, query.Limit}
	filters := ""
	if query.Category != "" {
		args = append(args, query.Category)
		filters += fmt.Sprintf(" AND content_category = $%d", len(args))
	}
	if len(query.ExcludeIDs) > 0 {
		args = append(args, pq.Array(query.ExcludeIDs))
		filters += fmt.Sprintf(" AND shared_content_id NOT IN (SELECT unnest($%d::uuid[]))", len(args))
	}

	sqlQuery := fmt.Sprintf(`
		SELECT
			shared_content_id,
			1 - (embedding <=> $1::vector) AS similarity,
			embedding <=> $1::vector AS distance
		FROM content_embeddings
		WHERE 1 - (embedding <=> $1::vector) >= $2
		%s
		ORDER BY embedding <=> $1::vector
		LIMIT $3
	`, filters)

	rows, err := p.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.SharedContentID, &r.Similarity, &r.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return results, nil
}

// Delete removes an embedding (when its shared content is deleted; the
// foreign key's ON DELETE CASCADE also covers this, so this exists for the
// reprocess-without-deleting case).
func (p *PgVectorAdapter) Delete(ctx context.Context, sharedContentID string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM content_embeddings WHERE shared_content_id = $1`, sharedContentID); err != nil {
		return fmt.Errorf("failed to delete embedding: %w", err)
	}
	return nil
}

// GetEmbeddings loads embeddings for a known set of shared content ids.
// pgvector's `vector` type has no lib/pq scan support, so the query casts
// it to text and parseVector reconstructs the []float32.
func (p *PgVectorAdapter) GetEmbeddings(ctx context.Context, sharedContentIDs []string) (map[string][]float32, error) {
	if len(sharedContentIDs) == 0 {
		return map[string][]float32{}, nil
	}

	query := `
		SELECT shared_content_id, embedding::text
		FROM content_embeddings
		WHERE shared_content_id = ANY($1::uuid[])
	`
	rows, err := p.db.QueryContext(ctx, query, pq.Array(sharedContentIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch embeddings: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]float32, len(sharedContentIDs))
	for rows.Next() {
		var id, text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		vec, err := parseVector(text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse embedding for %s: %w", id, err)
		}
		result[id] = vec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return result, nil
}

// CreateIndex creates an HNSW index for approximate nearest neighbor search,
// a no-op if it already exists.
func (p *PgVectorAdapter) CreateIndex(ctx context.Context) error {
	var exists bool
	checkQuery := `
		SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE tablename = 'content_embeddings'
			AND indexname = 'idx_content_embeddings_hnsw'
		)
	`
	if err := p.db.QueryRowContext(ctx, checkQuery).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	if exists {
		return nil
	}

	indexQuery := `
		CREATE INDEX idx_content_embeddings_hnsw
		ON content_embeddings
		USING hnsw (embedding vector_cosine_ops)
		WITH (m = 16, ef_construction = 64)
	`
	if _, err := p.db.ExecContext(ctx, indexQuery); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// formatVector converts an embedding to pgvector's text literal format, e.g.
// [0.1, 0.2, 0.3] -> "[0.100000,0.200000,0.300000]".
func formatVector(embedding []float32) string {
	if len(embedding) == 0 {
		return "[]"
	}

	result := "["
	for i, val := range embedding {
		if i > 0 {
			result += ","
		}
		result += fmt.Sprintf("%f", val)
	}
	result += "]"
	return result
}

// parseVector reverses formatVector's bracket literal, e.g.
// "[0.100000,0.200000]" -> []float32{0.1, 0.2}.
func parseVector(text string) ([]float32, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "[")
	trimmed = strings.TrimSuffix(trimmed, "]")
	if trimmed == "" {
		return nil, nil
	}

	parts := strings.Split(trimmed, ",")
	vec := make([]float32, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", part, err)
		}
		vec[i] = float32(v)
	}
	return vec, nil
}
