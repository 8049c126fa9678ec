// Package vectorstore provides semantic similarity search over saved
// content embeddings, backed by pgvector.
package vectorstore

import "context"

// Store provides similarity search over a single collection of content
// embeddings, each tagged with the category and platform of its content so
// callers can scope a search without a join back to shared_content.
type Store interface {
	// Upsert stores or replaces the embedding for a shared content id.
	Upsert(ctx context.Context, sharedContentID string, embedding []float32, category, platform string) error

	// Search returns the most similar embeddings to query, excluding any id
	// in ExcludeIDs, filtered to results at or above SimilarityThreshold.
	Search(ctx context.Context, query SearchQuery) ([]SearchResult, error)

	// Delete removes an embedding (when its shared content is deleted).
	Delete(ctx context.Context, sharedContentID string) error

	// GetEmbeddings loads the stored embeddings for a known set of shared
	// content ids, used by clustering to build its distance matrix directly
	// rather than via a similarity search.
	GetEmbeddings(ctx context.Context, sharedContentIDs []string) (map[string][]float32, error)

	CreateIndex(ctx context.Context) error
}

// SearchQuery configures a similarity search.
type SearchQuery struct {
	Embedding           []float32
	Limit               int
	SimilarityThreshold float64
	Category            string
	ExcludeIDs          []string
}

// SearchResult is one match from Search.
type SearchResult struct {
	SharedContentID string
	Similarity      float64
	Distance        float64
}

// DefaultSearchQuery returns sensible defaults for an ad-hoc similarity
// lookup (not used by clustering, which fetches the full category set).
func DefaultSearchQuery(embedding []float32) SearchQuery {
	return SearchQuery{
		Embedding:           embedding,
		Limit:               10,
		SimilarityThreshold: 0.7,
	}
}
