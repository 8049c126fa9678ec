package pipeline

import (
	"context"

	"saveit/internal/aiprovider"
	"saveit/internal/core"
)

// MetadataFetcher fetches platform metadata (title, caption, thumbnail,
// duration) for a saved URL. Left unimplemented for platforms requiring
// scraping credentials this module doesn't manage; callers may pass a
// no-op fetcher and rely on whatever metadata the client supplied at save
// time.
type MetadataFetcher interface {
	Fetch(ctx context.Context, url string, platform core.SourcePlatform) (*Metadata, error)
}

// Metadata is what ingestion can recover about a saved URL before any text
// extraction or AI analysis runs.
type Metadata struct {
	Title           string
	Caption         string
	Description     string
	ThumbnailRef    string
	DurationSeconds int
}

// Classifier assigns the authoritative content category plus supporting
// metadata. Backed by aiprovider.ClassificationProvider in production.
type Classifier interface {
	Classify(ctx context.Context, input aiprovider.ClassificationInput) (*aiprovider.ClassificationResult, error)
}

// Embedder generates the similarity-search embedding for enriched content
// text. Backed by aiprovider.EmbeddingProvider in production.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorUpserter stores the generated embedding, tagged with category and
// platform so clustering can scope a query. Satisfied by vectorstore.Store.
type VectorUpserter interface {
	Upsert(ctx context.Context, sharedContentID string, embedding []float32, category, platform string) error
}
