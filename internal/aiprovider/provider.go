// Package aiprovider wraps the Gemini API behind narrow interfaces for
// embedding generation, content classification, and cluster labelling, with
// process-local rate limiting and circuit breaking in front of every call.
package aiprovider

import (
	"context"

	"saveit/internal/core"
)

// EmbeddingProvider turns text into a fixed-dimension vector.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ClassificationResult is the structured output of analysing one piece of
// saved content.
type ClassificationResult struct {
	Category          core.ContentCategory
	Subcategories     []string
	TopicMain         string
	Locations         []string
	Entities          []string
	Intent            core.IntentType
	VisualDescription string
	VisualTags        []string
}

// ClassificationProvider analyses saved content and assigns it a category
// plus the supporting metadata fields.
type ClassificationProvider interface {
	Classify(ctx context.Context, content ClassificationInput) (*ClassificationResult, error)
}

// ClassificationInput carries whatever text the platform-specific save
// produced, for the classifier to reason over.
type ClassificationInput struct {
	Title       string
	Caption     string
	ContentText string
	Platform    core.SourcePlatform
}

// LabelResult is the structured output of labelling a cluster.
type LabelResult struct {
	Label       string
	Description string
}

// LabelSample carries one cluster member's title plus the classification
// fields the fallback and prompt need to produce a specific label: the
// deterministic fallback prefers a shared location, and the LLM prompt is
// grounded on topic/locations/subcategories in addition to the title.
type LabelSample struct {
	Title         string
	TopicMain     string
	Locations     []string
	Subcategories []string
}

// LabellingProvider names a cluster from a sample of its members.
type LabellingProvider interface {
	Label(ctx context.Context, category core.ContentCategory, samples []LabelSample) (*LabelResult, error)
}
