// Package pipeline processes a saved SharedContent item from PENDING
// through READY, assigning its authoritative content_category along the
// way. Stages run in order and any stage error marks the item FAILED.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"saveit/internal/aiprovider"
	"saveit/internal/core"
	"saveit/internal/logger"
	"saveit/internal/persistence"
)

// ContentPipeline orchestrates ingestion -> enrichment -> analysis ->
// vectorization for one SharedContent at a time.
type ContentPipeline struct {
	db       persistence.Database
	metadata MetadataFetcher
	classify Classifier
	embed    Embedder
	vectors  VectorUpserter

	autoEnqueueCluster func(ctx context.Context, sharedContentID string, category core.ContentCategory) error
	minItemsToCluster  int
}

// Config configures a ContentPipeline.
type Config struct {
	// MinItemsForClustering enables AutoEnqueueCluster when positive. The
	// pipeline does not count saves itself; the per-user category threshold
	// is applied inside the AutoEnqueueCluster hook.
	MinItemsForClustering int
	// AutoEnqueueCluster is invoked after a run that takes the content to
	// READY, when MinItemsForClustering is positive. sharedContentID
	// identifies the content that just became READY, so the caller can look
	// up which user(s) saved it and enqueue a clustering job per owner. Nil
	// disables auto-enqueueing.
	AutoEnqueueCluster func(ctx context.Context, sharedContentID string, category core.ContentCategory) error
}

func NewContentPipeline(db persistence.Database, metadata MetadataFetcher, classify Classifier, embed Embedder, vectors VectorUpserter, cfg Config) *ContentPipeline {
	return &ContentPipeline{
		db:                 db,
		metadata:           metadata,
		classify:           classify,
		embed:              embed,
		vectors:            vectors,
		autoEnqueueCluster: cfg.AutoEnqueueCluster,
		minItemsToCluster:  cfg.MinItemsForClustering,
	}
}

// Result reports the outcome of processing one SharedContent item.
type Result struct {
	Success         bool
	SharedContentID string
	ContentCategory core.ContentCategory
	ErrorMessage    string
}

// Process runs the full pipeline for the SharedContent identified by id.
// Already-READY content is a no-op success (idempotent against redelivery).
func (p *ContentPipeline) Process(ctx context.Context, sharedContentID string) Result {
	content, err := p.db.SharedContent().Get(ctx, sharedContentID)
	if err != nil {
		return Result{Success: false, SharedContentID: sharedContentID, ErrorMessage: fmt.Sprintf("load content: %v", err)}
	}

	if content.Status == core.StatusReady {
		return Result{
			Success:         true,
			SharedContentID: sharedContentID,
			ContentCategory: derefCategory(content.ContentCategory),
		}
	}

	content.Status = core.StatusProcessing
	if err := p.db.SharedContent().Update(ctx, content); err != nil {
		return Result{Success: false, SharedContentID: sharedContentID, ErrorMessage: fmt.Sprintf("mark processing: %v", err)}
	}

	analysis, err := p.run(ctx, content)
	if err != nil {
		content.Status = core.StatusFailed
		content.LastError = err.Error()
		if updateErr := p.db.SharedContent().Update(ctx, content); updateErr != nil {
			logger.Error("failed to persist FAILED status", updateErr, "shared_content_id", sharedContentID)
		}
		return Result{Success: false, SharedContentID: sharedContentID, ErrorMessage: err.Error()}
	}

	logger.Info("content processed", "shared_content_id", sharedContentID, "category", analysis.category)

	if p.autoEnqueueCluster != nil && p.minItemsToCluster > 0 {
		p.maybeEnqueueClustering(ctx, sharedContentID, analysis.category)
	}

	return Result{
		Success:         true,
		SharedContentID: sharedContentID,
		ContentCategory: analysis.category,
	}
}

type analysisOutcome struct {
	category core.ContentCategory
}

// run executes the four stages in order and persists the combined result.
func (p *ContentPipeline) run(ctx context.Context, content *core.SharedContent) (*analysisOutcome, error) {
	if err := p.runIngestion(ctx, content); err != nil {
		return nil, fmt.Errorf("ingestion: %w", err)
	}

	p.runEnrichment(content)

	result, err := p.runAnalysis(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}

	embeddingID, err := p.runVectorization(ctx, content, result)
	if err != nil {
		return nil, fmt.Errorf("vectorization: %w", err)
	}

	content.Status = core.StatusReady
	content.ContentCategory = &result.Category
	content.TopicMain = result.TopicMain
	content.Subcategories = result.Subcategories
	content.Locations = result.Locations
	content.Entities = result.Entities
	content.Intent = &result.Intent
	content.VisualDescription = result.VisualDescription
	content.VisualTags = result.VisualTags
	content.EmbeddingID = &embeddingID
	content.LastError = ""
	content.UpdatedAt = time.Now()

	if err := p.db.SharedContent().Update(ctx, content); err != nil {
		return nil, fmt.Errorf("persist processed content: %w", err)
	}

	return &analysisOutcome{category: result.Category}, nil
}

// runIngestion fetches platform metadata when the saved item arrived
// without it. A nil fetcher, or a fetcher error, is non-fatal: enrichment
// still has whatever metadata was supplied at save time.
func (p *ContentPipeline) runIngestion(ctx context.Context, content *core.SharedContent) error {
	if p.metadata == nil || content.Title != "" {
		return nil
	}

	meta, err := p.metadata.Fetch(ctx, content.URL, content.SourcePlatform)
	if err != nil {
		logger.Warn("metadata fetch failed, continuing with saved metadata", "url", content.URL, "error", err)
		return nil
	}
	if meta == nil {
		return nil
	}

	content.Title = meta.Title
	if content.Caption == "" {
		content.Caption = meta.Caption
	}
	if content.Description == "" {
		content.Description = meta.Description
	}
	if content.ThumbnailRef == "" {
		content.ThumbnailRef = meta.ThumbnailRef
	}
	if content.DurationSecs == 0 {
		content.DurationSecs = meta.DurationSeconds
	}
	return nil
}

// runEnrichment unifies whatever text is available into one field for
// classification and embedding. Full transcription/OCR extraction is out of
// scope here; this stage only unifies metadata already on hand.
func (p *ContentPipeline) runEnrichment(content *core.SharedContent) {
	var parts []string
	if content.Title != "" {
		parts = append(parts, "Title: "+content.Title)
	}
	if content.Caption != "" {
		parts = append(parts, "Caption: "+content.Caption)
	}
	if content.Description != "" {
		parts = append(parts, "Description: "+content.Description)
	}
	content.ContentText = strings.Join(parts, "\n")
}

// runAnalysis assigns the authoritative content_category. This is the only
// stage permitted to set ContentCategory; once status reaches READY the
// category is immutable.
func (p *ContentPipeline) runAnalysis(ctx context.Context, content *core.SharedContent) (*aiprovider.ClassificationResult, error) {
	input := aiprovider.ClassificationInput{
		Title:       content.Title,
		Caption:     content.Caption,
		ContentText: content.ContentText,
		Platform:    content.SourcePlatform,
	}

	result, err := p.classify.Classify(ctx, input)
	if err != nil {
		return nil, err
	}
	if !result.Category.Valid() {
		result.Category = core.CategoryMisc
	}
	return result, nil
}

// runVectorization embeds the unified content text and stores it for
// similarity search, returning the embedding's identifier.
func (p *ContentPipeline) runVectorization(ctx context.Context, content *core.SharedContent, analysis *aiprovider.ClassificationResult) (string, error) {
	text := content.ContentText
	if text == "" {
		text = content.Title
	}

	embedding, err := p.embed.Embed(ctx, text)
	if err != nil {
		return "", err
	}

	if err := p.vectors.Upsert(ctx, content.ID, embedding, string(analysis.Category), string(content.SourcePlatform)); err != nil {
		return "", err
	}

	return content.ID, nil
}

// maybeEnqueueClustering fires the auto-enqueue hook. Save-count thresholds
// are evaluated by the caller supplying autoEnqueueCluster (it has the
// per-user counts this pipeline doesn't); this pipeline only signals that a
// category's membership may have changed.
func (p *ContentPipeline) maybeEnqueueClustering(ctx context.Context, sharedContentID string, category core.ContentCategory) {
	if err := p.autoEnqueueCluster(ctx, sharedContentID, category); err != nil {
		logger.Warn("failed to auto-enqueue clustering", "shared_content_id", sharedContentID, "category", category, "error", err)
	}
}

func derefCategory(c *core.ContentCategory) core.ContentCategory {
	if c == nil {
		return core.CategoryMisc
	}
	return *c
}

// NewJobID generates an identifier for a ProcessingJob audit row.
func NewJobID() string {
	return uuid.NewString()
}
