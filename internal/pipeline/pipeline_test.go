package pipeline

import (
	"context"
	"errors"
	"testing"

	"saveit/internal/aiprovider"
	"saveit/internal/core"
	"saveit/internal/persistence"
)

type fakeClassifier struct {
	result *aiprovider.ClassificationResult
	err    error
}

func (f *fakeClassifier) Classify(ctx context.Context, input aiprovider.ClassificationInput) (*aiprovider.ClassificationResult, error) {
	return f.result, f.err
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

type fakeVectorUpserter struct {
	calls int
	err   error
}

func (f *fakeVectorUpserter) Upsert(ctx context.Context, sharedContentID string, embedding []float32, category, platform string) error {
	f.calls++
	return f.err
}

type fakeSharedContentRepo struct {
	persistence.SharedContentRepository
	content *core.SharedContent
	updates []*core.SharedContent
}

func (f *fakeSharedContentRepo) Get(ctx context.Context, id string) (*core.SharedContent, error) {
	return f.content, nil
}

func (f *fakeSharedContentRepo) Update(ctx context.Context, sc *core.SharedContent) error {
	f.updates = append(f.updates, sc)
	f.content = sc
	return nil
}

type fakeDB struct {
	persistence.Database
	sharedContent *fakeSharedContentRepo
}

func (f *fakeDB) SharedContent() persistence.SharedContentRepository { return f.sharedContent }

func newPendingContent() *core.SharedContent {
	return &core.SharedContent{
		ID:             "content-1",
		URL:            "https://example.com/post",
		SourcePlatform: core.PlatformInstagram,
		Status:         core.StatusPending,
		Title:          "A trip to Lisbon",
	}
}

func TestProcessAssignsCategoryAndReady(t *testing.T) {
	content := newPendingContent()
	db := &fakeDB{sharedContent: &fakeSharedContentRepo{content: content}}
	classifier := &fakeClassifier{result: &aiprovider.ClassificationResult{
		Category: core.CategoryTravel,
		Intent:   core.IntentInspiration,
	}}
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	vectors := &fakeVectorUpserter{}

	p := NewContentPipeline(db, nil, classifier, embedder, vectors, Config{})
	result := p.Process(context.Background(), "content-1")

	if !result.Success {
		t.Fatalf("expected success, got error: %s", result.ErrorMessage)
	}
	if result.ContentCategory != core.CategoryTravel {
		t.Errorf("expected Travel, got %s", result.ContentCategory)
	}
	if db.sharedContent.content.Status != core.StatusReady {
		t.Errorf("expected READY status, got %s", db.sharedContent.content.Status)
	}
	if vectors.calls != 1 {
		t.Errorf("expected one vector upsert, got %d", vectors.calls)
	}
	if db.sharedContent.content.EmbeddingID == nil || *db.sharedContent.content.EmbeddingID != "content-1" {
		t.Errorf("unexpected embedding id: %v", db.sharedContent.content.EmbeddingID)
	}
}

func TestProcessAlreadyReadyIsNoOp(t *testing.T) {
	content := newPendingContent()
	content.Status = core.StatusReady
	cat := core.CategoryFood
	content.ContentCategory = &cat
	db := &fakeDB{sharedContent: &fakeSharedContentRepo{content: content}}

	p := NewContentPipeline(db, nil, &fakeClassifier{}, &fakeEmbedder{}, &fakeVectorUpserter{}, Config{})
	result := p.Process(context.Background(), "content-1")

	if !result.Success || result.ContentCategory != core.CategoryFood {
		t.Errorf("expected idempotent success with Food, got %+v", result)
	}
	if len(db.sharedContent.updates) != 0 {
		t.Errorf("expected no updates for already-ready content")
	}
}

func TestProcessMarksFailedOnClassifyError(t *testing.T) {
	content := newPendingContent()
	db := &fakeDB{sharedContent: &fakeSharedContentRepo{content: content}}
	classifier := &fakeClassifier{err: errors.New("upstream unavailable")}

	p := NewContentPipeline(db, nil, classifier, &fakeEmbedder{}, &fakeVectorUpserter{}, Config{})
	result := p.Process(context.Background(), "content-1")

	if result.Success {
		t.Fatalf("expected failure")
	}
	if db.sharedContent.content.Status != core.StatusFailed {
		t.Errorf("expected FAILED status, got %s", db.sharedContent.content.Status)
	}
	if db.sharedContent.content.LastError == "" {
		t.Errorf("expected LastError to be recorded")
	}
}

func TestProcessInvalidCategoryFallsBackToMisc(t *testing.T) {
	content := newPendingContent()
	db := &fakeDB{sharedContent: &fakeSharedContentRepo{content: content}}
	classifier := &fakeClassifier{result: &aiprovider.ClassificationResult{Category: "Bogus"}}

	p := NewContentPipeline(db, nil, classifier, &fakeEmbedder{}, &fakeVectorUpserter{}, Config{})
	result := p.Process(context.Background(), "content-1")

	if !result.Success || result.ContentCategory != core.CategoryMisc {
		t.Errorf("expected fallback to Misc, got %+v", result)
	}
}

func TestProcessAutoEnqueuesClustering(t *testing.T) {
	content := newPendingContent()
	db := &fakeDB{sharedContent: &fakeSharedContentRepo{content: content}}
	classifier := &fakeClassifier{result: &aiprovider.ClassificationResult{Category: core.CategoryTravel}}

	var enqueuedContentID string
	var enqueued core.ContentCategory
	cfg := Config{
		MinItemsForClustering: 3,
		AutoEnqueueCluster: func(ctx context.Context, sharedContentID string, category core.ContentCategory) error {
			enqueuedContentID = sharedContentID
			enqueued = category
			return nil
		},
	}

	p := NewContentPipeline(db, nil, classifier, &fakeEmbedder{}, &fakeVectorUpserter{}, cfg)
	p.Process(context.Background(), "content-1")

	if enqueued != core.CategoryTravel {
		t.Errorf("expected auto-enqueue for Travel, got %s", enqueued)
	}
	if enqueuedContentID != "content-1" {
		t.Errorf("expected auto-enqueue for content-1, got %q", enqueuedContentID)
	}
}

func TestRunEnrichmentUnifiesText(t *testing.T) {
	content := &core.SharedContent{Title: "T", Caption: "C", Description: "D"}
	p := &ContentPipeline{}
	p.runEnrichment(content)

	want := "Title: T\nCaption: C\nDescription: D"
	if content.ContentText != want {
		t.Errorf("got %q, want %q", content.ContentText, want)
	}
}
