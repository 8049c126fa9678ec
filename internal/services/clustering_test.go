package services

import (
	"context"
	"errors"
	"testing"

	"saveit/internal/aiprovider"
	"saveit/internal/core"
	"saveit/internal/persistence"
	"saveit/internal/vectorstore"
)

type fakeSaveRepo struct {
	persistence.UserContentSaveRepository
	saves []core.UserContentSave
}

func (f *fakeSaveRepo) ListByUserAndCategory(ctx context.Context, userID string, category core.ContentCategory) ([]core.UserContentSave, error) {
	return f.saves, nil
}

type fakeClusterRepo struct {
	persistence.ClusterRepository
	replacedClusters    []core.Cluster
	replacedMemberships map[string][]string
}

func (f *fakeClusterRepo) ReplaceForCategory(ctx context.Context, userID string, category core.ContentCategory, clusters []core.Cluster, memberships map[string][]string) error {
	f.replacedClusters = clusters
	f.replacedMemberships = memberships
	return nil
}

type fakeContentRepo struct {
	persistence.SharedContentRepository
	byID map[string]*core.SharedContent
}

func (f *fakeContentRepo) Get(ctx context.Context, id string) (*core.SharedContent, error) {
	return f.byID[id], nil
}

type fakeClusteringDB struct {
	persistence.Database
	saves    *fakeSaveRepo
	clusters *fakeClusterRepo
	content  *fakeContentRepo
}

func (f *fakeClusteringDB) Saves() persistence.UserContentSaveRepository   { return f.saves }
func (f *fakeClusteringDB) Clusters() persistence.ClusterRepository        { return f.clusters }
func (f *fakeClusteringDB) SharedContent() persistence.SharedContentRepository { return f.content }

func (f *fakeClusteringDB) WithAdvisoryLock(ctx context.Context, lockKey string, fn func(tx persistence.Transaction) error) error {
	return fn(&fakeTx{db: f})
}

// fakeTx hands back the same fakes the advisory lock wraps around, since
// the fake repos aren't transaction-scoped.
type fakeTx struct {
	persistence.Transaction
	db *fakeClusteringDB
}

func (t *fakeTx) Clusters() persistence.ClusterRepository { return t.db.clusters }

type fakeVectorStore struct {
	vectorstore.Store
	embeddings map[string][]float32
	err        error
}

func (f *fakeVectorStore) GetEmbeddings(ctx context.Context, ids []string) (map[string][]float32, error) {
	return f.embeddings, f.err
}

type fakeLabeller struct {
	result *aiprovider.LabelResult
	err    error
}

func (f *fakeLabeller) Label(ctx context.Context, category core.ContentCategory, samples []aiprovider.LabelSample) (*aiprovider.LabelResult, error) {
	return f.result, f.err
}

func makeSave(id, contentID string) core.UserContentSave {
	return core.UserContentSave{ID: id, SharedContentID: contentID}
}

func contentWithTitle(id, title string) *core.SharedContent {
	return &core.SharedContent{ID: id, Title: title}
}

// sixPairedEmbeddings returns six vectors in two well-separated clusters,
// far enough apart that average-linkage cleanly splits them into two groups
// of three.
func sixPairedEmbeddings() map[string][]float32 {
	return map[string][]float32{
		"content-1": {1, 0, 0},
		"content-2": {0.95, 0.05, 0},
		"content-3": {0.9, 0.1, 0},
		"content-4": {0, 0, 1},
		"content-5": {0, 0.05, 0.95},
		"content-6": {0, 0.1, 0.9},
	}
}

func newTestService(saves []core.UserContentSave, embeddings map[string][]float32, contentByID map[string]*core.SharedContent, labeller aiprovider.LabellingProvider) (*ClusteringService, *fakeClusterRepo) {
	clusterRepo := &fakeClusterRepo{}
	db := &fakeClusteringDB{
		saves:    &fakeSaveRepo{saves: saves},
		clusters: clusterRepo,
		content:  &fakeContentRepo{byID: contentByID},
	}
	vector := &fakeVectorStore{embeddings: embeddings}
	return NewClusteringService(db, vector, labeller), clusterRepo
}

func TestClusterUserCategoryBelowMinimumReturnsNil(t *testing.T) {
	saves := []core.UserContentSave{makeSave("save-1", "content-1"), makeSave("save-2", "content-2")}
	svc, _ := newTestService(saves, sixPairedEmbeddings(), nil, &fakeLabeller{})

	got, err := svc.ClusterUserCategory(context.Background(), "user-1", core.CategoryTravel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil result below minimum, got %+v", got)
	}
}

func TestClusterUserCategoryGroupsAndReplaces(t *testing.T) {
	saves := []core.UserContentSave{
		makeSave("save-1", "content-1"), makeSave("save-2", "content-2"), makeSave("save-3", "content-3"),
		makeSave("save-4", "content-4"), makeSave("save-5", "content-5"), makeSave("save-6", "content-6"),
	}
	contentByID := map[string]*core.SharedContent{
		"content-1": contentWithTitle("content-1", "Lisbon weekend"),
		"content-2": contentWithTitle("content-2", "Porto day trip"),
		"content-3": contentWithTitle("content-3", "Sintra castles"),
		"content-4": contentWithTitle("content-4", "Pasta recipe"),
		"content-5": contentWithTitle("content-5", "Sourdough bread"),
		"content-6": contentWithTitle("content-6", "Ramen broth"),
	}
	labeller := &fakeLabeller{result: &aiprovider.LabelResult{Label: "Group", Description: "desc"}}
	svc, repo := newTestService(saves, sixPairedEmbeddings(), contentByID, labeller)

	got, err := svc.ClusterUserCategory(context.Background(), "user-1", core.CategoryTravel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 clusters, got %d: %+v", len(got), got)
	}
	for _, c := range got {
		if c.ID == "" {
			t.Errorf("expected a generated cluster id")
		}
		if c.CreatedAt.IsZero() {
			t.Errorf("expected CreatedAt to be set")
		}
		if c.UserID != "user-1" || c.ContentCategory != core.CategoryTravel {
			t.Errorf("unexpected cluster fields: %+v", c)
		}
	}
	if len(repo.replacedClusters) != 2 {
		t.Errorf("expected ReplaceForCategory to receive 2 clusters, got %d", len(repo.replacedClusters))
	}
	for _, c := range repo.replacedClusters {
		members := repo.replacedMemberships[c.ID]
		if len(members) != 3 {
			t.Errorf("expected 3 members per cluster, got %d for %s", len(members), c.ID)
		}
	}
}

func TestClusterUserCategoryFallsBackOnLabelError(t *testing.T) {
	saves := []core.UserContentSave{
		makeSave("save-1", "content-1"), makeSave("save-2", "content-2"), makeSave("save-3", "content-3"),
		makeSave("save-4", "content-4"), makeSave("save-5", "content-5"), makeSave("save-6", "content-6"),
	}
	contentByID := map[string]*core.SharedContent{
		"content-1": contentWithTitle("content-1", "A"), "content-2": contentWithTitle("content-2", "B"),
		"content-3": contentWithTitle("content-3", "C"), "content-4": contentWithTitle("content-4", "D"),
		"content-5": contentWithTitle("content-5", "E"), "content-6": contentWithTitle("content-6", "F"),
	}
	labeller := &fakeLabeller{err: errors.New("llm unavailable")}
	svc, _ := newTestService(saves, sixPairedEmbeddings(), contentByID, labeller)

	got, err := svc.ClusterUserCategory(context.Background(), "user-1", core.CategoryFood)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range got {
		if c.Label == "" {
			t.Errorf("expected fallback label to be set")
		}
	}
}
