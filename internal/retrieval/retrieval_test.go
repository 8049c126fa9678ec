package retrieval

import (
	"context"
	"testing"

	"saveit/internal/apperrors"
	"saveit/internal/core"
	"saveit/internal/persistence"
)

type fakeSaves struct {
	persistence.UserContentSaveRepository
	joined  []persistence.SaveWithContent
	byID    map[string]*core.UserContentSave
	updated *core.UserContentSave
	deleted string
	counts  map[core.ContentCategory]int
}

func (f *fakeSaves) ListByUserJoined(ctx context.Context, userID string, opts persistence.ListOptions) ([]persistence.SaveWithContent, error) {
	return f.joined, nil
}

func (f *fakeSaves) CountByUserAndCategory(ctx context.Context, userID string) (map[core.ContentCategory]int, error) {
	return f.counts, nil
}

func (f *fakeSaves) Get(ctx context.Context, id string) (*core.UserContentSave, error) {
	save, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NotFound("save %s not found", id)
	}
	return save, nil
}

func (f *fakeSaves) Update(ctx context.Context, save *core.UserContentSave) error {
	f.updated = save
	return nil
}

func (f *fakeSaves) Delete(ctx context.Context, id string) error {
	f.deleted = id
	return nil
}

type fakeContent struct {
	persistence.SharedContentRepository
	byID      map[string]*core.SharedContent
	decrement string
}

func (f *fakeContent) Get(ctx context.Context, id string) (*core.SharedContent, error) {
	return f.byID[id], nil
}

func (f *fakeContent) DecrementSaveCount(ctx context.Context, id string) error {
	f.decrement = id
	return nil
}

type fakeClusters struct {
	persistence.ClusterRepository
	byID       map[string]*core.Cluster
	byCategory map[core.ContentCategory][]core.Cluster
	members    map[string][]core.ClusterMembership
	deleted    string
}

func (f *fakeClusters) ListByUserAndCategory(ctx context.Context, userID string, category core.ContentCategory) ([]core.Cluster, error) {
	return f.byCategory[category], nil
}

func (f *fakeClusters) Get(ctx context.Context, id string) (*core.Cluster, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NotFound("cluster %s not found", id)
	}
	return c, nil
}

func (f *fakeClusters) Members(ctx context.Context, clusterID string) ([]core.ClusterMembership, error) {
	return f.members[clusterID], nil
}

func (f *fakeClusters) Delete(ctx context.Context, id string) error {
	f.deleted = id
	return nil
}

type fakeRetrievalDB struct {
	persistence.Database
	saves    *fakeSaves
	content  *fakeContent
	clusters *fakeClusters
}

func (f *fakeRetrievalDB) Saves() persistence.UserContentSaveRepository       { return f.saves }
func (f *fakeRetrievalDB) SharedContent() persistence.SharedContentRepository { return f.content }
func (f *fakeRetrievalDB) Clusters() persistence.ClusterRepository            { return f.clusters }

func newTestDB() *fakeRetrievalDB {
	return &fakeRetrievalDB{
		saves:    &fakeSaves{byID: map[string]*core.UserContentSave{}},
		content:  &fakeContent{byID: map[string]*core.SharedContent{}},
		clusters: &fakeClusters{byID: map[string]*core.Cluster{}, byCategory: map[core.ContentCategory][]core.Cluster{}, members: map[string][]core.ClusterMembership{}},
	}
}

func TestListSavesMapsJoinedRows(t *testing.T) {
	db := newTestDB()
	db.saves.joined = []persistence.SaveWithContent{
		{
			Save:    core.UserContentSave{ID: "save-1", Note: "n"},
			Content: core.SharedContent{URL: "https://example.com", Title: "T", Status: core.StatusReady},
		},
	}
	svc := NewService(db)

	items, err := svc.ListSaves(context.Background(), "user-1", ListSavesOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Title != "T" || items[0].ID != "save-1" {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestGetSaveForbidsOtherUser(t *testing.T) {
	db := newTestDB()
	db.saves.byID["save-1"] = &core.UserContentSave{ID: "save-1", UserID: "owner", SharedContentID: "content-1"}
	db.content.byID["content-1"] = &core.SharedContent{ID: "content-1"}
	svc := NewService(db)

	_, err := svc.GetSave(context.Background(), "someone-else", "save-1")
	if !apperrors.Is(err, apperrors.KindForbidden) {
		t.Errorf("expected KindForbidden, got %v", err)
	}
}

func TestGetSaveSucceedsForOwner(t *testing.T) {
	db := newTestDB()
	db.saves.byID["save-1"] = &core.UserContentSave{ID: "save-1", UserID: "owner", SharedContentID: "content-1"}
	db.content.byID["content-1"] = &core.SharedContent{ID: "content-1", Title: "Lisbon"}
	svc := NewService(db)

	item, err := svc.GetSave(context.Background(), "owner", "save-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Title != "Lisbon" {
		t.Errorf("unexpected item: %+v", item)
	}
}

func TestUpdateSaveAppliesOnlySetFields(t *testing.T) {
	db := newTestDB()
	db.saves.byID["save-1"] = &core.UserContentSave{ID: "save-1", UserID: "owner", Note: "old", IsFavorited: false}
	svc := NewService(db)

	favorite := true
	_, err := svc.UpdateSave(context.Background(), "owner", "save-1", SaveUpdateFields{IsFavorited: &favorite})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db.saves.updated.Note != "old" {
		t.Errorf("expected Note untouched, got %q", db.saves.updated.Note)
	}
	if !db.saves.updated.IsFavorited {
		t.Errorf("expected IsFavorited true")
	}
}

func TestUpdateSaveForbidsOtherUser(t *testing.T) {
	db := newTestDB()
	db.saves.byID["save-1"] = &core.UserContentSave{ID: "save-1", UserID: "owner"}
	svc := NewService(db)

	_, err := svc.UpdateSave(context.Background(), "intruder", "save-1", SaveUpdateFields{})
	if !apperrors.Is(err, apperrors.KindForbidden) {
		t.Errorf("expected KindForbidden, got %v", err)
	}
}

func TestDeleteSaveDecrementsContentCount(t *testing.T) {
	db := newTestDB()
	db.saves.byID["save-1"] = &core.UserContentSave{ID: "save-1", UserID: "owner", SharedContentID: "content-1"}
	svc := NewService(db)

	if err := svc.DeleteSave(context.Background(), "owner", "save-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db.saves.deleted != "save-1" {
		t.Errorf("expected save-1 to be deleted, got %q", db.saves.deleted)
	}
	if db.content.decrement != "content-1" {
		t.Errorf("expected content-1's save_count to be decremented, got %q", db.content.decrement)
	}
}

func TestListClustersFiltersByCategory(t *testing.T) {
	db := newTestDB()
	db.clusters.byCategory[core.CategoryTravel] = []core.Cluster{{ID: "cluster-1", UserID: "user-1", ContentCategory: core.CategoryTravel}}
	db.clusters.members["cluster-1"] = []core.ClusterMembership{{ClusterID: "cluster-1", SaveID: "save-1"}, {ClusterID: "cluster-1", SaveID: "save-2"}}
	svc := NewService(db)

	category := core.CategoryTravel
	summaries, err := svc.ListClusters(context.Background(), "user-1", &category)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summaries) != 1 || summaries[0].ItemCount != 2 {
		t.Errorf("unexpected summaries: %+v", summaries)
	}
}

func TestGetClusterForbidsOtherUser(t *testing.T) {
	db := newTestDB()
	db.clusters.byID["cluster-1"] = &core.Cluster{ID: "cluster-1", UserID: "owner"}
	svc := NewService(db)

	_, err := svc.GetCluster(context.Background(), "intruder", "cluster-1")
	if !apperrors.Is(err, apperrors.KindForbidden) {
		t.Errorf("expected KindForbidden, got %v", err)
	}
}

func TestDeleteClusterForbidsOtherUser(t *testing.T) {
	db := newTestDB()
	db.clusters.byID["cluster-1"] = &core.Cluster{ID: "cluster-1", UserID: "owner"}
	svc := NewService(db)

	err := svc.DeleteCluster(context.Background(), "intruder", "cluster-1")
	if !apperrors.Is(err, apperrors.KindForbidden) {
		t.Errorf("expected KindForbidden, got %v", err)
	}
}
