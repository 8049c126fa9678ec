package core

import (
	"testing"
	"time"
)

func TestSharedContentCreation(t *testing.T) {
	now := time.Now()
	cat := CategoryTravel
	sc := SharedContent{
		ID:              "sc-1",
		URL:             "https://instagram.com/p/abc123",
		URLHash:         "deadbeef",
		SourcePlatform:  PlatformInstagram,
		Status:          StatusReady,
		ContentCategory: &cat,
		Title:           "Hidden gem in Lisbon",
		Subcategories:   []string{"food", "nightlife"},
		SaveCount:       3,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if sc.ID != "sc-1" {
		t.Errorf("expected ID sc-1, got %s", sc.ID)
	}
	if sc.ContentCategory == nil || *sc.ContentCategory != CategoryTravel {
		t.Errorf("expected category Travel, got %v", sc.ContentCategory)
	}
	if sc.SaveCount != 3 {
		t.Errorf("expected save count 3, got %d", sc.SaveCount)
	}
}

func TestContentCategoryValid(t *testing.T) {
	cases := []struct {
		cat  ContentCategory
		want bool
	}{
		{CategoryTravel, true},
		{CategoryMisc, true},
		{ContentCategory("Bogus"), false},
		{ContentCategory(""), false},
	}
	for _, c := range cases {
		if got := c.cat.Valid(); got != c.want {
			t.Errorf("ContentCategory(%q).Valid() = %v, want %v", c.cat, got, c.want)
		}
	}
}

func TestSourcePlatformValid(t *testing.T) {
	cases := []struct {
		p    SourcePlatform
		want bool
	}{
		{PlatformInstagram, true},
		{PlatformYouTube, true},
		{PlatformUnknown, true},
		{SourcePlatform("tiktok"), false},
	}
	for _, c := range cases {
		if got := c.p.Valid(); got != c.want {
			t.Errorf("SourcePlatform(%q).Valid() = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestUserContentSave(t *testing.T) {
	now := time.Now()
	save := UserContentSave{
		ID:              "save-1",
		UserID:          "user-1",
		SharedContentID: "sc-1",
		Note:            "for the weekend trip",
		IsFavorited:     true,
		CreatedAt:       now,
	}
	if !save.IsFavorited {
		t.Errorf("expected IsFavorited true")
	}
	if save.LastViewedAt != nil {
		t.Errorf("expected LastViewedAt nil by default")
	}
}

func TestClusterAndMembership(t *testing.T) {
	cluster := Cluster{
		ID:              "cl-1",
		UserID:          "user-1",
		ContentCategory: CategoryFood,
		Label:           "Lisbon food spots",
	}
	membership := ClusterMembership{ClusterID: cluster.ID, SaveID: "save-1"}
	if membership.ClusterID != "cl-1" {
		t.Errorf("expected cluster id cl-1, got %s", membership.ClusterID)
	}
}

func TestProcessingJobStatuses(t *testing.T) {
	job := ProcessingJob{ID: "job-1", SharedContentID: "sc-1", JobType: "enrich", Status: JobPending}
	job.Status = JobRunning
	if job.Status != JobRunning {
		t.Errorf("expected status RUNNING, got %s", job.Status)
	}
}

func TestDedupeStrings(t *testing.T) {
	in := []string{"food", "nightlife", "food", "", "nightlife", "views"}
	got := DedupeStrings(in)
	want := []string{"food", "nightlife", "views"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
			break
		}
	}
}
