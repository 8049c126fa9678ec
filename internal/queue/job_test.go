package queue

import (
	"testing"

	"saveit/internal/core"
)

func TestJobMarshalUnmarshalRoundTripIngest(t *testing.T) {
	job := NewIngestContentJob("content-1", "https://example.com/a")

	data, err := job.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := UnmarshalJob(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != job {
		t.Errorf("got %+v, want %+v", got, job)
	}
}

func TestJobMarshalUnmarshalRoundTripClusterWithCategory(t *testing.T) {
	category := core.CategoryTravel
	job := NewClusterUserJob("user-1", &category)

	data, err := job.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := UnmarshalJob(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.JobType != JobClusterUser || got.UserID != "user-1" || got.ContentCategory == nil || *got.ContentCategory != category {
		t.Errorf("unexpected job: %+v", got)
	}
}

func TestJobMarshalClusterWithoutCategoryOmitsField(t *testing.T) {
	job := NewClusterUserJob("user-1", nil)

	data, err := job.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := UnmarshalJob(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ContentCategory != nil {
		t.Errorf("expected nil category for a recluster-all job, got %v", got.ContentCategory)
	}
}
