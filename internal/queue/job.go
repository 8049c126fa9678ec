package queue

import (
	"encoding/json"
	"fmt"

	"saveit/internal/core"
)

// Name identifies one of the two logical queues. NATS subjects and
// JetStream stream names are derived from it.
type Name string

const (
	ContentProcessing Name = "content-processing"
	Clustering        Name = "clustering"
)

// JobType is the closed set of job_type values a message may carry, per the
// queue message formats.
type JobType string

const (
	JobIngestContent JobType = "ingest_content"
	JobClusterUser   JobType = "cluster_user"
)

// Job is the payload every queue message carries: {job_type, ...ids}. Only
// the fields relevant to JobType are populated; the rest are left zero.
type Job struct {
	JobType         JobType               `json:"job_type"`
	SharedContentID string                `json:"shared_content_id,omitempty"`
	URL             string                `json:"url,omitempty"`
	UserID          string                `json:"user_id,omitempty"`
	ContentCategory *core.ContentCategory `json:"content_category,omitempty"`
}

// NewIngestContentJob builds a content-processing message for one
// newly-saved SharedContent.
func NewIngestContentJob(sharedContentID, url string) Job {
	return Job{JobType: JobIngestContent, SharedContentID: sharedContentID, URL: url}
}

// NewClusterUserJob builds a clustering message for one user. A nil category
// means "recluster every category", matching the wire format's optional
// content_category.
func NewClusterUserJob(userID string, category *core.ContentCategory) Job {
	return Job{JobType: JobClusterUser, UserID: userID, ContentCategory: category}
}

func (j Job) Marshal() ([]byte, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("marshal job: %w", err)
	}
	return data, nil
}

func UnmarshalJob(data []byte) (Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return Job{}, fmt.Errorf("unmarshal job: %w", err)
	}
	return j, nil
}
