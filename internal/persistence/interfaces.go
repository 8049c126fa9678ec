// Package persistence provides database abstraction interfaces and a
// Postgres-backed implementation for the saved-content domain.
package persistence

import (
	"context"

	"saveit/internal/core"
)

// UserRepository handles account persistence.
type UserRepository interface {
	Create(ctx context.Context, user *core.User) error
	Get(ctx context.Context, id string) (*core.User, error)
	GetByEmail(ctx context.Context, email string) (*core.User, error)
}

// SharedContentRepository handles the canonical, deduplicated content record.
type SharedContentRepository interface {
	Create(ctx context.Context, sc *core.SharedContent) error
	Get(ctx context.Context, id string) (*core.SharedContent, error)
	GetByURLHash(ctx context.Context, urlHash string) (*core.SharedContent, error)
	GetByURLHashForUpdate(ctx context.Context, urlHash string) (*core.SharedContent, error)
	Update(ctx context.Context, sc *core.SharedContent) error
	IncrementSaveCount(ctx context.Context, id string) error
	DecrementSaveCount(ctx context.Context, id string) error
	ListByStatus(ctx context.Context, status core.ItemStatus, limit int) ([]core.SharedContent, error)
}

// UserContentSaveRepository handles per-user save pointers.
type UserContentSaveRepository interface {
	Create(ctx context.Context, save *core.UserContentSave) error
	Get(ctx context.Context, id string) (*core.UserContentSave, error)
	GetByUserAndContent(ctx context.Context, userID, sharedContentID string) (*core.UserContentSave, error)
	ListByUser(ctx context.Context, userID string, opts ListOptions) ([]core.UserContentSave, error)
	// ListByUserJoined is ListByUser with optional category/status/archived
	// filters, pre-joined against shared_content so a caller displaying a
	// save's title/thumbnail doesn't issue one SharedContent fetch per row.
	ListByUserJoined(ctx context.Context, userID string, opts ListOptions) ([]SaveWithContent, error)
	ListByUserAndCategory(ctx context.Context, userID string, category core.ContentCategory) ([]core.UserContentSave, error)
	CountByUserAndCategory(ctx context.Context, userID string) (map[core.ContentCategory]int, error)
	// ListUserIDsByContent returns the distinct users who have saved
	// sharedContentID, used to fan out a clustering job to every owner once
	// that content's pipeline run completes.
	ListUserIDsByContent(ctx context.Context, sharedContentID string) ([]string, error)
	Update(ctx context.Context, save *core.UserContentSave) error
	Delete(ctx context.Context, id string) error
}

// ClusterRepository handles per-(user, category) cluster records.
type ClusterRepository interface {
	ListByUserAndCategory(ctx context.Context, userID string, category core.ContentCategory) ([]core.Cluster, error)
	Get(ctx context.Context, id string) (*core.Cluster, error)
	// ReplaceForCategory atomically deletes all existing clusters (and their
	// memberships, via cascade) for (userID, category) and inserts the
	// supplied clusters and memberships in their place.
	ReplaceForCategory(ctx context.Context, userID string, category core.ContentCategory, clusters []core.Cluster, memberships map[string][]string) error
	Delete(ctx context.Context, id string) error
	Members(ctx context.Context, clusterID string) ([]core.ClusterMembership, error)
}

// ProcessingJobRepository handles the pipeline audit trail.
type ProcessingJobRepository interface {
	Create(ctx context.Context, job *core.ProcessingJob) error
	Get(ctx context.Context, id string) (*core.ProcessingJob, error)
	UpdateStatus(ctx context.Context, id string, status core.JobStatus, errMsg string) error
	ListBySharedContent(ctx context.Context, sharedContentID string) ([]core.ProcessingJob, error)
}

// ListOptions provides common filtering and pagination options.
type ListOptions struct {
	Limit           int
	Offset          int
	SortBy          string
	Order           string
	Category        *core.ContentCategory
	Status          *core.ItemStatus
	IncludeArchived bool
}

// SaveWithContent pairs a save with the SharedContent it points to, the
// shape ListByUserJoined returns to avoid N+1 fetches.
type SaveWithContent struct {
	Save    core.UserContentSave
	Content core.SharedContent
}

// Database aggregates all repositories over a live connection pool.
type Database interface {
	Users() UserRepository
	SharedContent() SharedContentRepository
	Saves() UserContentSaveRepository
	Clusters() ClusterRepository
	Jobs() ProcessingJobRepository

	Close() error
	Ping(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)

	// WithAdvisoryLock runs fn while holding a transaction-scoped Postgres
	// advisory lock keyed by lockKey, serializing concurrent callers that
	// use the same key (e.g. clustering for the same user+category).
	WithAdvisoryLock(ctx context.Context, lockKey string, fn func(tx Transaction) error) error
}

// Transaction represents a database transaction exposing the same
// repository surface as Database, scoped to the transaction.
type Transaction interface {
	Commit() error
	Rollback() error

	Users() UserRepository
	SharedContent() SharedContentRepository
	Saves() UserContentSaveRepository
	Clusters() ClusterRepository
	Jobs() ProcessingJobRepository
}
