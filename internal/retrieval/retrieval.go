// Package retrieval implements the read/update/delete operations an HTTP
// layer would call to list, inspect, and manage a user's saves and
// clusters. It returns plain projection structs, never repository entities
// directly, so the seam stays stable if the persistence layer changes shape.
package retrieval

import (
	"context"
	"fmt"

	"saveit/internal/apperrors"
	"saveit/internal/core"
	"saveit/internal/persistence"
)

// Service exposes the read/update/delete operations a collaborator-facing
// HTTP layer would call. All operations that touch one user's private data
// take callerUserID and enforce ownership, returning apperrors.Forbidden
// when the resource belongs to someone else.
type Service struct {
	db persistence.Database
}

func NewService(db persistence.Database) *Service {
	return &Service{db: db}
}

// SavedItem is a save joined to the content it points to, the shape a list
// or get response would serialize.
type SavedItem struct {
	ID           string
	URL          string
	Title        string
	Caption      string
	Description  string
	ThumbnailRef string
	Category     *core.ContentCategory
	Status       core.ItemStatus
	Note         string
	IsFavorited  bool
	IsArchived   bool
	CreatedAt    string
}

// ListSavesOptions filters and paginates ListSaves.
type ListSavesOptions struct {
	Page            int
	PageSize        int
	Category        *core.ContentCategory
	Status          *core.ItemStatus
	IncludeArchived bool
}

// ListSaves returns one page of a user's saves, newest first.
func (s *Service) ListSaves(ctx context.Context, userID string, opts ListSavesOptions) ([]SavedItem, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	rows, err := s.db.Saves().ListByUserJoined(ctx, userID, persistence.ListOptions{
		Limit:           pageSize,
		Offset:          (page - 1) * pageSize,
		Category:        opts.Category,
		Status:          opts.Status,
		IncludeArchived: opts.IncludeArchived,
	})
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}

	items := make([]SavedItem, len(rows))
	for i, row := range rows {
		items[i] = toSavedItem(row)
	}
	return items, nil
}

// CategoryCounts returns, for each category in which the user has a
// non-archived READY save, the count of such saves.
func (s *Service) CategoryCounts(ctx context.Context, userID string) (map[core.ContentCategory]int, error) {
	counts, err := s.db.Saves().CountByUserAndCategory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("category counts: %w", err)
	}
	return counts, nil
}

// GetSave returns one save (with its content) after checking ownership.
func (s *Service) GetSave(ctx context.Context, callerUserID, saveID string) (*SavedItem, error) {
	save, err := s.db.Saves().Get(ctx, saveID)
	if err != nil {
		return nil, err
	}
	if save.UserID != callerUserID {
		return nil, apperrors.Forbidden("save %s does not belong to caller", saveID)
	}

	content, err := s.db.SharedContent().Get(ctx, save.SharedContentID)
	if err != nil {
		return nil, fmt.Errorf("load content for save %s: %w", saveID, err)
	}

	item := toSavedItem(persistence.SaveWithContent{Save: *save, Content: *content})
	return &item, nil
}

// SaveUpdateFields are the only fields a caller may update on a save;
// these never touch the underlying SharedContent.
type SaveUpdateFields struct {
	Note        *string
	IsFavorited *bool
	IsArchived  *bool
}

// UpdateSave applies the supplied fields to one save after checking
// ownership, leaving unset fields untouched.
func (s *Service) UpdateSave(ctx context.Context, callerUserID, saveID string, fields SaveUpdateFields) (*core.UserContentSave, error) {
	save, err := s.db.Saves().Get(ctx, saveID)
	if err != nil {
		return nil, err
	}
	if save.UserID != callerUserID {
		return nil, apperrors.Forbidden("save %s does not belong to caller", saveID)
	}

	if fields.Note != nil {
		save.Note = *fields.Note
	}
	if fields.IsFavorited != nil {
		save.IsFavorited = *fields.IsFavorited
	}
	if fields.IsArchived != nil {
		save.IsArchived = *fields.IsArchived
	}

	if err := s.db.Saves().Update(ctx, save); err != nil {
		return nil, fmt.Errorf("update save %s: %w", saveID, err)
	}
	return save, nil
}

// DeleteSave removes a save after checking ownership, decrementing its
// content's save_count. SharedContent itself is left intact for other
// users who may have saved the same URL.
func (s *Service) DeleteSave(ctx context.Context, callerUserID, saveID string) error {
	save, err := s.db.Saves().Get(ctx, saveID)
	if err != nil {
		return err
	}
	if save.UserID != callerUserID {
		return apperrors.Forbidden("save %s does not belong to caller", saveID)
	}

	if err := s.db.Saves().Delete(ctx, saveID); err != nil {
		return fmt.Errorf("delete save %s: %w", saveID, err)
	}
	if err := s.db.SharedContent().DecrementSaveCount(ctx, save.SharedContentID); err != nil {
		return fmt.Errorf("decrement save count for %s: %w", save.SharedContentID, err)
	}
	return nil
}

// ClusterSummary is a cluster plus its item count, the shape a list
// response would serialize.
type ClusterSummary struct {
	Cluster   core.Cluster
	ItemCount int
}

// ListClusters returns a user's clusters, optionally filtered to one
// category, each annotated with its member count.
func (s *Service) ListClusters(ctx context.Context, userID string, category *core.ContentCategory) ([]ClusterSummary, error) {
	clusters, err := s.listClustersForUser(ctx, userID, category)
	if err != nil {
		return nil, err
	}

	summaries := make([]ClusterSummary, len(clusters))
	for i, c := range clusters {
		members, err := s.db.Clusters().Members(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("count members for cluster %s: %w", c.ID, err)
		}
		summaries[i] = ClusterSummary{Cluster: c, ItemCount: len(members)}
	}
	return summaries, nil
}

func (s *Service) listClustersForUser(ctx context.Context, userID string, category *core.ContentCategory) ([]core.Cluster, error) {
	if category != nil {
		return s.db.Clusters().ListByUserAndCategory(ctx, userID, *category)
	}

	var all []core.Cluster
	for _, cat := range core.AllCategories {
		clusters, err := s.db.Clusters().ListByUserAndCategory(ctx, userID, cat)
		if err != nil {
			return nil, fmt.Errorf("list clusters for category %s: %w", cat, err)
		}
		all = append(all, clusters...)
	}
	return all, nil
}

// ClusterWithItems is a cluster and the saves that belong to it.
type ClusterWithItems struct {
	Cluster core.Cluster
	Items   []SavedItem
}

// GetCluster returns one cluster with its member saves after checking
// ownership.
func (s *Service) GetCluster(ctx context.Context, callerUserID, clusterID string) (*ClusterWithItems, error) {
	cluster, err := s.db.Clusters().Get(ctx, clusterID)
	if err != nil {
		return nil, err
	}
	if cluster.UserID != callerUserID {
		return nil, apperrors.Forbidden("cluster %s does not belong to caller", clusterID)
	}

	memberships, err := s.db.Clusters().Members(ctx, clusterID)
	if err != nil {
		return nil, fmt.Errorf("load members for cluster %s: %w", clusterID, err)
	}

	items := make([]SavedItem, 0, len(memberships))
	for _, m := range memberships {
		save, err := s.db.Saves().Get(ctx, m.SaveID)
		if err != nil {
			return nil, fmt.Errorf("load save %s in cluster %s: %w", m.SaveID, clusterID, err)
		}
		content, err := s.db.SharedContent().Get(ctx, save.SharedContentID)
		if err != nil {
			return nil, fmt.Errorf("load content for save %s: %w", m.SaveID, err)
		}
		items = append(items, toSavedItem(persistence.SaveWithContent{Save: *save, Content: *content}))
	}

	return &ClusterWithItems{Cluster: *cluster, Items: items}, nil
}

// DeleteCluster removes a cluster after checking ownership. Memberships
// cascade; the saves themselves are untouched.
func (s *Service) DeleteCluster(ctx context.Context, callerUserID, clusterID string) error {
	cluster, err := s.db.Clusters().Get(ctx, clusterID)
	if err != nil {
		return err
	}
	if cluster.UserID != callerUserID {
		return apperrors.Forbidden("cluster %s does not belong to caller", clusterID)
	}
	if err := s.db.Clusters().Delete(ctx, clusterID); err != nil {
		return fmt.Errorf("delete cluster %s: %w", clusterID, err)
	}
	return nil
}

func toSavedItem(row persistence.SaveWithContent) SavedItem {
	return SavedItem{
		ID:           row.Save.ID,
		URL:          row.Content.URL,
		Title:        row.Content.Title,
		Caption:      row.Content.Caption,
		Description:  row.Content.Description,
		ThumbnailRef: row.Content.ThumbnailRef,
		Category:     row.Content.ContentCategory,
		Status:       row.Content.Status,
		Note:         row.Save.Note,
		IsFavorited:  row.Save.IsFavorited,
		IsArchived:   row.Save.IsArchived,
		CreatedAt:    row.Save.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
