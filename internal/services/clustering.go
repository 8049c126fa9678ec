// Package services hosts orchestration that spans multiple repositories
// and the AI/clustering layers, as opposed to the repository-level reads
// and updates in internal/retrieval.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"saveit/internal/aiprovider"
	"saveit/internal/clustering"
	"saveit/internal/core"
	"saveit/internal/logger"
	"saveit/internal/persistence"
	"saveit/internal/vectorstore"
)

// ClusteringService groups a user's READY saves within one category into
// labeled clusters: fetch saves -> fetch vectors -> cluster -> label ->
// atomically replace.
type ClusteringService struct {
	db     persistence.Database
	vector vectorstore.Store
	labels aiprovider.LabellingProvider
}

func NewClusteringService(db persistence.Database, vector vectorstore.Store, labels aiprovider.LabellingProvider) *ClusteringService {
	return &ClusteringService{db: db, vector: vector, labels: labels}
}

// ClusterUserCategory re-clusters one user's saves within one category and
// atomically replaces their existing clusters. Returns the empty slice (not
// an error) when there are too few items to cluster.
func (s *ClusteringService) ClusterUserCategory(ctx context.Context, userID string, category core.ContentCategory) ([]core.Cluster, error) {
	saves, err := s.db.Saves().ListByUserAndCategory(ctx, userID, category)
	if err != nil {
		return nil, fmt.Errorf("list saves for clustering: %w", err)
	}
	if len(saves) < clustering.MinItemsForClustering {
		return nil, nil
	}

	contentIDs := make([]string, len(saves))
	saveByContentID := make(map[string]core.UserContentSave, len(saves))
	for i, save := range saves {
		contentIDs[i] = save.SharedContentID
		saveByContentID[save.SharedContentID] = save
	}

	embeddingsByContent, err := s.vector.GetEmbeddings(ctx, contentIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch embeddings for clustering: %w", err)
	}

	var saveIDs []string
	var embeddings [][]float64
	for _, contentID := range contentIDs {
		vec, ok := embeddingsByContent[contentID]
		if !ok {
			continue
		}
		saveIDs = append(saveIDs, saveByContentID[contentID].ID)
		embeddings = append(embeddings, toFloat64(vec))
	}
	if len(saveIDs) < clustering.MinItemsForClustering {
		return nil, nil
	}

	groups, err := clustering.Cluster(saveIDs, embeddings)
	if err != nil {
		return nil, fmt.Errorf("cluster: %w", err)
	}
	if len(groups) == 0 {
		return nil, nil
	}

	saveByID := make(map[string]core.UserContentSave, len(saves))
	for _, save := range saves {
		saveByID[save.ID] = save
	}
	contentByID, err := s.loadContentForLabeling(ctx, saves)
	if err != nil {
		return nil, err
	}

	clusters := make([]core.Cluster, len(groups))
	memberships := make(map[string][]string, len(groups))

	for i, group := range groups {
		samples := sampleMembersFor(group, saveByID, contentByID)

		label, err := s.labels.Label(ctx, category, samples)
		if err != nil {
			logger.Warn("cluster labeling failed, using fallback", "category", category, "error", err)
			label = aiprovider.FallbackLabel(category, samples)
		}

		clusters[i] = core.Cluster{
			ID:              uuid.NewString(),
			UserID:          userID,
			ContentCategory: category,
			Label:           label.Label,
			Description:     label.Description,
			CreatedAt:       time.Now(),
		}
		memberships[clusters[i].ID] = group.Ids
	}

	lockKey := fmt.Sprintf("cluster:%s:%s", userID, category)
	err = s.db.WithAdvisoryLock(ctx, lockKey, func(tx persistence.Transaction) error {
		return tx.Clusters().ReplaceForCategory(ctx, userID, category, clusters, memberships)
	})
	if err != nil {
		return nil, fmt.Errorf("replace clusters: %w", err)
	}

	return clusters, nil
}

// loadContentForLabeling fetches the SharedContent each save points to, so
// cluster labeling has titles/topics to work from.
func (s *ClusteringService) loadContentForLabeling(ctx context.Context, saves []core.UserContentSave) (map[string]*core.SharedContent, error) {
	byID := make(map[string]*core.SharedContent, len(saves))
	seen := make(map[string]bool, len(saves))
	for _, save := range saves {
		if seen[save.SharedContentID] {
			continue
		}
		seen[save.SharedContentID] = true

		content, err := s.db.SharedContent().Get(ctx, save.SharedContentID)
		if err != nil {
			return nil, fmt.Errorf("load content %s: %w", save.SharedContentID, err)
		}
		byID[save.SharedContentID] = content
	}
	return byID, nil
}

// sampleMembersFor collects each sampled member's title plus the
// classification fields labelling needs: topic, locations, and
// subcategories, so both the LLM prompt and the deterministic fallback can
// ground a label in more than just titles.
func sampleMembersFor(group clustering.Result, saveByID map[string]core.UserContentSave, contentByID map[string]*core.SharedContent) []aiprovider.LabelSample {
	const maxSamples = 5

	var samples []aiprovider.LabelSample
	for _, saveID := range group.Ids {
		if len(samples) >= maxSamples {
			break
		}
		save, ok := saveByID[saveID]
		if !ok {
			continue
		}
		content, ok := contentByID[save.SharedContentID]
		if !ok || content.Title == "" {
			continue
		}
		samples = append(samples, aiprovider.LabelSample{
			Title:         content.Title,
			TopicMain:     content.TopicMain,
			Locations:     content.Locations,
			Subcategories: content.Subcategories,
		})
	}
	return samples
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
