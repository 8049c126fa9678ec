package cmd

import (
	"context"
	"fmt"

	"saveit/internal/aiprovider"
	"saveit/internal/config"
	"saveit/internal/core"
	"saveit/internal/persistence"
	"saveit/internal/pipeline"
	"saveit/internal/queue"
	"saveit/internal/services"
	"saveit/internal/vectorstore"
)

// app bundles the components every subcommand needs, assembled once from
// typed configuration. Subcommands take only the pieces they use.
type app struct {
	cfg        *config.Config
	db         *persistence.PostgresDB
	ai         *aiprovider.GeminiClient
	vectors    vectorstore.Store
	clustering *services.ClusteringService
	queueCfg   queue.Config
	publisher  *queue.Publisher
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := persistence.NewPostgresDB(cfg.Database.ConnectionString, cfg.Database.MaxConnections, cfg.Database.IdleConnections)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	ai, err := aiprovider.NewGeminiClient(ctx, aiprovider.Config{
		APIKey:              cfg.AI.Gemini.APIKey,
		ClassificationModel: cfg.AI.Gemini.ClassificationModel,
		EmbeddingModel:      cfg.AI.Gemini.EmbeddingModel,
		LabellingModel:      cfg.AI.Gemini.LabellingModel,
		EmbeddingDimensions: int32(cfg.AI.Gemini.EmbeddingDimensions),
		RateLimitRPS:        cfg.AI.RateLimitRPS,
		BreakerWindow:       cfg.AI.BreakerWindow,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	vectors := vectorstore.NewPgVectorAdapter(db.SQLDB())

	queueCfg := queue.DefaultConfig(cfg.Queue.URL)
	queueCfg.VisibilityTimeout = cfg.Queue.AckWait
	queueCfg.MaxDeliver = cfg.Queue.MaxRedeliver

	publisher, err := queue.NewPublisher(queueCfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create queue publisher: %w", err)
	}

	clusteringSvc := services.NewClusteringService(db, vectors, ai)

	return &app{
		cfg:        cfg,
		db:         db,
		ai:         ai,
		vectors:    vectors,
		clustering: clusteringSvc,
		queueCfg:   queueCfg,
		publisher:  publisher,
	}, nil
}

func (a *app) Close() {
	a.publisher.Close()
	a.db.Close()
}

// newPipeline builds a ContentPipeline wired to auto-enqueue clustering for
// every owner of a newly-READY item once its category crosses the
// configured threshold.
func (a *app) newPipeline() *pipeline.ContentPipeline {
	return pipeline.NewContentPipeline(a.db, nil, a.ai, a.ai, a.vectors, pipeline.Config{
		MinItemsForClustering: a.cfg.Clustering.MinItemsForClustering,
		AutoEnqueueCluster: func(ctx context.Context, sharedContentID string, category core.ContentCategory) error {
			if !a.cfg.Clustering.AutoEnqueueOnSuccess {
				return nil
			}
			userIDs, err := a.db.Saves().ListUserIDsByContent(ctx, sharedContentID)
			if err != nil {
				return fmt.Errorf("list owners of %s: %w", sharedContentID, err)
			}
			for _, userID := range userIDs {
				counts, err := a.db.Saves().CountByUserAndCategory(ctx, userID)
				if err != nil {
					return fmt.Errorf("count saves for user %s: %w", userID, err)
				}
				if counts[category] < a.cfg.Clustering.MinItemsForClustering {
					continue
				}
				job := queue.NewClusterUserJob(userID, &category)
				if err := a.publisher.Publish(ctx, queue.Clustering, job); err != nil {
					return fmt.Errorf("enqueue clustering for user %s: %w", userID, err)
				}
			}
			return nil
		},
	})
}

// clusterAllCategories runs ClusterUserCategory for every category, used
// when a clustering job's content_category is absent.
func (a *app) clusterAllCategories(ctx context.Context, userID string) error {
	for _, category := range core.AllCategories {
		if _, err := a.clustering.ClusterUserCategory(ctx, userID, category); err != nil {
			return fmt.Errorf("cluster %s/%s: %w", userID, category, err)
		}
	}
	return nil
}
