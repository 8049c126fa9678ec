package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"saveit/internal/config"
	"saveit/internal/logger"
	"saveit/internal/queue"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a job queue consumer loop",
}

var workerContentCmd = &cobra.Command{
	Use:   "content",
	Short: "Consume ingest_content jobs and run the enrichment pipeline",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runContentWorker(); err != nil {
			logger.Error("content worker failed", err)
			os.Exit(1)
		}
	},
}

var workerClusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Consume cluster_user jobs and recompute clusters",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runClusterWorker(); err != nil {
			logger.Error("cluster worker failed", err)
			os.Exit(1)
		}
	},
}

func init() {
	workerCmd.AddCommand(workerContentCmd)
	workerCmd.AddCommand(workerClusterCmd)
	rootCmd.AddCommand(workerCmd)
}

func runContentWorker() error {
	ctx := context.Background()
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	pipe := a.newPipeline()

	sub, err := queue.NewSubscriber(a.queueCfg, queue.ContentProcessing)
	if err != nil {
		return fmt.Errorf("create content subscriber: %w", err)
	}

	router, err := queue.NewRouter(a.queueCfg, a.publisher.Underlying())
	if err != nil {
		return fmt.Errorf("create router: %w", err)
	}
	defer router.Close()

	router.AddConsumerHandler("content-processing", queue.ContentProcessing, sub, queue.ContentHandler(
		func(ctx context.Context, job queue.Job) error {
			result := pipe.Process(ctx, job.SharedContentID)
			if !result.Success {
				return fmt.Errorf("process %s: %s", job.SharedContentID, result.ErrorMessage)
			}
			return nil
		},
	))

	logger.Info("content worker starting")
	return router.Run(ctx)
}

func runClusterWorker() error {
	ctx := context.Background()
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sub, err := queue.NewSubscriber(a.queueCfg, queue.Clustering)
	if err != nil {
		return fmt.Errorf("create cluster subscriber: %w", err)
	}

	router, err := queue.NewRouter(a.queueCfg, a.publisher.Underlying())
	if err != nil {
		return fmt.Errorf("create router: %w", err)
	}
	defer router.Close()

	router.AddConsumerHandler("clustering", queue.Clustering, sub, queue.ClusterHandler(
		func(ctx context.Context, job queue.Job) error {
			if job.ContentCategory != nil {
				_, err := a.clustering.ClusterUserCategory(ctx, job.UserID, *job.ContentCategory)
				return err
			}
			return a.clusterAllCategories(ctx, job.UserID)
		},
	))

	logger.Info("cluster worker starting")
	return router.Run(ctx)
}
