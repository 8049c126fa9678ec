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

var reprocessCmd = &cobra.Command{
	Use:   "reprocess [shared-content-id]",
	Short: "Manually re-enqueue a piece of content for ingestion",
	Long: `reprocess re-publishes an ingest_content job for a SharedContent row
that already exists, e.g. after fixing an upstream outage that left it
FAILED. Re-processing is operator-triggered only: nothing in the pipeline
re-enqueues automatically on failure.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runReprocess(args[0]); err != nil {
			logger.Error("reprocess failed", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(reprocessCmd)
}

func runReprocess(sharedContentID string) error {
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

	content, err := a.db.SharedContent().Get(ctx, sharedContentID)
	if err != nil {
		return fmt.Errorf("lookup shared content %s: %w", sharedContentID, err)
	}

	job := queue.NewIngestContentJob(content.ID, content.URL)
	if err := a.publisher.Publish(ctx, queue.ContentProcessing, job); err != nil {
		return fmt.Errorf("enqueue ingest job: %w", err)
	}

	logger.Info("reprocessing enqueued", "shared_content_id", content.ID)
	return nil
}
