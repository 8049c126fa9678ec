package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"saveit/internal/config"
	"saveit/internal/logger"
	"saveit/internal/queue"
	"saveit/internal/saveservice"
)

var saveUserID string
var saveNote string

var saveCmd = &cobra.Command{
	Use:   "save [url]",
	Short: "Save a URL on behalf of a user",
	Long: `save drives SaveService directly, the way an HTTP handler would:
it normalizes and dedups the URL, creates or reuses the SharedContent row,
and, if the content needs enrichment, publishes an ingest_content job.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSave(args[0]); err != nil {
			logger.Error("save failed", err)
			os.Exit(1)
		}
	},
}

func init() {
	saveCmd.Flags().StringVar(&saveUserID, "user", "", "id of the saving user (required)")
	saveCmd.Flags().StringVar(&saveNote, "note", "", "optional note to attach to the save")
	saveCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(saveCmd)
}

func runSave(rawURL string) error {
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

	svc := saveservice.New(a.db)
	result, err := svc.Save(ctx, saveUserID, rawURL, saveNote)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}

	logger.Info("saved", "shared_content_id", result.Content.ID, "is_new", result.IsNewContent, "needs_processing", result.NeedsProcessing)

	if result.NeedsProcessing {
		job := queue.NewIngestContentJob(result.Content.ID, result.Content.URL)
		if err := a.publisher.Publish(ctx, queue.ContentProcessing, job); err != nil {
			return fmt.Errorf("enqueue ingest job: %w", err)
		}
		logger.Info("enqueued ingest_content", "shared_content_id", result.Content.ID)
	}
	return nil
}
