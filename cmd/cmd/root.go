// Package cmd implements the saveit CLI: a cobra root command plus the
// worker/save/migrate/reprocess subcommands that drive the services an
// out-of-scope HTTP layer would otherwise call.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "saveit",
	Short: "saveit ingests, enriches, and clusters a user's saved URLs.",
	Long: `saveit is the backend for a personal-knowledge tool: it saves URLs,
enriches them via AI classification and embedding, and clusters each user's
items per category. This binary exposes the pieces an HTTP layer would
otherwise drive: "save" simulates one save request, "worker" runs the
content-processing and clustering consumer loops, "migrate" applies schema
migrations, and "reprocess" re-enqueues one item by hand.`,
}

// Execute runs the root command. Called once from main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .saveit.yaml in . or $HOME)")
}
