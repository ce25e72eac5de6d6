// Package cli implements the tome command line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tome-cli/internal/config"
	"github.com/custodia-labs/tome-cli/internal/core/ports/driving"
	"github.com/custodia-labs/tome-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services are wired lazily by the commands that need them, so cheap
// commands like version and config never touch the backends. Tests
// inject fakes directly into these variables.
var (
	ingestService  driving.IngestService
	queryService   driving.QueryService
	sessionService driving.SessionService
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tome",
	Short: "Ask questions of your documents",
	Long: `Tome indexes documents (text, tables, and images) into a local
vector store and answers questions about them with a local LLM,
grounded in the retrieved content.

Everything runs against services you host yourself: parsing via an
Unstructured server, captioning, embedding, and generation via Ollama,
vector storage in Qdrant.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)

		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.tome/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
