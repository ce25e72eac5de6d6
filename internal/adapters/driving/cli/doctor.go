package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tome-cli/internal/adapters/driven/ai"
)

// doctorPingTimeout bounds each connectivity check so one dead service
// does not stall the whole report.
const doctorPingTimeout = 5 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check connectivity to all backend services",
	Long: `Pings each configured backend (parser, vision, embedding, LLM, and
the vector store) and reports what is reachable. Run this when indexing
or querying fails with a connectivity error.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	failures := 0

	report := func(name string, err error) {
		if err != nil {
			failures++
			cmd.Printf("  %-10s FAIL      %v\n", name, err)
			return
		}
		cmd.Printf("  %-10s OK\n", name)
	}

	cmd.Println("Checking backend services...")
	cmd.Println()

	parser := ai.CreateParser(cfg.Parser)
	report("parser", pingWithTimeout(ctx, parser.Ping))
	parser.Close()

	if vision, err := ai.CreateVisionService(cfg.Vision); err != nil {
		report("vision", err)
	} else if vision == nil {
		cmd.Printf("  %-10s disabled  (vision.enabled = false)\n", "vision")
	} else {
		report("vision", pingWithTimeout(ctx, vision.Ping))
		vision.Close()
	}

	if embedder, err := ai.CreateEmbeddingService(cfg.Embedding); err != nil {
		report("embedding", err)
	} else {
		report("embedding", pingWithTimeout(ctx, embedder.Ping))
		embedder.Close()
	}

	if llm, err := ai.CreateLLMService(cfg.LLM); err != nil {
		report("llm", err)
	} else {
		report("llm", pingWithTimeout(ctx, llm.Ping))
		llm.Close()
	}

	if vectors, err := ai.CreateVectorIndex(cfg.Vector); err != nil {
		report("vectors", err)
	} else {
		report("vectors", pingWithTimeout(ctx, vectors.Ping))
		vectors.Close()
	}

	cmd.Println()
	if failures > 0 {
		return fmt.Errorf("%d of the backend services are unreachable", failures)
	}
	cmd.Println("All services reachable.")
	return nil
}

func pingWithTimeout(ctx context.Context, ping func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, doctorPingTimeout)
	defer cancel()
	return ping(ctx)
}
