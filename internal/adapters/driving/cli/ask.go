package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
	"github.com/custodia-labs/tome-cli/internal/core/ports/driving"
	"github.com/custodia-labs/tome-cli/internal/core/services"
)

var (
	askSession   string
	askSummarise bool
	askTopK      int
	askJSON      bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about indexed documents",
	Long: `Retrieves the chunks most relevant to the question and generates an
answer grounded in them, citing page numbers where the sources carry
them.

With --session, the exchange is recorded and the previous turn is
carried into the next question, so follow-ups like "and what about X?"
resolve against the earlier answer. Without it the query is one-off
and nothing is persisted.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session ID for conversational memory")
	askCmd.Flags().BoolVar(&askSummarise, "summarise", false, "include a summary of the retrieved context")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	if queryService == nil {
		cleanup, err := wireQuery()
		if err != nil {
			return err
		}
		defer cleanup()
	}

	topK := askTopK
	if topK <= 0 {
		topK = cfg.Query.TopK
	}

	if !askJSON {
		cmd.Printf("--- Querying for: '%s' ---\n", question)
	}

	answer, err := queryService.Ask(cmd.Context(), driving.AskRequest{
		Question:  question,
		SessionID: askSession,
		Summarise: askSummarise,
		TopK:      topK,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNoResults) {
			cmd.Println("No indexed content found. Index a document first with 'tome index <path>'.")
			return nil
		}
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	return outputAnswerText(cmd, answer)
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer *domain.Answer) error {
	divider := strings.Repeat("-", 30)

	if answer.Summary != "" {
		cmd.Println("### 1. Retrieved Context Summary ###")
		cmd.Println(answer.Summary)
		cmd.Println(divider)
		cmd.Println("### 2. Final RAG Answer ###")
	} else {
		cmd.Println("### Final RAG Answer ###")
	}
	cmd.Println(answer.Text)

	cmd.Println()
	cmd.Println(divider)
	cmd.Println("### Retrieved Sources ###")
	cmd.Println(services.FormatSources(answer.Sources))
	cmd.Println(divider)

	if answer.SessionID != "" {
		cmd.Printf("(Context saved to session: %s)\n", answer.SessionID)
	}
	return nil
}
