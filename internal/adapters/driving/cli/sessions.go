package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tome-cli/internal/core/domain"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect stored conversation sessions",
	Long: `List and display the conversation sessions recorded by 'tome ask
--session'. Sessions grow by one turn per completed query and are
never deleted by tome itself.`,
	RunE: runSessionsList,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show a session's conversation history",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		cleanup, err := wireSessions()
		if err != nil {
			return err
		}
		defer cleanup()
	}

	infos, err := sessionService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(infos) == 0 {
		cmd.Println("No sessions found.")
		return nil
	}

	cmd.Println("Sessions:")
	cmd.Println()
	for _, info := range infos {
		cmd.Printf("  %s\n", info.ID)
		cmd.Printf("    Turns: %d\n", info.TurnCount)
		cmd.Printf("    Updated: %s\n", info.UpdatedAt.Format("2006-01-02 15:04:05"))
		cmd.Println()
	}

	cmd.Printf("Total: %d sessions\n", len(infos))
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		cleanup, err := wireSessions()
		if err != nil {
			return err
		}
		defer cleanup()
	}

	sessionID := args[0]

	session, err := sessionService.Get(cmd.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("session not found: %s", sessionID)
		}
		return fmt.Errorf("failed to get session: %w", err)
	}

	cmd.Printf("Session: %s\n", session.ID)
	cmd.Printf("Created: %s\n", session.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("Turns:   %d\n", len(session.Turns))
	cmd.Println()

	for i, turn := range session.Turns {
		cmd.Printf("[%d] Q: %s\n", i+1, turn.Question)
		if turn.Summary != "" {
			cmd.Printf("    Summary: %s\n", turn.Summary)
		}
		cmd.Printf("    A: %s\n", turn.Answer)
		cmd.Println()
	}

	return nil
}
