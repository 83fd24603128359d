package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/futig/docqa-backend/internal/builder"
)

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Print the stored conversation of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	svc, err := open(cmd, builder.CoreOptions{SkipIndex: true})
	if err != nil {
		return err
	}
	defer svc.Close()

	if svc.History == nil {
		return errors.New("session store is not configured")
	}

	turns, err := svc.History.Load(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	if len(turns) == 0 {
		cmd.Println("No history for this session.")
		return nil
	}

	for _, turn := range turns {
		cmd.Printf("[%s] %s: %s\n", turn.CreatedAt.Format("2006-01-02 15:04:05"), turn.Role, turn.Content)
	}
	return nil
}
