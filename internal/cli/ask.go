package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/futig/docqa-backend/internal/builder"
)

var (
	askSession  string
	askQuestion string
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask one question within a session",
	Long: `Answers a question the same way the HTTP API does. The exchange is stored
in the session, so repeated calls with the same --session form a conversation.`,
	Args: cobra.NoArgs,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session id")
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question text")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	_ = askCmd.MarkFlagRequired("session")
	_ = askCmd.MarkFlagRequired("question")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, err := open(cmd, builder.CoreOptions{})
	if err != nil {
		return err
	}
	defer svc.Close()

	if svc.Asker == nil {
		return errors.New("question answering is not configured")
	}

	answer, err := svc.Asker.Answer(cmd.Context(), askSession, askQuestion)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Answer)
	if len(answer.Sources) == 0 {
		return nil
	}

	cmd.Println()
	cmd.Println("Sources:")
	for i, src := range answer.Sources {
		cmd.Printf("  [%d] %s, page %d (%.2f)\n", i+1, filepath.Base(src.SourcePath), src.Page, src.Score)
	}
	return nil
}
