// Package cli implements the ragctl operator commands.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/futig/docqa-backend/internal/builder"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/index"
)

// Asker answers one question within a session.
type Asker interface {
	Answer(ctx context.Context, sessionID, question string) (*entity.Answer, error)
}

// HistoryReader reads the stored turns of a session.
type HistoryReader interface {
	Load(ctx context.Context, sessionID string) ([]entity.SessionTurn, error)
}

// Services are the components a command works with. Fields a command
// did not ask for stay nil.
type Services struct {
	IndexLen  int
	IndexMeta index.Meta
	Asker     Asker
	History   HistoryReader
	Close     func()
}

// openServices is replaced in tests.
var openServices = func(ctx context.Context, env string, opts builder.CoreOptions) (*Services, error) {
	core, err := builder.LoadCore(ctx, env, opts)
	if err != nil {
		return nil, err
	}

	svc := &Services{History: core.Sessions, Close: core.Close}
	if core.Index != nil {
		svc.IndexLen = core.Index.Len()
		svc.IndexMeta = core.Index.Meta()
	}
	if core.QA != nil {
		svc.Asker = core.QA
	}
	return svc, nil
}

var environment string

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "Operate the document question answering service",
	Long: `ragctl builds and inspects the vector index over the PDF knowledge base,
asks one-off questions and prints stored conversation history.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&environment, "env", "local", "environment to load (.env.<env>)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func open(cmd *cobra.Command, opts builder.CoreOptions) (*Services, error) {
	svc, err := openServices(cmd.Context(), environment, opts)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	if svc.Close == nil {
		svc.Close = func() {}
	}
	return svc, nil
}
