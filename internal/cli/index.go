package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/futig/docqa-backend/internal/builder"
)

var indexRebuild bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or load the vector index",
	Long: `Loads the knowledge base and builds the vector index according to the
configured freshness policy, then prints a summary of the index.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "rebuild the index even if a persisted one exists")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	svc, err := open(cmd, builder.CoreOptions{Rebuild: indexRebuild})
	if err != nil {
		return err
	}
	defer svc.Close()

	meta := svc.IndexMeta
	cmd.Printf("Chunks:          %d\n", svc.IndexLen)
	cmd.Printf("Embedding model: %s\n", meta.EmbedderModel)
	cmd.Printf("Dimension:       %d\n", meta.Dimension)
	cmd.Printf("Corpus hash:     %s\n", meta.CorpusHash)
	if !meta.BuiltAt.IsZero() {
		cmd.Printf("Built at:        %s\n", meta.BuiltAt.Format(time.RFC3339))
	}
	return nil
}
