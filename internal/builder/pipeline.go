package builder

import (
	"context"
	"fmt"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/index"
	"github.com/futig/docqa-backend/internal/ingest/chunker"
	"github.com/futig/docqa-backend/internal/ingest/loader"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// buildIndex loads the knowledge base, chunks it and builds or reuses the persisted index.
// It returns only after the index is ready to serve queries.
func buildIndex(ctx context.Context, cfg *config.Config, embedder index.Embedder, rebuild bool, logger *zap.Logger) (*index.Index, error) {
	ctx = ctxzap.ToContext(ctx, logger.With(zap.String("action", "BuildIndex")))

	policy, err := index.ParseFreshnessPolicy(cfg.Index.FreshnessPolicy)
	if err != nil {
		return nil, err
	}
	if rebuild {
		policy = index.RebuildAlways
	}

	documents, err := loader.NewPDFLoader().Load(ctx, cfg.Ingestion.KnowledgeBaseDir)
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}

	c, err := chunker.New(cfg.Ingestion.ChunkSize, cfg.Ingestion.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	chunks := c.Split(documents)

	logger.Info("knowledge base loaded",
		zap.String("dir", cfg.Ingestion.KnowledgeBaseDir),
		zap.Int("pages", len(documents)),
		zap.Int("chunks", len(chunks)),
	)

	idx, err := index.BuildOrLoad(ctx, index.NewStore(cfg.Index.PersistDir), chunks, embedder, index.BuildOptions{
		Policy:    policy,
		BatchSize: cfg.EmbeddingConnectorCfg.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	meta := idx.Meta()
	logger.Info("vector index ready",
		zap.String("policy", string(policy)),
		zap.Int("vectors", idx.Len()),
		zap.String("embedder_model", meta.EmbedderModel),
		zap.Time("built_at", meta.BuiltAt),
	)

	return idx, nil
}
