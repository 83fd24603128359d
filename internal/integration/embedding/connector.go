package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/integration/common"
	pkghttp "github.com/futig/docqa-backend/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Connector calls a hosted feature-extraction pipeline.
type Connector struct {
	config    config.EmbeddingConnectorConfig
	connector *pkghttp.Connector
	endpoint  string
	logger    *zap.Logger
}

func NewConnector(
	cfg config.EmbeddingConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewProviderConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		endpoint:  strings.ReplaceAll(cfg.Endpoint, "{model}", cfg.Model),
		logger:    logger,
	}
}

func (c *Connector) ModelName() string {
	return c.config.Model
}

// EmbedDocuments embeds texts in one request; batching is up to the caller.
func (c *Connector) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctxzap.Debug(ctx, "embedding documents", zap.Int("count", len(texts)))

	req := &entity.EmbeddingRequest{
		Inputs:  texts,
		Options: &entity.EmbeddingOptions{WaitForModel: true},
	}

	var resp [][]float32
	if err := c.connector.DoRequest(ctx, http.MethodPost, c.endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("embed documents failed: %w", err)
	}

	if len(resp) != len(texts) {
		return nil, fmt.Errorf("invalid embedding response: got %d vectors for %d inputs", len(resp), len(texts))
	}

	return resp, nil
}

func (c *Connector) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}
	return vectors[0], nil
}
