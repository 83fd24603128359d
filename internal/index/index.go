// Package index builds, persists and queries the vector index over corpus chunks.
package index

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	// DefaultTopK is used when a query asks for k <= 0 results.
	DefaultTopK = 4

	// DefaultBatchSize is the number of chunks sent to the embedder at once.
	DefaultBatchSize = 32
)

// Embedder turns text into vectors. Documents and queries may be embedded differently.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	ModelName() string
}

type BuildOptions struct {
	Policy    FreshnessPolicy
	BatchSize int
}

// Index is read-only after construction and safe for concurrent queries.
type Index struct {
	embedder Embedder
	vectors  []entity.IndexedVector
	meta     Meta
}

// BuildOrLoad returns the persisted index when the policy allows reusing it,
// otherwise embeds chunks and persists a fresh index.
func BuildOrLoad(
	ctx context.Context,
	store *Store,
	chunks []entity.Chunk,
	embedder Embedder,
	opts BuildOptions,
) (*Index, error) {
	policy := opts.Policy
	if policy == "" {
		policy = ReuseIfPresent
	}

	model := embedder.ModelName()
	hash := CorpusHash(model, chunks)

	if policy != RebuildAlways {
		snapshot, err := store.Load(ctx)
		if err != nil {
			return nil, err
		}

		switch {
		case snapshot == nil:
			ctxzap.Info(ctx, "no persisted index found, building", zap.String("path", store.Path()))
		case len(snapshot.Vectors) == 0:
			ctxzap.Info(ctx, "persisted index is empty, rebuilding", zap.String("path", store.Path()))
		case policy == RebuildIfCorpusHashChanged && snapshot.Meta.CorpusHash != hash:
			ctxzap.Info(ctx, "corpus changed since last build, rebuilding",
				zap.String("stored_hash", snapshot.Meta.CorpusHash),
				zap.String("current_hash", hash),
			)
		default:
			if snapshot.Meta.EmbedderModel != model {
				ctxzap.Warn(ctx, "persisted index was built with a different embedding model",
					zap.String("stored_model", snapshot.Meta.EmbedderModel),
					zap.String("configured_model", model),
				)
			}
			ctxzap.Info(ctx, "persisted index loaded",
				zap.String("path", store.Path()),
				zap.Int("chunks", len(snapshot.Vectors)),
			)
			return &Index{embedder: embedder, vectors: snapshot.Vectors, meta: snapshot.Meta}, nil
		}
	}

	vectors, dim, err := embedChunks(ctx, embedder, chunks, opts.BatchSize)
	if err != nil {
		return nil, err
	}

	meta := Meta{
		EmbedderModel: model,
		Dimension:     dim,
		CorpusHash:    hash,
		ChunkCount:    len(vectors),
		BuiltAt:       time.Now(),
	}

	if err := store.Save(ctx, meta, vectors); err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "index built and persisted",
		zap.String("path", store.Path()),
		zap.Int("chunks", len(vectors)),
		zap.Int("dimension", dim),
	)

	return &Index{embedder: embedder, vectors: vectors, meta: meta}, nil
}

func embedChunks(
	ctx context.Context,
	embedder Embedder,
	chunks []entity.Chunk,
	batchSize int,
) ([]entity.IndexedVector, int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	vectors := make([]entity.IndexedVector, 0, len(chunks))
	dim := 0

	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		embeddings, err := embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: embed chunks %d-%d: %v", entity.ErrIndexUnavailable, start, end, err)
		}
		if len(embeddings) != len(batch) {
			return nil, 0, fmt.Errorf("%w: embedder returned %d vectors for %d chunks",
				entity.ErrIndexUnavailable, len(embeddings), len(batch))
		}

		for i, vec := range embeddings {
			if dim == 0 {
				dim = len(vec)
			}
			if len(vec) == 0 || len(vec) != dim {
				return nil, 0, fmt.Errorf("%w: chunk %d has dimension %d, expected %d",
					entity.ErrIndexUnavailable, start+i, len(vec), dim)
			}
			vectors = append(vectors, entity.IndexedVector{
				ChunkID: batch[i].ID,
				Vector:  vec,
				Chunk:   batch[i],
			})
		}

		ctxzap.Debug(ctx, "embedded chunk batch", zap.Int("from", start), zap.Int("to", end))
	}

	return vectors, dim, nil
}

// Query returns the k chunks most similar to text, highest cosine similarity first.
// Equal scores keep index order.
func (idx *Index) Query(ctx context.Context, text string, k int) (*entity.RetrievalResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	if len(idx.vectors) == 0 {
		return &entity.RetrievalResult{}, nil
	}

	query, err := idx.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", entity.ErrRetrieval, err)
	}
	if len(query) != idx.meta.Dimension {
		return nil, fmt.Errorf("%w: query vector has dimension %d, index has %d",
			entity.ErrRetrieval, len(query), idx.meta.Dimension)
	}

	type scored struct {
		pos   int
		score float32
	}
	ranked := make([]scored, len(idx.vectors))
	for i, v := range idx.vectors {
		ranked[i] = scored{pos: i, score: cosine(query, v.Vector)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	k = min(k, len(ranked))
	result := &entity.RetrievalResult{
		Chunks: make([]entity.Chunk, 0, k),
		Scores: make([]float32, 0, k),
	}
	for _, r := range ranked[:k] {
		result.Chunks = append(result.Chunks, idx.vectors[r.pos].Chunk)
		result.Scores = append(result.Scores, r.score)
	}

	return result, nil
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	return len(idx.vectors)
}

func (idx *Index) Meta() Meta {
	return idx.meta
}
