package index

import (
	"fmt"

	"github.com/futig/docqa-backend/internal/entity"
)

// FreshnessPolicy decides whether a persisted index may be reused.
type FreshnessPolicy string

const (
	// ReuseIfPresent loads any complete, non-empty persisted index as is.
	ReuseIfPresent FreshnessPolicy = "reuse_if_present"
	// RebuildAlways ignores the persisted index.
	RebuildAlways FreshnessPolicy = "rebuild_always"
	// RebuildIfCorpusHashChanged reuses the persisted index only when it was built
	// from the same chunks with the same embedding model.
	RebuildIfCorpusHashChanged FreshnessPolicy = "rebuild_if_corpus_hash_changed"
)

func ParseFreshnessPolicy(value string) (FreshnessPolicy, error) {
	switch p := FreshnessPolicy(value); p {
	case ReuseIfPresent, RebuildAlways, RebuildIfCorpusHashChanged:
		return p, nil
	case "":
		return ReuseIfPresent, nil
	default:
		return "", fmt.Errorf("%w: unknown index freshness policy %q", entity.ErrInvalidConfig, value)
	}
}
