package entity

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Request errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrMissingField   = fmt.Errorf("%w: missing required field", ErrInvalidRequest)
	ErrRateLimited    = errors.New("rate limit exceeded")

	// Startup errors
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrIngestion        = errors.New("document ingestion failed")
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// Answering errors
	ErrRetrieval   = errors.New("retrieval failed")
	ErrGeneration  = errors.New("answer generation failed")
	ErrMemoryStore = errors.New("session memory store unavailable")
)
