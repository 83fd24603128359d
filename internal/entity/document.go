package entity

// SourceDocument is the extracted text of a single PDF page.
type SourceDocument struct {
	Path       string
	PageNumber int
	Text       string
}

// Chunk is the unit of retrieval: a bounded span of one page's text.
type Chunk struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	SourcePath    string `json:"source_path"`
	SourcePage    int    `json:"source_page"`
	SequenceIndex int    `json:"sequence_index"`
}

// IndexedVector is a chunk together with its embedding.
type IndexedVector struct {
	ChunkID string
	Vector  []float32
	Chunk   Chunk
}

// RetrievalResult holds chunks ordered by descending score with parallel scores.
type RetrievalResult struct {
	Chunks []Chunk
	Scores []float32
}

// Len returns the number of retrieved chunks.
func (r *RetrievalResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Chunks)
}
