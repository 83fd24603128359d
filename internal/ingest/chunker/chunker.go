// Package chunker splits page text into overlapping, size-bounded chunks.
package chunker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/google/uuid"
)

const (
	// DefaultChunkSize is the default number of characters per chunk.
	DefaultChunkSize = 2000

	// DefaultChunkOverlap is the default number of characters shared by adjacent chunks.
	DefaultChunkOverlap = 200
)

// DefaultSeparators are tried in order: paragraph, line, sentence, word.
// When none of them fits, the text is cut at an arbitrary character.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " "}

var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("docqa-backend/chunk"))

// Chunker is pure: the same documents always produce the same chunks.
type Chunker struct {
	chunkSize  int
	overlap    int
	separators [][]rune
}

// New creates a chunker. overlap must be smaller than chunkSize.
func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", entity.ErrInvalidConfig, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", entity.ErrInvalidConfig, chunkSize, overlap)
	}

	separators := make([][]rune, 0, len(DefaultSeparators))
	for _, sep := range DefaultSeparators {
		separators = append(separators, []rune(sep))
	}

	return &Chunker{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: separators,
	}, nil
}

// Split chunks every page independently; chunks never span two pages.
func (c *Chunker) Split(documents []entity.SourceDocument) []entity.Chunk {
	var chunks []entity.Chunk

	for _, doc := range documents {
		text := strings.TrimSpace(doc.Text)
		if text == "" {
			continue
		}

		for _, piece := range c.SplitText(text) {
			seq := len(chunks)
			chunks = append(chunks, entity.Chunk{
				ID:            chunkID(doc.Path, doc.PageNumber, seq),
				Text:          piece,
				SourcePath:    doc.Path,
				SourcePage:    doc.PageNumber,
				SequenceIndex: seq,
			})
		}
	}

	return chunks
}

// SplitText splits a single text. Chunk i+1 starts exactly overlap characters
// before the end of chunk i.
func (c *Chunker) SplitText(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var pieces []string
	start := 0
	for {
		if len(runes)-start <= c.chunkSize {
			pieces = append(pieces, string(runes[start:]))
			return pieces
		}

		end := c.cutPoint(runes, start)
		pieces = append(pieces, string(runes[start:end]))
		start = end - c.overlap
	}
}

// cutPoint returns the end of the chunk starting at start. The cut lies in
// (start+overlap, start+chunkSize] so the next chunk always makes progress.
func (c *Chunker) cutPoint(text []rune, start int) int {
	lo := start + c.overlap + 1
	hi := start + c.chunkSize

	for _, sep := range c.separators {
		if cut, ok := lastCutAfter(text, sep, start, lo, hi); ok {
			return cut
		}
	}

	return hi
}

// lastCutAfter finds the largest cut in [lo, hi] that directly follows sep.
func lastCutAfter(text, sep []rune, start, lo, hi int) (int, bool) {
	for i := hi - len(sep); i >= start && i+len(sep) >= lo; i-- {
		if hasPrefixAt(text, sep, i) {
			return i + len(sep), true
		}
	}
	return 0, false
}

func hasPrefixAt(text, sep []rune, at int) bool {
	if at+len(sep) > len(text) {
		return false
	}
	for j, r := range sep {
		if text[at+j] != r {
			return false
		}
	}
	return true
}

func chunkID(path string, page, seq int) string {
	name := path + "\x00" + strconv.Itoa(page) + "\x00" + strconv.Itoa(seq)
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}
