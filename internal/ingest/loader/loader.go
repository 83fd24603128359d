// Package loader reads a directory of PDF files into page-level source documents.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// PageReader extracts the text of every page of one file, in page order.
type PageReader interface {
	ReadPages(path string) ([]string, error)
}

type Loader struct {
	reader PageReader
}

func New(reader PageReader) *Loader {
	return &Loader{reader: reader}
}

// NewPDFLoader returns a loader backed by the PDF text extractor.
func NewPDFLoader() *Loader {
	return New(PDFReader{})
}

// Load enumerates *.pdf files directly inside dir (sorted by name) and returns one
// document per non-blank page. Files that cannot be parsed are logged and skipped.
// A missing directory yields an empty corpus.
func (l *Loader) Load(ctx context.Context, dir string) ([]entity.SourceDocument, error) {
	files, err := listPDFs(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			ctxzap.Warn(ctx, "knowledge base directory does not exist, corpus is empty", zap.String("dir", dir))
			return nil, nil
		}
		return nil, fmt.Errorf("%w: list %s: %v", entity.ErrIngestion, dir, err)
	}

	if len(files) == 0 {
		ctxzap.Warn(ctx, "no PDF files found in knowledge base directory", zap.String("dir", dir))
		return nil, nil
	}

	var docs []entity.SourceDocument
	skipped := 0

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pages, err := l.reader.ReadPages(path)
		if err != nil {
			skipped++
			ctxzap.Error(ctx, "failed to parse PDF, skipping",
				zap.String("path", path),
				zap.Error(fmt.Errorf("%w: %v", entity.ErrIngestion, err)),
			)
			continue
		}

		loaded := 0
		for i, text := range pages {
			if strings.TrimSpace(text) == "" {
				continue
			}
			docs = append(docs, entity.SourceDocument{
				Path:       path,
				PageNumber: i + 1,
				Text:       text,
			})
			loaded++
		}

		ctxzap.Debug(ctx, "PDF loaded",
			zap.String("path", path),
			zap.Int("pages", len(pages)),
			zap.Int("non_blank_pages", loaded),
		)
	}

	ctxzap.Info(ctx, "knowledge base loaded",
		zap.Int("files", len(files)),
		zap.Int("skipped_files", skipped),
		zap.Int("pages", len(docs)),
	)

	return docs, nil
}

func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	return files, nil
}
