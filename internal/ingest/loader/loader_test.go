package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	pages map[string][]string
	fail  map[string]bool
	calls []string
}

func (f *fakeReader) ReadPages(path string) ([]string, error) {
	f.calls = append(f.calls, filepath.Base(path))
	if f.fail[filepath.Base(path)] {
		return nil, errors.New("corrupt file")
	}
	return f.pages[filepath.Base(path)], nil
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("stub"), 0o644))
	}
}

func TestLoad_OrderAndMetadata(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.pdf", "a.PDF", "notes.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755))

	reader := &fakeReader{pages: map[string][]string{
		"a.PDF": {"first page of a", "second page of a"},
		"b.pdf": {"only page of b"},
	}}

	docs, err := New(reader).Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.PDF", "b.pdf"}, reader.calls)
	require.Len(t, docs, 3)

	assert.Equal(t, filepath.Join(dir, "a.PDF"), docs[0].Path)
	assert.Equal(t, 1, docs[0].PageNumber)
	assert.Equal(t, "first page of a", docs[0].Text)

	assert.Equal(t, 2, docs[1].PageNumber)
	assert.Equal(t, "second page of a", docs[1].Text)

	assert.Equal(t, filepath.Join(dir, "b.pdf"), docs[2].Path)
	assert.Equal(t, 1, docs[2].PageNumber)
}

func TestLoad_SkipsBrokenFilesAndBlankPages(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "broken.pdf", "good.pdf")

	reader := &fakeReader{
		pages: map[string][]string{"good.pdf": {"  \n ", "text on page two"}},
		fail:  map[string]bool{"broken.pdf": true},
	}

	docs, err := New(reader).Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, 2, docs[0].PageNumber)
	assert.Equal(t, "text on page two", docs[0].Text)
}

func TestLoad_EmptyAndMissingDirectory(t *testing.T) {
	reader := &fakeReader{}

	docs, err := New(reader).Load(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = New(reader).Load(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Empty(t, reader.calls)
}

func TestLoad_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&fakeReader{}).Load(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func writeTwoPagePDF(t *testing.T, path string) {
	t.Helper()

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.SetFont("Helvetica", "", 12)

	doc.AddPage()
	doc.Cell(40, 10, "Alpha page content")
	doc.AddPage()
	doc.Cell(40, 10, "Bravo page content")

	require.NoError(t, doc.OutputFileAndClose(path))
}

func TestPDFReader_ReadsGeneratedPDF(t *testing.T) {
	dir := t.TempDir()
	writeTwoPagePDF(t, filepath.Join(dir, "handbook.pdf"))

	docs, err := NewPDFLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Contains(t, docs[0].Text, "Alpha")
	assert.Equal(t, 1, docs[0].PageNumber)
	assert.Contains(t, docs[1].Text, "Bravo")
	assert.Equal(t, 2, docs[1].PageNumber)
}

func TestPDFReader_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o644))

	_, err := PDFReader{}.ReadPages(path)
	assert.Error(t, err)
}
