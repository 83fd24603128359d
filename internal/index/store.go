package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	indexFileName = "index.db"

	statusBuilding = "building"
	statusComplete = "complete"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

const schema = `
CREATE TABLE index_meta (
	status         TEXT    NOT NULL,
	embedder_model TEXT    NOT NULL,
	dimension      INTEGER NOT NULL,
	corpus_hash    TEXT    NOT NULL,
	chunk_count    INTEGER NOT NULL,
	built_at       TEXT    NOT NULL
);

CREATE TABLE index_entries (
	id             TEXT    PRIMARY KEY,
	position       INTEGER NOT NULL UNIQUE,
	source_path    TEXT    NOT NULL,
	source_page    INTEGER NOT NULL,
	sequence_index INTEGER NOT NULL,
	text           TEXT    NOT NULL,
	vector         BLOB    NOT NULL
);
`

// Meta describes a persisted index.
type Meta struct {
	EmbedderModel string
	Dimension     int
	CorpusHash    string
	ChunkCount    int
	BuiltAt       time.Time
}

// Snapshot is a fully loaded persisted index.
type Snapshot struct {
	Meta    Meta
	Vectors []entity.IndexedVector
}

type metaRow struct {
	Status        string `db:"status"`
	EmbedderModel string `db:"embedder_model"`
	Dimension     int    `db:"dimension"`
	CorpusHash    string `db:"corpus_hash"`
	ChunkCount    int    `db:"chunk_count"`
	BuiltAt       string `db:"built_at"`
}

type entryRow struct {
	ID            string `db:"id"`
	Position      int    `db:"position"`
	SourcePath    string `db:"source_path"`
	SourcePage    int    `db:"source_page"`
	SequenceIndex int    `db:"sequence_index"`
	Text          string `db:"text"`
	Vector        []byte `db:"vector"`
}

// Store persists one index as a SQLite file inside a directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the index file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, indexFileName)
}

// Load returns nil without error when no index has been persisted yet.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	path := s.Path()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: stat %s: %v", entity.ErrIndexUnavailable, path, err)
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", entity.ErrIndexUnavailable, path, err)
	}
	defer db.Close()

	var m metaRow
	err = db.GetContext(ctx, &m, `
		SELECT status, embedder_model, dimension, corpus_hash, chunk_count, built_at
		FROM index_meta
		LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("%w: read index metadata: %v", entity.ErrIndexUnavailable, err)
	}
	if m.Status != statusComplete {
		return nil, fmt.Errorf("%w: index %s is not complete (status %q)", entity.ErrIndexUnavailable, path, m.Status)
	}

	var rows []entryRow
	err = db.SelectContext(ctx, &rows, `
		SELECT id, position, source_path, source_page, sequence_index, text, vector
		FROM index_entries
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%w: read index entries: %v", entity.ErrIndexUnavailable, err)
	}
	if len(rows) != m.ChunkCount {
		return nil, fmt.Errorf("%w: index has %d entries, metadata says %d", entity.ErrIndexUnavailable, len(rows), m.ChunkCount)
	}

	vectors := make([]entity.IndexedVector, 0, len(rows))
	for _, row := range rows {
		vec := decodeVector(row.Vector)
		if len(vec) != m.Dimension {
			return nil, fmt.Errorf("%w: entry %s has dimension %d, expected %d",
				entity.ErrIndexUnavailable, row.ID, len(vec), m.Dimension)
		}
		vectors = append(vectors, entity.IndexedVector{
			ChunkID: row.ID,
			Vector:  vec,
			Chunk: entity.Chunk{
				ID:            row.ID,
				Text:          row.Text,
				SourcePath:    row.SourcePath,
				SourcePage:    row.SourcePage,
				SequenceIndex: row.SequenceIndex,
			},
		})
	}

	builtAt, _ := time.Parse(time.RFC3339Nano, m.BuiltAt)

	return &Snapshot{
		Meta: Meta{
			EmbedderModel: m.EmbedderModel,
			Dimension:     m.Dimension,
			CorpusHash:    m.CorpusHash,
			ChunkCount:    m.ChunkCount,
			BuiltAt:       builtAt,
		},
		Vectors: vectors,
	}, nil
}

// Save writes the index to a temporary file and renames it over the current one.
// On failure the temporary file is removed and a previous index stays untouched.
func (s *Store) Save(ctx context.Context, meta Meta, vectors []entity.IndexedVector) (err error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create persist directory: %v", entity.ErrIndexUnavailable, err)
	}

	path := s.Path()
	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove stale temp file: %v", entity.ErrIndexUnavailable, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
			_ = os.Remove(tmp + "-journal")
		}
	}()

	if err := s.write(ctx, tmp, meta, vectors); err != nil {
		return fmt.Errorf("%w: write index: %v", entity.ErrIndexUnavailable, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: replace index file: %v", entity.ErrIndexUnavailable, err)
	}

	return nil
}

func (s *Store) write(ctx context.Context, path string, meta Meta, vectors []entity.IndexedVector) error {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO index_meta (status, embedder_model, dimension, corpus_hash, chunk_count, built_at)
		VALUES (:status, :embedder_model, :dimension, :corpus_hash, :chunk_count, :built_at)`,
		metaRow{
			Status:        statusBuilding,
			EmbedderModel: meta.EmbedderModel,
			Dimension:     meta.Dimension,
			CorpusHash:    meta.CorpusHash,
			ChunkCount:    len(vectors),
			BuiltAt:       meta.BuiltAt.UTC().Format(time.RFC3339Nano),
		})
	if err != nil {
		return fmt.Errorf("insert metadata: %w", err)
	}

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO index_entries (id, position, source_path, source_page, sequence_index, text, vector)
		VALUES (:id, :position, :source_path, :source_page, :sequence_index, :text, :vector)`)
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i, v := range vectors {
		_, err := stmt.ExecContext(ctx, entryRow{
			ID:            v.ChunkID,
			Position:      i,
			SourcePath:    v.Chunk.SourcePath,
			SourcePage:    v.Chunk.SourcePage,
			SequenceIndex: v.Chunk.SequenceIndex,
			Text:          v.Chunk.Text,
			Vector:        encodeVector(v.Vector),
		})
		if err != nil {
			return fmt.Errorf("insert entry %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE index_meta SET status = ?`, statusComplete); err != nil {
		return fmt.Errorf("mark complete: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}
