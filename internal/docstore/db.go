// Package docstore holds processed documents: chunked text in sqlite, a
// BM25 keyword index, and embedding vectors for semantic retrieval.
package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrDocumentNotFound is returned when a file key does not match any stored
// document.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentRecord is a stored document's metadata. The DocID doubles as the
// opaque file key handed back to clients.
type DocumentRecord struct {
	DocID      string
	Name       string
	SizeBytes  int64
	ChunkCount int
	CreatedAt  int64
}

// DB provides sqlite persistence for documents, chunks and embeddings.
type DB struct {
	db *sql.DB
}

// NewDB opens (or creates) the database and initializes the schema.
func NewDB(ctx context.Context, dbPath string) (*DB, error) {
	// WAL mode allows reads while an ingest writes; single writer is enough
	// for sqlite.
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	d := &DB{db: db}
	if err := d.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		doc_id      TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		size_bytes  INTEGER NOT NULL,
		chunk_count INTEGER NOT NULL DEFAULT 0,
		created_at  INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chunks (
		chunk_id TEXT PRIMARY KEY,
		doc_id   TEXT NOT NULL,
		seq      INTEGER NOT NULL,
		text     TEXT NOT NULL,
		FOREIGN KEY (doc_id) REFERENCES documents(doc_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS embeddings (
		chunk_id TEXT PRIMARY KEY,
		doc_id   TEXT NOT NULL,
		dim      INTEGER NOT NULL,
		vector   BLOB NOT NULL,
		FOREIGN KEY (chunk_id) REFERENCES chunks(chunk_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_doc ON chunks(doc_id);
	CREATE INDEX IF NOT EXISTS idx_embeddings_doc ON embeddings(doc_id);
	`
	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// InsertDocument records a new document.
func (d *DB) InsertDocument(ctx context.Context, rec *DocumentRecord) error {
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().Unix()
	}
	query := `
		INSERT INTO documents (doc_id, name, size_bytes, chunk_count, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := d.db.ExecContext(ctx, query, rec.DocID, rec.Name, rec.SizeBytes, rec.ChunkCount, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by its file key.
func (d *DB) GetDocument(ctx context.Context, docID string) (*DocumentRecord, error) {
	query := `SELECT doc_id, name, size_bytes, chunk_count, created_at FROM documents WHERE doc_id = ?`
	var rec DocumentRecord
	err := d.db.QueryRowContext(ctx, query, docID).Scan(&rec.DocID, &rec.Name, &rec.SizeBytes, &rec.ChunkCount, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return &rec, nil
}

// ListDocuments returns all stored documents, newest first.
func (d *DB) ListDocuments(ctx context.Context) ([]DocumentRecord, error) {
	query := `SELECT doc_id, name, size_bytes, chunk_count, created_at FROM documents ORDER BY created_at DESC`
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentRecord
	for rows.Next() {
		var rec DocumentRecord
		if err := rows.Scan(&rec.DocID, &rec.Name, &rec.SizeBytes, &rec.ChunkCount, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, rec)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document with its chunks and embeddings.
func (d *DB) DeleteDocument(ctx context.Context, docID string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM embeddings WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("failed to delete embeddings: %w", err)
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM chunks WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM documents WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// Chunk is one indexed text segment of a document.
type Chunk struct {
	ChunkID string
	DocID   string
	Seq     int
	Text    string
}

// InsertChunk inserts a chunk.
func (d *DB) InsertChunk(ctx context.Context, c *Chunk) error {
	query := `INSERT INTO chunks (chunk_id, doc_id, seq, text) VALUES (?, ?, ?, ?)`
	if _, err := d.db.ExecContext(ctx, query, c.ChunkID, c.DocID, c.Seq, c.Text); err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}
	return nil
}

// GetChunk retrieves a single chunk by ID.
func (d *DB) GetChunk(ctx context.Context, chunkID string) (*Chunk, error) {
	query := `SELECT chunk_id, doc_id, seq, text FROM chunks WHERE chunk_id = ?`
	var c Chunk
	err := d.db.QueryRowContext(ctx, query, chunkID).Scan(&c.ChunkID, &c.DocID, &c.Seq, &c.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk: %w", err)
	}
	return &c, nil
}

// GetChunksByDocument returns a document's chunks in reading order.
func (d *DB) GetChunksByDocument(ctx context.Context, docID string) ([]Chunk, error) {
	query := `SELECT chunk_id, doc_id, seq, text FROM chunks WHERE doc_id = ? ORDER BY seq`
	rows, err := d.db.QueryContext(ctx, query, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ChunkID, &c.DocID, &c.Seq, &c.Text); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Embedding is the stored vector for one chunk.
type Embedding struct {
	ChunkID string
	DocID   string
	Dim     int
	Vector  []byte
}

// InsertEmbedding inserts or replaces an embedding.
func (d *DB) InsertEmbedding(ctx context.Context, e *Embedding) error {
	query := `
		INSERT INTO embeddings (chunk_id, doc_id, dim, vector)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			vector = excluded.vector,
			dim = excluded.dim
	`
	if _, err := d.db.ExecContext(ctx, query, e.ChunkID, e.DocID, e.Dim, e.Vector); err != nil {
		return fmt.Errorf("failed to insert embedding: %w", err)
	}
	return nil
}

// GetEmbedding retrieves the vector for a chunk. Returns sql.ErrNoRows
// wrapped when the chunk has no embedding.
func (d *DB) GetEmbedding(ctx context.Context, chunkID string) ([]byte, error) {
	var vector []byte
	err := d.db.QueryRowContext(ctx, `SELECT vector FROM embeddings WHERE chunk_id = ?`, chunkID).Scan(&vector)
	if err != nil {
		return nil, fmt.Errorf("failed to query embedding: %w", err)
	}
	return vector, nil
}
