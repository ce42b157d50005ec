package docstore

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// Passage is one retrieved chunk of a document, scored for relevance.
type Passage struct {
	ChunkID string
	Seq     int
	Text    string
	Score   float64
	Reason  string // "rrf(bm25+vec)" or "bm25_only"
}

// Config configures a Store.
type Config struct {
	// DataDir holds the sqlite database and the BM25 index.
	DataDir string

	// Embedder generates chunk and query vectors. Defaults to the no-op
	// embedder, which disables the semantic half of retrieval.
	Embedder Embedder

	// Splitter cuts document text into chunks. Defaults to NewSplitter.
	Splitter *Splitter
}

// Store ingests processed document text and retrieves relevant passages
// with hybrid BM25 + embedding search.
type Store struct {
	db       *DB
	bm25     *BM25Index
	embedder Embedder
	splitter *Splitter
}

// Open creates or opens a store under cfg.DataDir.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("docstore: data dir is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	db, err := NewDB(ctx, filepath.Join(cfg.DataDir, "documents.db"))
	if err != nil {
		return nil, err
	}

	bm25, err := NewBM25Index(filepath.Join(cfg.DataDir, "documents.bleve"))
	if err != nil {
		db.Close()
		return nil, err
	}

	embedder := cfg.Embedder
	if embedder == nil {
		embedder = NewNoOpEmbedder(384)
	}
	splitter := cfg.Splitter
	if splitter == nil {
		splitter = NewSplitter()
	}

	return &Store{db: db, bm25: bm25, embedder: embedder, splitter: splitter}, nil
}

// Close releases the database and index.
func (s *Store) Close() error {
	if err := s.bm25.Close(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

// Ingest chunks, embeds, and indexes extracted document text, returning the
// opaque file key that scopes later searches. Embedding failures are
// tolerated: the document stays searchable via BM25.
func (s *Store) Ingest(ctx context.Context, name, text string) (string, error) {
	var pieces []string
	if ext := filepath.Ext(name); ext == ".md" || ext == ".markdown" {
		pieces = s.splitter.SplitMarkdown(text)
	} else {
		pieces = s.splitter.Split(text)
	}
	if len(pieces) == 0 {
		return "", fmt.Errorf("document %q has no extractable text", name)
	}

	docID := uuid.NewString()

	chunks := make([]Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = Chunk{
			ChunkID: hashChunk(docID, i),
			DocID:   docID,
			Seq:     i,
			Text:    piece,
		}
	}

	if err := s.db.InsertDocument(ctx, &DocumentRecord{
		DocID:      docID,
		Name:       name,
		SizeBytes:  int64(len(text)),
		ChunkCount: len(chunks),
	}); err != nil {
		return "", err
	}

	for i := range chunks {
		if err := s.db.InsertChunk(ctx, &chunks[i]); err != nil {
			return "", err
		}
	}

	if err := s.bm25.BatchIndex(chunks); err != nil {
		return "", fmt.Errorf("failed to index chunks: %w", err)
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	vectors, dim, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		log.Printf("⚠️  Failed to embed %q: %v (keyword search only)", name, err)
	} else {
		for i := range chunks {
			if i >= len(vectors) || vectors[i] == nil {
				continue
			}
			embedding := Embedding{
				ChunkID: chunks[i].ChunkID,
				DocID:   docID,
				Dim:     dim,
				Vector:  vectors[i],
			}
			if err := s.db.InsertEmbedding(ctx, &embedding); err != nil {
				log.Printf("⚠️  Failed to store embedding: %v", err)
			}
		}
	}

	log.Printf("✅ Ingested %q (%d chunks, key %s)", name, len(chunks), docID)
	return docID, nil
}

// HasDocument reports whether a file key refers to a stored document.
func (s *Store) HasDocument(ctx context.Context, docID string) (bool, error) {
	_, err := s.db.GetDocument(ctx, docID)
	if err == ErrDocumentNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Documents lists all stored documents, newest first.
func (s *Store) Documents(ctx context.Context) ([]DocumentRecord, error) {
	return s.db.ListDocuments(ctx)
}

// Search returns the top k passages of one document for a query, merging
// BM25 and embedding rankings with reciprocal rank fusion.
func (s *Store) Search(ctx context.Context, docID, query string, k int) ([]Passage, error) {
	if k <= 0 {
		k = 3
	}
	if _, err := s.db.GetDocument(ctx, docID); err != nil {
		return nil, err
	}

	const candidates = 50
	bm25Results, err := s.bm25.Search(query, docID, candidates)
	if err != nil {
		log.Printf("⚠️  BM25 search failed: %v", err)
		bm25Results = nil
	}

	vecResults, err := s.searchEmbeddings(ctx, docID, query, candidates)
	if err != nil {
		log.Printf("⚠️  Embedding search failed: %v", err)
		vecResults = nil
	}

	reason := "rrf(bm25+vec)"
	if len(vecResults) == 0 {
		reason = "bm25_only"
	}

	// Reciprocal rank fusion across the two rankings.
	const kOffset = 60.0
	scores := make(map[string]float64)
	for i, r := range bm25Results {
		scores[r.ChunkID] += 1.0 / (kOffset + float64(i+1))
	}
	for i, r := range vecResults {
		scores[r.chunk.ChunkID] += 1.0 / (kOffset + float64(i+1))
	}

	type rrfResult struct {
		chunkID string
		score   float64
	}
	merged := make([]rrfResult, 0, len(scores))
	for chunkID, score := range scores {
		merged = append(merged, rrfResult{chunkID, score})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].score > merged[j].score
	})
	if len(merged) > k {
		merged = merged[:k]
	}

	passages := make([]Passage, 0, len(merged))
	for _, m := range merged {
		chunk, err := s.db.GetChunk(ctx, m.chunkID)
		if err != nil {
			log.Printf("⚠️  Failed to fetch chunk %s: %v", m.chunkID, err)
			continue
		}
		passages = append(passages, Passage{
			ChunkID: chunk.ChunkID,
			Seq:     chunk.Seq,
			Text:    chunk.Text,
			Score:   m.score,
			Reason:  reason,
		})
	}
	return passages, nil
}

type scoredChunk struct {
	chunk Chunk
	score float64
}

// searchEmbeddings ranks a document's chunks by cosine similarity to the
// query vector. Chunks without stored vectors are skipped.
func (s *Store) searchEmbeddings(ctx context.Context, docID, query string, k int) ([]scoredChunk, error) {
	queryVec, _, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	queryVector, err := DecodeVector(queryVec)
	if err != nil {
		return nil, fmt.Errorf("failed to decode query vector: %w", err)
	}

	chunks, err := s.db.GetChunksByDocument(ctx, docID)
	if err != nil {
		return nil, err
	}

	scored := make([]scoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		data, err := s.db.GetEmbedding(ctx, chunk.ChunkID)
		if err != nil {
			continue
		}
		chunkVector, err := DecodeVector(data)
		if err != nil {
			continue
		}
		similarity := cosineSimilarity(queryVector, chunkVector)
		if similarity <= 0 {
			continue
		}
		scored = append(scored, scoredChunk{chunk: chunk, score: similarity})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

func hashChunk(docID string, seq int) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", docID, seq)))
	return fmt.Sprintf("%x", hash[:16])
}
