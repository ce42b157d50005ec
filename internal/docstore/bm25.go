package docstore

import (
	"fmt"
	"log"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// BM25Result is one keyword-search hit.
type BM25Result struct {
	ChunkID string
	Score   float64
}

// BM25Index provides keyword search over document chunks.
type BM25Index struct {
	index bleve.Index
	path  string
}

// NewBM25Index creates or opens the index. A corrupted index is deleted and
// recreated rather than failing startup.
func NewBM25Index(indexPath string) (*BM25Index, error) {
	index, err := bleve.Open(indexPath)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create BM25 index: %w", err)
		}
		log.Println("📚 BM25 index created")
	} else if err != nil {
		log.Printf("⚠️  BM25 index appears corrupted (error: %v), recreating...", err)
		if index != nil {
			index.Close()
		}
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("failed to remove corrupted index: %w", err)
		}
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to recreate BM25 index: %w", err)
		}
	}

	return &BM25Index{index: index, path: indexPath}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	chunkMapping := bleve.NewDocumentMapping()

	chunkIDField := bleve.NewTextFieldMapping()
	chunkIDField.Analyzer = keyword.Name
	chunkIDField.Store = true
	chunkMapping.AddFieldMappingsAt("chunk_id", chunkIDField)

	docIDField := bleve.NewTextFieldMapping()
	docIDField.Analyzer = keyword.Name
	docIDField.Store = true
	chunkMapping.AddFieldMappingsAt("doc_id", docIDField)

	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	textField.Store = false
	chunkMapping.AddFieldMappingsAt("text", textField)

	indexMapping.DefaultMapping = chunkMapping
	return indexMapping
}

// IndexChunk indexes one chunk.
func (b *BM25Index) IndexChunk(chunk *Chunk) error {
	doc := map[string]interface{}{
		"chunk_id": chunk.ChunkID,
		"doc_id":   chunk.DocID,
		"text":     chunk.Text,
	}
	return b.index.Index(chunk.ChunkID, doc)
}

// BatchIndex indexes many chunks in one batch.
func (b *BM25Index) BatchIndex(chunks []Chunk) error {
	batch := b.index.NewBatch()
	for i := range chunks {
		doc := map[string]interface{}{
			"chunk_id": chunks[i].ChunkID,
			"doc_id":   chunks[i].DocID,
			"text":     chunks[i].Text,
		}
		if err := batch.Index(chunks[i].ChunkID, doc); err != nil {
			return fmt.Errorf("failed to add chunk %s to batch: %w", chunks[i].ChunkID, err)
		}
	}
	return b.index.Batch(batch)
}

// DeleteByDocument removes all the given chunk IDs from the index.
func (b *BM25Index) DeleteByDocument(chunkIDs []string) error {
	batch := b.index.NewBatch()
	for _, id := range chunkIDs {
		batch.Delete(id)
	}
	return b.index.Batch(batch)
}

// Search returns the top k keyword matches within one document.
func (b *BM25Index) Search(query, docID string, k int) ([]BM25Result, error) {
	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetField("text")

	docQuery := bleve.NewTermQuery(docID)
	docQuery.SetField("doc_id")

	searchRequest := bleve.NewSearchRequest(bleve.NewConjunctionQuery(matchQuery, docQuery))
	searchRequest.Size = k

	searchResult, err := b.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("BM25 search failed: %w", err)
	}

	results := make([]BM25Result, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		results = append(results, BM25Result{ChunkID: hit.ID, Score: hit.Score})
	}
	return results, nil
}

// Close closes the index.
func (b *BM25Index) Close() error {
	return b.index.Close()
}
