package docstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Embedder turns text into vectors for semantic retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]byte, int, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]byte, int, error)
	Dimension() int
}

// NoOpEmbedder returns zero vectors. Retrieval degrades to BM25-only when
// it is in use.
type NoOpEmbedder struct {
	dimension int
}

// NewNoOpEmbedder creates a no-op embedder.
func NewNoOpEmbedder(dimension int) *NoOpEmbedder {
	return &NoOpEmbedder{dimension: dimension}
}

func (e *NoOpEmbedder) Embed(ctx context.Context, text string) ([]byte, int, error) {
	return encodeVector(make([]float32, e.dimension)), e.dimension, nil
}

func (e *NoOpEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]byte, int, error) {
	vectors := make([][]byte, len(texts))
	for i := range texts {
		vectors[i] = encodeVector(make([]float32, e.dimension))
	}
	return vectors, e.dimension, nil
}

func (e *NoOpEmbedder) Dimension() int {
	return e.dimension
}

// OpenAIEmbedder calls OpenAI's embedding API.
type OpenAIEmbedder struct {
	apiKey    string
	model     string
	dimension int
	client    *http.Client
}

type openAIEmbeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// NewOpenAIEmbedder creates an OpenAI embedder. "text-embedding-3-small"
// (1536 dims) is the default.
func NewOpenAIEmbedder(apiKey, model string, dimension int) *OpenAIEmbedder {
	if model == "" {
		model = "text-embedding-3-small"
	}
	if dimension == 0 {
		dimension = 1536
	}
	return &OpenAIEmbedder{
		apiKey:    apiKey,
		model:     model,
		dimension: dimension,
		client:    &http.Client{},
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]byte, int, error) {
	vectors, dim, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, 0, err
	}
	if len(vectors) == 0 {
		return nil, 0, fmt.Errorf("no embeddings returned")
	}
	return vectors[0], dim, nil
}

func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]byte, int, error) {
	if len(texts) == 0 {
		return [][]byte{}, e.dimension, nil
	}

	jsonData, err := json.Marshal(openAIEmbeddingRequest{Input: texts, Model: e.model})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.openai.com/v1/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var embResp openAIEmbeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, 0, fmt.Errorf("failed to parse response: %w", err)
	}

	vectors := make([][]byte, len(embResp.Data))
	for _, data := range embResp.Data {
		if len(data.Embedding) > 0 {
			e.dimension = len(data.Embedding)
		}
		vectors[data.Index] = encodeVector(data.Embedding)
	}
	return vectors, e.dimension, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

// NewEmbedderFromEnv picks an embedder from the environment: OpenAI when an
// embedding or OpenAI key is set, no-op otherwise.
func NewEmbedderFromEnv() Embedder {
	apiKey := os.Getenv("EMBEDDING_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey != "" {
		return NewOpenAIEmbedder(apiKey, os.Getenv("EMBEDDING_MODEL"), 0)
	}
	return NewNoOpEmbedder(384)
}

// encodeVector encodes a float32 vector as little-endian bytes.
func encodeVector(vector []float32) []byte {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, vector); err != nil {
		// Cannot happen for float32 slices.
		panic(fmt.Sprintf("failed to encode vector: %v", err))
	}
	return buf.Bytes()
}

// DecodeVector decodes a byte slice back to a float32 vector.
func DecodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector data length: %d", len(data))
	}
	vector := make([]float32, len(data)/4)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &vector); err != nil {
		return nil, fmt.Errorf("failed to decode vector: %w", err)
	}
	return vector, nil
}
