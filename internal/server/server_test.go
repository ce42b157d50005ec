package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ChamsBouzaiene/documentor/internal/docstore"
)

type stubStore struct {
	ingestKey  string
	ingestErr  error
	ingested   []string
	known      map[string]bool
	passages   []docstore.Passage
	searchErr  error
	lastSearch string
}

func (s *stubStore) Ingest(ctx context.Context, name, text string) (string, error) {
	s.ingested = append(s.ingested, name)
	if s.ingestErr != nil {
		return "", s.ingestErr
	}
	return s.ingestKey, nil
}

func (s *stubStore) HasDocument(ctx context.Context, docID string) (bool, error) {
	return s.known[docID], nil
}

func (s *stubStore) Search(ctx context.Context, docID, query string, k int) ([]docstore.Passage, error) {
	s.lastSearch = query
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.passages, nil
}

type stubAnswerer struct {
	answer    string
	err       error
	questions []string
	passages  [][]string
}

func (a *stubAnswerer) Answer(ctx context.Context, question string, passages []string) (string, error) {
	a.questions = append(a.questions, question)
	a.passages = append(a.passages, passages)
	if a.err != nil {
		return "", a.err
	}
	return a.answer, nil
}

func newTestServer(store *stubStore, answerer *stubAnswerer) *Server {
	return New(Config{Addr: ":0", Store: store, Answerer: answerer})
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := io.WriteString(part, content); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	writer.Close()
	return body, writer.FormDataContentType()
}

func decodeBody(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()

	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return out
}

func TestUpload(t *testing.T) {
	store := &stubStore{ingestKey: "key-123"}
	srv := newTestServer(store, &stubAnswerer{})

	body, contentType := multipartUpload(t, "manual.txt", "The turbine starts with compressed air.")
	req := httptest.NewRequest(http.MethodPost, "/upload/", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	got := decodeBody(t, resp)
	if got["status"] != "success" {
		t.Errorf("Unexpected status: %s", got["status"])
	}
	if got["file_key"] != "key-123" {
		t.Errorf("Unexpected file_key: %s", got["file_key"])
	}
	if !strings.Contains(got["message"], "manual.txt") {
		t.Errorf("Message should name the file: %s", got["message"])
	}
	if len(store.ingested) != 1 || store.ingested[0] != "manual.txt" {
		t.Errorf("Unexpected ingested files: %v", store.ingested)
	}
}

func TestUpload_MissingFile(t *testing.T) {
	srv := newTestServer(&stubStore{}, &stubAnswerer{})

	req := httptest.NewRequest(http.MethodPost, "/upload/", strings.NewReader(""))
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", resp.StatusCode)
	}
	if got := decodeBody(t, resp); got["detail"] == "" {
		t.Error("Expected an error detail")
	}
}

func TestUpload_UnsupportedExtension(t *testing.T) {
	store := &stubStore{}
	srv := newTestServer(store, &stubAnswerer{})

	body, contentType := multipartUpload(t, "payload.exe", "binary junk")
	req := httptest.NewRequest(http.MethodPost, "/upload/", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", resp.StatusCode)
	}
	got := decodeBody(t, resp)
	if !strings.Contains(got["detail"], "Only PDF") {
		t.Errorf("Unexpected detail: %s", got["detail"])
	}
	if len(store.ingested) != 0 {
		t.Errorf("Nothing should be ingested, got %v", store.ingested)
	}
}

func TestUpload_IngestFailure(t *testing.T) {
	store := &stubStore{ingestErr: errors.New("disk full")}
	srv := newTestServer(store, &stubAnswerer{})

	body, contentType := multipartUpload(t, "manual.txt", "content")
	req := httptest.NewRequest(http.MethodPost, "/upload/", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", resp.StatusCode)
	}
}

func queryRequest(fileKey, question string) *http.Request {
	form := make([]string, 0, 2)
	if fileKey != "" {
		form = append(form, "file_key="+fileKey)
	}
	if question != "" {
		form = append(form, "question="+strings.ReplaceAll(question, " ", "+"))
	}
	req := httptest.NewRequest(http.MethodPost, "/query/", strings.NewReader(strings.Join(form, "&")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestQuery(t *testing.T) {
	store := &stubStore{
		known: map[string]bool{"key-123": true},
		passages: []docstore.Passage{
			{Text: "The turbine starts with compressed air."},
			{Text: "Check the oil first."},
		},
	}
	answerer := &stubAnswerer{answer: "It starts with compressed air."}
	srv := newTestServer(store, answerer)

	resp, err := srv.App().Test(queryRequest("key-123", "How does the turbine start?"))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	got := decodeBody(t, resp)
	if got["status"] != "success" {
		t.Errorf("Unexpected status: %s", got["status"])
	}
	if got["answer"] != "It starts with compressed air." {
		t.Errorf("Unexpected answer: %s", got["answer"])
	}

	if store.lastSearch != "How does the turbine start?" {
		t.Errorf("Unexpected search query: %q", store.lastSearch)
	}
	if len(answerer.passages) != 1 || len(answerer.passages[0]) != 2 {
		t.Errorf("Answerer should receive the retrieved passages: %v", answerer.passages)
	}
}

func TestQuery_UnknownDocument(t *testing.T) {
	srv := newTestServer(&stubStore{known: map[string]bool{}}, &stubAnswerer{})

	resp, err := srv.App().Test(queryRequest("nope", "anything?"))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", resp.StatusCode)
	}
	got := decodeBody(t, resp)
	if got["detail"] != "Document not found. Please upload it first." {
		t.Errorf("Unexpected detail: %s", got["detail"])
	}
}

func TestQuery_MissingFields(t *testing.T) {
	srv := newTestServer(&stubStore{known: map[string]bool{"k": true}}, &stubAnswerer{})

	resp, err := srv.App().Test(queryRequest("", "question?"))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing file_key, got %d", resp.StatusCode)
	}

	resp, err = srv.App().Test(queryRequest("k", ""))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing question, got %d", resp.StatusCode)
	}
}

func TestQuery_AnswerFailure(t *testing.T) {
	store := &stubStore{known: map[string]bool{"k": true}}
	srv := newTestServer(store, &stubAnswerer{err: errors.New("model down")})

	resp, err := srv.App().Test(queryRequest("k", "question?"))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", resp.StatusCode)
	}
}
