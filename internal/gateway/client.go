// Package gateway is the client-side boundary to the document processing
// service. It issues the two remote operations and collapses every failure
// mode into a single TransportError.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// TransportError is the one error kind the gateway produces. Network
// failures, non-2xx responses, and malformed response bodies are not
// distinguished; callers only need to know the attempt failed.
type TransportError struct {
	Op     string // "upload" or "query"
	Status int    // HTTP status when a response arrived, 0 otherwise
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s failed (status %d): %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client talks to the processing service over HTTP. Each operation is a
// single request/response round trip with no retry and no internal timeout;
// cancellation, if any, comes from the caller's context.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a client for the given base endpoint, e.g.
// "http://localhost:8000".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{},
	}
}

type uploadResponse struct {
	FileKey string `json:"file_key"`
}

type queryResponse struct {
	Answer string `json:"answer"`
}

// SubmitDocument uploads raw document content and returns the opaque handle
// issued by the service.
func (c *Client) SubmitDocument(ctx context.Context, filename string, content io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", &TransportError{Op: "upload", Err: fmt.Errorf("reading document: %w", err)}
	}
	if err := mw.Close(); err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}

	var resp uploadResponse
	if err := c.post(ctx, "upload", "/upload/", mw.FormDataContentType(), &body, &resp); err != nil {
		return "", err
	}
	if resp.FileKey == "" {
		return "", &TransportError{Op: "upload", Err: fmt.Errorf("response missing file_key")}
	}
	return resp.FileKey, nil
}

// SubmitQuestion asks a question scoped to a previously returned handle and
// returns the answer text verbatim.
func (c *Client) SubmitQuestion(ctx context.Context, fileKey, question string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("file_key", fileKey); err != nil {
		return "", &TransportError{Op: "query", Err: err}
	}
	if err := mw.WriteField("question", question); err != nil {
		return "", &TransportError{Op: "query", Err: err}
	}
	if err := mw.Close(); err != nil {
		return "", &TransportError{Op: "query", Err: err}
	}

	var resp queryResponse
	if err := c.post(ctx, "query", "/query/", mw.FormDataContentType(), &body, &resp); err != nil {
		return "", err
	}
	if resp.Answer == "" {
		return "", &TransportError{Op: "query", Err: fmt.Errorf("response missing answer")}
	}
	return resp.Answer, nil
}

// post sends one multipart POST and decodes the JSON response into out.
func (c *Client) post(ctx context.Context, op, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := strings.TrimSpace(string(data))
		if len(detail) > 200 {
			detail = detail[:200]
		}
		return &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("server said: %s", detail)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}
