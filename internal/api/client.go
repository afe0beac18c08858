package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	defaultBaseURL  = "http://localhost:8000"
	uploadFieldName = "files"
	maxErrorBody    = 2 << 10
	requestIDHeader = "X-Request-ID"
)

// Config describes how to reach the backend.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// StatusError reports a non-2xx response. Body is kept for diagnostics only.
type StatusError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: backend error: %s", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: backend error: %s (%s)", e.Op, e.Status, e.Body)
}

// Client talks to the document question-answering backend.
type Client struct {
	baseURL string
	client  *http.Client
}

// New returns a client for the given backend.
func New(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// No client-side timeout; callers cancel through the context.
		httpClient = &http.Client{}
	}
	return &Client{baseURL: base, client: httpClient}
}

// BaseURL returns the normalised backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Stats fetches the corpus summary.
func (c *Client) Stats(ctx context.Context) (StatsResult, error) {
	var out StatsResult
	err := c.do(ctx, "stats", http.MethodGet, "/api/stats", nil, "", &out)
	return out, err
}

// Upload sends every file in one multipart request under the repeated
// "files" field.
func (c *Client) Upload(ctx context.Context, files []File) (UploadResult, error) {
	var out UploadResult
	if len(files) == 0 {
		return out, errors.New("upload: no files")
	}
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := writer.CreateFormFile(uploadFieldName, f.Name)
		if err != nil {
			return out, fmt.Errorf("upload: build form: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return out, fmt.Errorf("upload: build form: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return out, fmt.Errorf("upload: build form: %w", err)
	}
	err := c.do(ctx, "upload", http.MethodPost, "/api/upload", &body, writer.FormDataContentType(), &out)
	return out, err
}

// Ingest asks the backend to index the uploaded documents.
func (c *Client) Ingest(ctx context.Context) (IngestResult, error) {
	var out IngestResult
	err := c.do(ctx, "ingest", http.MethodPost, "/api/ingest", nil, "", &out)
	return out, err
}

// Ask submits a question.
func (c *Client) Ask(ctx context.Context, req AskRequest) (AskResult, error) {
	var out AskResult
	buf, err := json.Marshal(req)
	if err != nil {
		return out, err
	}
	err = c.do(ctx, "ask", http.MethodPost, "/api/ask", bytes.NewReader(buf), "application/json", &out)
	return out, err
}

// Health pings the backend.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.do(ctx, "health", http.MethodGet, "/api/health", nil, "", &out); err != nil {
		return err
	}
	if !out.OK {
		return errors.New("health: backend reported not ok")
	}
	return nil
}

// ResetIndex clears the backend's vector store.
func (c *Client) ResetIndex(ctx context.Context) (string, error) {
	var out struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	err := c.do(ctx, "reset_index", http.MethodPost, "/api/reset_index", nil, "", &out)
	return out.Message, err
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("[api] %s %s id=%s transport error: %v", method, path, requestID, err)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &StatusError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
		log.Printf("[api] %s %s id=%s failed: %v", method, path, requestID, statusErr)
		return statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Printf("[api] %s %s id=%s decode error: %v", method, path, requestID, err)
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	log.Printf("[api] %s %s id=%s ok", method, path, requestID)
	return nil
}
