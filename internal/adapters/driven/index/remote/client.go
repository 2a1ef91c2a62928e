// Package remote implements the DocumentIndex contract over HTTP against a
// team peer node.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragbroker/internal/core/domain"
	"github.com/custodia-labs/ragbroker/internal/core/ports/driven"
	"github.com/custodia-labs/ragbroker/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.DocumentIndex = (*Client)(nil)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond bounds outbound calls so a busy node does not
	// flood the shared peer.
	DefaultRequestsPerSecond = 20
	DefaultBurst             = 10
)

// Config holds configuration for the peer client.
type Config struct {
	// BaseURL is the peer's base address, e.g. http://team-host:8000.
	BaseURL string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond caps the outbound request rate. Zero uses the
	// default; negative disables limiting.
	RequestsPerSecond float64
}

// Client is the shared-scope DocumentIndex. One pooled HTTP client is reused
// across every call.
type Client struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewClient creates a peer client.
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond >= 0 {
		rps := cfg.RequestsPerSecond
		if rps == 0 {
			rps = DefaultRequestsPerSecond
		}
		limiter = rate.NewLimiter(rate.Limit(rps), DefaultBurst)
	}

	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: limiter,
		log:     log,
	}
}

// BaseURL returns the configured peer address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// uploadResponse is the peer's upload reply.
type uploadResponse struct {
	ChunksIndexed int `json:"chunks_indexed"`
}

// searchRequest is the peer's search body.
type searchRequest struct {
	Query      string `json:"query"`
	K          int    `json:"k"`
	DocumentID string `json:"document_id,omitempty"`
}

// searchResponse is the peer's search reply.
type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Content  string            `json:"content"`
	Source   string            `json:"source,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// listResponse is the peer's document listing reply.
type listResponse struct {
	Documents []domain.DocumentSummary `json:"documents"`
}

// Add uploads a document to the peer as a multipart file.
func (c *Client) Add(ctx context.Context, req driven.IndexRequest) (int, error) {
	const op = "add"

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	filename := req.Filename
	if filename == "" {
		filename = req.DocumentID
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return 0, fmt.Errorf("creating multipart form: %w", err)
	}
	if _, err := part.Write(req.Content); err != nil {
		return 0, fmt.Errorf("writing multipart content: %w", err)
	}
	if req.DocumentID != "" {
		if err := writer.WriteField("document_id", req.DocumentID); err != nil {
			return 0, fmt.Errorf("writing document_id field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("closing multipart writer: %w", err)
	}

	resp, err := c.do(ctx, op, http.MethodPost, "/documents/upload", &body, writer.FormDataContentType())
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(op, resp); err != nil {
		return 0, err
	}

	var upload uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&upload); err != nil {
		return 0, fmt.Errorf("decoding upload response: %w", err)
	}
	return upload.ChunksIndexed, nil
}

// Search queries the peer. Only the document_id filter key travels on the
// wire; the peer has no contract for arbitrary metadata filters.
func (c *Client) Search(ctx context.Context, query string, k int, filter domain.SearchFilter) ([]domain.SearchHit, error) {
	const op = "search"

	if k <= 0 {
		k = domain.DefaultSearchK
	}
	body, err := json.Marshal(searchRequest{
		Query:      query,
		K:          k,
		DocumentID: filter["document_id"],
	})
	if err != nil {
		return nil, fmt.Errorf("marshalling search request: %w", err)
	}

	resp, err := c.do(ctx, op, http.MethodPost, "/search", bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(op, resp); err != nil {
		return nil, err
	}

	var search searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	hits := make([]domain.SearchHit, 0, len(search.Results))
	for _, r := range search.Results {
		hit := domain.SearchHit{
			Content:  r.Content,
			Source:   r.Source,
			Metadata: r.Metadata,
		}
		if r.Metadata != nil {
			hit.DocumentID = r.Metadata["document_id"]
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Delete removes a document on the peer. A 404 means the identifier was
// absent and maps to false without error.
func (c *Client) Delete(ctx context.Context, documentID string) (bool, error) {
	const op = "delete"

	resp, err := c.do(ctx, op, http.MethodDelete, "/documents/"+documentID, nil, "")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if err := c.checkStatus(op, resp); err != nil {
		return false, err
	}
	return true, nil
}

// List returns the peer's document summaries.
func (c *Client) List(ctx context.Context) ([]domain.DocumentSummary, error) {
	const op = "list"

	resp, err := c.do(ctx, op, http.MethodGet, "/documents", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(op, resp); err != nil {
		return nil, err
	}

	var list listResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decoding list response: %w", err)
	}
	return list.Documents, nil
}

// Stats fetches the peer's health object.
func (c *Client) Stats(ctx context.Context) (domain.IndexStats, error) {
	const op = "health"

	resp, err := c.do(ctx, op, http.MethodGet, "/health", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(op, resp); err != nil {
		return nil, err
	}

	var stats domain.IndexStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("decoding health response: %w", err)
	}
	return stats, nil
}

// Close releases resources.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// do executes one rate-limited request. Transport failures come back as
// RemoteError with kind unavailable.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &domain.RemoteError{
				Kind:    domain.RemoteUnavailable,
				Op:      op,
				Message: "rate limiter wait aborted",
				Cause:   err,
			}
		}
	}

	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("peer unreachable", "op", op, "peer", c.baseURL, "error", err)
		return nil, &domain.RemoteError{
			Kind:    domain.RemoteUnavailable,
			Op:      op,
			Message: "peer unreachable",
			Cause:   err,
		}
	}
	return resp, nil
}

// checkStatus converts a non-2xx peer reply into RemoteError with kind
// rejected, carrying the status and body text.
func (c *Client) checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
	message := strings.TrimSpace(string(body))
	if readErr != nil || message == "" {
		message = resp.Status
	}

	c.log.Warn("peer rejected request", "op", op, "status", resp.StatusCode, "message", message)
	return &domain.RemoteError{
		Kind:       domain.RemoteRejected,
		Op:         op,
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}
