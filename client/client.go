// Package client is a typed HTTP client for the remote workflow API.
//
// The API is treated as an opaque correctness boundary: responses are
// trusted on read beyond basic HTTP success checks, failures surface as
// *APIError and are never retried.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/meikuraledutech/flowedit"
)

// Client talks to one workflow API endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client, e.g. to set a
// timeout. There are no client-side timeouts beyond what it enforces.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the API rooted at baseURL (e.g.
// "http://localhost:8080/v1").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the workflow API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("client: api error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("client: api error: HTTP %d: %s", e.Status, e.Message)
}

// ExecutionResult is the outcome of a DAG execution request.
type ExecutionResult struct {
	Order []string       `json:"order,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// ListDAGs fetches every DAG document.
func (c *Client) ListDAGs(ctx context.Context) ([]flowedit.DAG, error) {
	var dags []flowedit.DAG
	if err := c.do(ctx, http.MethodGet, "/dags", nil, &dags); err != nil {
		return nil, err
	}
	return dags, nil
}

// GetDAG fetches a single DAG document by id.
func (c *Client) GetDAG(ctx context.Context, id string) (*flowedit.DAG, error) {
	var d flowedit.DAG
	if err := c.do(ctx, http.MethodGet, "/dags/"+url.PathEscape(id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListVersions fetches the version history of a document, sorted
// newest-first for display.
func (c *Client) ListVersions(ctx context.Context, id string) ([]flowedit.DAGVersion, error) {
	var versions []flowedit.DAGVersion
	if err := c.do(ctx, http.MethodGet, "/dags/"+url.PathEscape(id)+"/versions", nil, &versions); err != nil {
		return nil, err
	}
	flowedit.SortVersions(versions)
	return versions, nil
}

// CreateDAG persists a new document and returns it with its assigned id.
func (c *Client) CreateDAG(ctx context.Context, d *flowedit.DAG) (*flowedit.DAG, error) {
	var created flowedit.DAG
	if err := c.do(ctx, http.MethodPost, "/dags", d, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateDAG replaces a document wholesale.
func (c *Client) UpdateDAG(ctx context.Context, d *flowedit.DAG) (*flowedit.DAG, error) {
	var updated flowedit.DAG
	if err := c.do(ctx, http.MethodPut, "/dags/"+url.PathEscape(d.ID), d, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateAdapter updates a single adapter without touching the rest of the
// document; used when the edited node is an adapter.
func (c *Client) UpdateAdapter(ctx context.Context, a *flowedit.Adapter) error {
	return c.do(ctx, http.MethodPut, "/adapters/"+url.PathEscape(a.ID), a, nil)
}

// ExecuteDAG triggers a server-side execution with the given input.
func (c *Client) ExecuteDAG(ctx context.Context, id string, input map[string]any) (*ExecutionResult, error) {
	if input == nil {
		input = map[string]any{}
	}
	var result ExecutionResult
	if err := c.do(ctx, http.MethodPost, "/dags/"+url.PathEscape(id)+"/execute", input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PublishDAG transitions a document to published server-side.
func (c *Client) PublishDAG(ctx context.Context, id string) (*flowedit.DAG, error) {
	var published flowedit.DAG
	if err := c.do(ctx, http.MethodPost, "/dags/"+url.PathEscape(id)+"/publish", struct{}{}, &published); err != nil {
		return nil, err
	}
	return &published, nil
}

// ListTables fetches the table names available to database steps.
func (c *Client) ListTables(ctx context.Context) ([]string, error) {
	var out struct {
		Data []string `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/tables", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetTable fetches a table's column→type map.
func (c *Client) GetTable(ctx context.Context, name string) (map[string]string, error) {
	var out struct {
		Data map[string]string `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/tables/"+url.PathEscape(name), nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// do performs one JSON round-trip. A nil body sends no payload; a nil out
// discards the response body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

// readErrorMessage extracts {"error": "..."} from an error body, falling
// back to the raw text.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
