// Package webhook implements the writeback store over webhook-style HTTP
// endpoints.
//
// The write endpoint accepts one batch per request and echoes the assigned
// file name; the read endpoint accepts an application ID plus an action
// token ("latest" or a batch ID) and returns the persisted dataset as a
// header row and data rows. Timeout and retry policy live here, not in the
// save path: the pipeline sees one round trip that succeeds or fails as a
// whole.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mesh-intelligence/slate/pkg/types"
)

// readRequest is the body of a read call.
type readRequest struct {
	AppID  string `json:"app_id"`
	Action string `json:"action"`
}

// writeResponse is the metadata a write echoes back.
type writeResponse struct {
	File string `json:"file,omitempty"`
}

// Client implements types.Store against a pair of webhook endpoints.
type Client struct {
	writeURL string
	readURL  string
	token    string
	http     *http.Client
	log      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New builds a client for the configured endpoints. The read endpoint may be
// empty, in which case loads degrade to an empty baseline.
func New(cfg types.StoreConfig, opts ...Option) (*Client, error) {
	if cfg.WriteURL == "" {
		return nil, types.ErrEndpointMissing
	}
	c := &Client{
		writeURL: cfg.WriteURL,
		readURL:  cfg.ReadURL,
		token:    cfg.Token,
		http:     &http.Client{Timeout: cfg.EffectiveTimeout()},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Write posts the batch as one request. Any transport error or non-2xx
// response fails the whole write and wraps ErrTransport so callers keep
// their pending edits for retry.
func (c *Client) Write(ctx context.Context, batch types.Batch) (*types.WriteAck, error) {
	body, err := c.post(ctx, c.writeURL, batch)
	if err != nil {
		return nil, err
	}

	var resp writeResponse
	if len(body) > 0 {
		// A non-JSON success body is tolerated; the echo is optional.
		_ = json.Unmarshal(body, &resp)
	}
	c.log.Debug("batch written", "records", len(batch.Records), "file", resp.File)
	return &types.WriteAck{File: resp.File}, nil
}

// Read fetches the persisted dataset for the application. token is
// types.ReadLatest or a specific batch identifier.
func (c *Client) Read(ctx context.Context, appID, token string) (*types.Snapshot, error) {
	if c.readURL == "" {
		return nil, fmt.Errorf("%w: read endpoint not configured", types.ErrEndpointMissing)
	}

	body, err := c.post(ctx, c.readURL, readRequest{AppID: appID, Action: token})
	if err != nil {
		return nil, err
	}

	var snap types.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", types.ErrTransport, err)
	}
	return &snap, nil
}

// post sends one JSON request and returns the response body on 2xx.
func (c *Client) post(ctx context.Context, url string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", types.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", types.ErrTransport, url, resp.StatusCode)
	}

	c.log.Debug("webhook round trip", "url", url, "status", resp.StatusCode,
		"elapsed", time.Since(start))
	return body, nil
}
