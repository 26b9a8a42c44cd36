package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gamefold/gamefold-go/pkg/log"
)

const DefaultRequestTimeout = 10 * time.Second

// Client issues request/response calls against the backend API. Every
// response is decoded into the uniform Result envelope; Request only
// returns an error for transport-level failures.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

type NewClientOptions struct {
	BaseURL string
	APIKey  string
	// Timeout bounds each request. Zero means DefaultRequestTimeout.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates a new API client.
func NewClient(opts NewClientOptions) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultRequestTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		timeout:    timeout,
		httpClient: httpClient,
	}
}

// Request performs one API call and returns the decoded envelope.
// A non-2xx status with a decodable envelope body is not an error; the
// backend's verdict is whatever the envelope says.
func (c *Client) Request(ctx context.Context, method, path string, body interface{}) (*Result, error) {
	op := fmt.Sprintf("%s %s", method, path)

	var requestBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to marshal request body: %v", err)}
		}
		requestBody = bytes.NewReader(b)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, requestBody)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	log.Trace("API request %s", op)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to send request: %v", err)}
	}
	defer resp.Body.Close()

	result := &Result{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to decode response (status %s): %v", resp.Status, err)}
	}

	if !result.Success {
		log.Debug("API request %s failed: %s", op, result.Error.String())
	}

	return result, nil
}

// Get is shorthand for a GET Request.
func (c *Client) Get(ctx context.Context, path string) (*Result, error) {
	return c.Request(ctx, http.MethodGet, path, nil)
}

// Post is shorthand for a POST Request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Result, error) {
	return c.Request(ctx, http.MethodPost, path, body)
}
