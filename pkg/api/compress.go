package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gamefold/gamefold-go/pkg/log"
	"github.com/klauspost/compress/gzip"
)

// compressThreshold is the body size in bytes above which PostCompressed
// gzips the request body.
const compressThreshold = 1024

// PostCompressed performs a POST Request, gzipping the request body when
// it is large enough to be worth it. Used for analytics batch uploads.
func (c *Client) PostCompressed(ctx context.Context, path string, body interface{}) (*Result, error) {
	op := fmt.Sprintf("%s %s", http.MethodPost, path)

	b, err := json.Marshal(body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to marshal request body: %v", err)}
	}

	if len(b) < compressThreshold {
		return c.Request(ctx, http.MethodPost, path, json.RawMessage(b))
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(b); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to compress request body: %v", err)}
	}
	if err := gz.Close(); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to compress request body: %v", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	log.Trace("API request %s (%d bytes compressed to %d)", op, len(b), buf.Len())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to send request: %v", err)}
	}
	defer resp.Body.Close()

	result := &Result{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to decode response (status %s): %v", resp.Status, err)}
	}
	return result, nil
}
