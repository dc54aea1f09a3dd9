package source

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client is the HTTP client shared by the adapters. Storefronts here serve
// browsers, not APIs, so requests carry realistic browser headers and
// responses may arrive gzip- or brotli-compressed.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient returns a client with the given per-request timeout. The
// orchestrator applies its own deadline via context; this timeout is a
// backstop for direct adapter use.
func NewClient(timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}
}

// SetTransport swaps the underlying transport, e.g. to proxy or record
// requests.
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.http.Transport = rt
}

// Get fetches a URL and returns the decoded body. Extra headers are
// applied after the browser defaults, so callers can override Accept.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, nil, headers)
}

// GetHTML fetches a page as a browser would.
func (c *Client) GetHTML(ctx context.Context, url string) ([]byte, error) {
	return c.Get(ctx, url, map[string]string{"Accept": "text/html,application/xhtml+xml"})
}

// GetJSON fetches a URL and unmarshals the JSON body into target.
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	body, err := c.Get(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// PostJSON sends a JSON payload and unmarshals the JSON response into
// target. Extra headers are applied on top of the JSON content type.
func (c *Client) PostJSON(ctx context.Context, url string, payload interface{}, target interface{}, headers map[string]string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	merged := map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json",
	}
	for k, v := range headers {
		merged[k] = v
	}

	body, err := c.do(ctx, http.MethodPost, url, bytes.NewReader(data), merged)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.setBrowserHeaders(req)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	reader, err := decodeReader(resp)
	if err != nil {
		return nil, fmt.Errorf("create reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

func (c *Client) setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, br")
	req.Header.Set("Connection", "keep-alive")
}

// decodeReader unwraps the response body according to Content-Encoding.
// Go's transport handles gzip transparently only when it set the header
// itself, which our explicit Accept-Encoding disables. The caller must
// close the returned reader; closing the gzip reader surfaces truncated
// streams.
func decodeReader(resp *http.Response) (io.ReadCloser, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "br":
		return io.NopCloser(brotli.NewReader(resp.Body)), nil
	default:
		return io.NopCloser(resp.Body), nil
	}
}
