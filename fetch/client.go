// Package fetch is the HTTP collaborator for live feeds and static bundles:
// timeout-bounded, cancellable, no internal retries.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// NetworkError reports a failed fetch. StatusCode is 0 when the request
// never produced a response. City is stamped by callers that know which
// feed the request served.
type NetworkError struct {
	City       string
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	prefix := "fetch"
	if e.City != "" {
		prefix = "fetch " + e.City + " feed"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: HTTP %d", prefix, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", prefix, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Client wraps an http.Client with the configured timeout.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// Get fetches a URL and returns the body bytes.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, &NetworkError{URL: url, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	return body, nil
}

// Probe issues a metadata-only request and returns the remote freshness
// token (the Last-Modified header; empty when the server does not send one).
// The body is never downloaded.
func (c *Client) Probe(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "", &NetworkError{URL: url, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &NetworkError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", &NetworkError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp.Header.Get("Last-Modified"), nil
}

// Download streams a URL's body into w.
func (c *Client) Download(ctx context.Context, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &NetworkError{URL: url, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return &NetworkError{URL: url, StatusCode: resp.StatusCode}
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return &NetworkError{URL: url, Err: err}
	}
	return nil
}
