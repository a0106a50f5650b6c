package audiobookshelf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"absync/internal/services"
)

const userAgent = "absync/0.1.0"

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Options tunes client construction. Zero values fall back to defaults.
type Options struct {
	// RequestTimeout bounds metadata and control calls.
	RequestTimeout time.Duration
	// DownloadTimeout bounds file downloads including body reads.
	DownloadTimeout time.Duration
	// HTTPClient overrides both transports, primarily for tests.
	HTTPClient HTTPDoer
}

const (
	defaultRequestTimeout  = 30 * time.Second
	defaultDownloadTimeout = 10 * time.Minute
)

// Client is the shared API access layer for one Audiobookshelf server.
// Control calls authenticate with a bearer header; download endpoints
// additionally pass the API key as a token query parameter, which is what the
// server expects for streamed file responses. The client never retries.
type Client struct {
	name     string
	baseURL  string
	apiKey   string
	control  HTTPDoer
	download HTTPDoer
}

func newClient(name, baseURL, apiKey string, opts Options) *Client {
	requestTimeout := opts.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	downloadTimeout := opts.DownloadTimeout
	if downloadTimeout <= 0 {
		downloadTimeout = defaultDownloadTimeout
	}

	control := HTTPDoer(&http.Client{Timeout: requestTimeout})
	download := HTTPDoer(&http.Client{Timeout: downloadTimeout})
	if opts.HTTPClient != nil {
		control = opts.HTTPClient
		download = opts.HTTPClient
	}

	return &Client{
		name:     name,
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:   strings.TrimSpace(apiKey),
		control:  control,
		download: download,
	}
}

// BaseURL returns the server base URL the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping verifies the server is reachable and the API key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	return c.getJSON(ctx, "/api/me", nil, nil)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) patchJSON(ctx context.Context, path string, body any) error {
	return c.doJSON(ctx, http.MethodPatch, path, nil, body, nil)
}

func (c *Client) deleteJSON(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	op := fmt.Sprintf("%s %s", method, path)

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return services.Wrap(services.ErrMalformed, c.name, op, "encode request body", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.requestURL(path, query), reqBody)
	if err != nil {
		return services.Wrap(services.ErrMalformed, c.name, op, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.control.Do(req)
	if err != nil {
		return services.Wrap(services.ErrUnavailable, c.name, op, "request failed", err)
	}
	defer resp.Body.Close()

	if err := c.classifyStatus(op, resp); err != nil {
		return err
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrMalformed, c.name, op, "decode response", err)
	}
	return nil
}

// stream issues a download request and returns the body along with its
// content type. The caller owns the returned reader.
func (c *Client) stream(ctx context.Context, path string, withToken bool) (io.ReadCloser, string, error) {
	op := "GET " + path

	var query url.Values
	if withToken {
		query = url.Values{"token": []string{c.apiKey}}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(path, query), nil)
	if err != nil {
		return nil, "", services.Wrap(services.ErrMalformed, c.name, op, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.download.Do(req)
	if err != nil {
		return nil, "", services.Wrap(services.ErrUnavailable, c.name, op, "request failed", err)
	}
	if err := c.classifyStatus(op, resp); err != nil {
		resp.Body.Close()
		return nil, "", err
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) classifyStatus(op string, resp *http.Response) error {
	status := resp.StatusCode
	if status < 300 {
		return nil
	}

	detail := fmt.Sprintf("status %d", status)
	if body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048)); len(body) > 0 {
		if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
			detail = fmt.Sprintf("status %d: %s", status, trimmed)
		}
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.Wrap(services.ErrAuth, c.name, op, detail, nil)
	case status == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, c.name, op, detail, nil)
	default:
		return services.Wrap(services.ErrServer, c.name, op, detail, nil)
	}
}

func (c *Client) requestURL(path string, query url.Values) string {
	full := c.baseURL + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}
