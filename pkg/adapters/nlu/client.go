package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
)

// Client implements ports.Classifier against an HTTP intent service.
// One Classify call is exactly one GET; retry policy lives in the resolver.
type Client struct {
	endpoint string
	token    string
	timeout  time.Duration
	http     *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, e.g. for tests or
// custom transports. WithTimeout has no effect on a replaced client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithToken sets a bearer token attached to every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// New creates a classification client for the given endpoint URL.
func New(endpoint string, opts ...Option) *Client {
	client := &Client{
		endpoint: endpoint,
		timeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.http == nil {
		client.http = &http.Client{Timeout: client.timeout}
	}
	return client
}

type classifyResponse struct {
	Intent struct {
		Name string `json:"name"`
	} `json:"intent"`
}

// Classify sends the phrase as the q query parameter and parses the
// intent name out of the response. A 429 maps to domain.ErrRateLimited;
// any other non-success status maps to *domain.ClassificationError.
func (c *Client) Classify(ctx context.Context, phrase string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	query := u.Query()
	query.Set("q", phrase)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to parsing
	case http.StatusTooManyRequests:
		return "", domain.ErrRateLimited
	default:
		return "", &domain.ClassificationError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed classifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	return parsed.Intent.Name, nil
}
