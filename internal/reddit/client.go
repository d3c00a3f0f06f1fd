// Package reddit fetches top-level comments from a Reddit post through its
// public .json representation. No API key is needed.
package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gauthierbraillon/creatorpulse/internal/source"
)

const (
	defaultUserAgent = "creatorpulse/0.1"
	defaultTitle     = "Reddit Post"
	kindComment      = "t1"
)

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL replaces the scheme and host of every locator (useful for testing).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithUserAgent sets the User-Agent header. Reddit throttles generic agents hard.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// Client reads Reddit post comment listings.
type Client struct {
	httpClient HTTPClient
	baseURL    string
	userAgent  string
}

// NewClient creates a new Reddit client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the post title and its top-level comments in listing order.
// Replies are not followed and there is no pagination.
func (c *Client) Fetch(ctx context.Context, locator string) (*source.Result, error) {
	target, err := c.buildJSONURL(locator)
	if err != nil {
		return nil, source.NewFetchError(source.PlatformReddit, source.KindUnidentified, err, "invalid Reddit URL: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, source.NewFetchError(source.PlatformReddit, source.KindUnidentified, err, "failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, source.NewFetchError(source.PlatformReddit, source.KindNetwork, err, "failed to connect to Reddit: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, handleStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, source.NewFetchError(source.PlatformReddit, source.KindNetwork, err, "failed to read Reddit response: %v", err)
	}

	return parseListings(body)
}

func (c *Client) buildJSONURL(locator string) (string, error) {
	target := JSONURL(locator)
	if c.baseURL == "" {
		return target, nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	return c.baseURL + u.EscapedPath(), nil
}

// JSONURL converts a post URL to its .json form. The query string is dropped
// and both trailing-slash and bare forms end in "/.json".
func JSONURL(locator string) string {
	clean, _, _ := strings.Cut(locator, "?")
	clean, _, _ = strings.Cut(clean, "#")
	switch {
	case strings.HasSuffix(clean, ".json"):
		return clean
	case strings.HasSuffix(clean, "/"):
		return clean + ".json"
	default:
		return clean + "/.json"
	}
}

func parseListings(body []byte) (*source.Result, error) {
	var listings []listing
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, source.NewFetchError(source.PlatformReddit, source.KindMalformed, err, "failed to parse Reddit response: %v", err)
	}
	if len(listings) < 2 {
		return nil, source.NewFetchError(source.PlatformReddit, source.KindMalformed, errors.New("expected post and comment listings"),
			"unexpected Reddit response: got %d listings, want 2", len(listings))
	}

	title := defaultTitle
	if posts := listings[0].Data.Children; len(posts) > 0 && posts[0].Data.Title != "" {
		title = posts[0].Data.Title
	}

	comments := make([]string, 0, len(listings[1].Data.Children))
	for _, child := range listings[1].Data.Children {
		if child.Kind != kindComment || isPlaceholder(child.Data.Body) {
			continue
		}
		comments = append(comments, child.Data.Body)
	}

	return &source.Result{Title: title, Comments: comments}, nil
}

func isPlaceholder(body string) bool {
	return body == "" || body == "[deleted]" || body == "[removed]"
}

func handleStatus(statusCode int) error {
	kind := source.KindNetwork
	switch statusCode {
	case http.StatusForbidden, http.StatusTooManyRequests:
		kind = source.KindBlocked
	case http.StatusNotFound:
		kind = source.KindUnidentified
	}
	return source.NewFetchError(source.PlatformReddit, kind, nil, "Failed to fetch Reddit data: Status %d", statusCode)
}

// listing is the private shape of one element of Reddit's top-level array.
type listing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []struct {
			Kind string `json:"kind"`
			Data struct {
				Title string `json:"title"`
				Body  string `json:"body"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

var _ source.Fetcher = (*Client)(nil)
