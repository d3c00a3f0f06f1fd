// Package youtube fetches video comments through the YouTube Data API v3.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/gauthierbraillon/creatorpulse/internal/source"
)

const (
	// DefaultLimit caps comments per video to bound quota use and latency.
	DefaultLimit = 200
	maxPageSize  = 100
)

var errLimitReached = errors.New("comment limit reached")

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL sets a custom API endpoint (useful for testing).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/") + "/"
	}
}

// WithLimit sets the maximum number of comments read per video.
func WithLimit(limit int) ClientOption {
	return func(c *Client) {
		if limit > 0 {
			c.limit = limit
		}
	}
}

// Client is a YouTube comment reader.
type Client struct {
	apiKey     string
	baseURL    string
	limit      int
	httpClient *http.Client
}

// NewClient creates a new YouTube client authenticated with an API key.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		limit:      DefaultLimit,
		httpClient: &http.Client{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fetch streams top-level comment threads for the video behind locator until
// the limit is reached or the video has no more comments. Threads without text
// are skipped.
func (c *Client) Fetch(ctx context.Context, locator string) (*source.Result, error) {
	videoID, ok := VideoID(locator)
	if !ok {
		return nil, source.NewFetchError(source.PlatformYouTube, source.KindUnidentified, nil, "Could not identify YouTube video ID")
	}

	svc, err := c.service(ctx)
	if err != nil {
		return nil, source.NewFetchError(source.PlatformYouTube, source.KindNetwork, err, "failed to create YouTube client: %v", err)
	}

	pageSize := c.limit
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	comments := make([]string, 0, pageSize)
	call := svc.CommentThreads.List([]string{"snippet"}).
		VideoId(videoID).
		MaxResults(int64(pageSize)).
		TextFormat("plainText").
		Order("time")

	err = call.Pages(ctx, func(resp *yt.CommentThreadListResponse) error {
		for _, thread := range resp.Items {
			text := threadText(thread)
			if text == "" {
				continue
			}
			comments = append(comments, text)
			if len(comments) >= c.limit {
				return errLimitReached
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return nil, c.handleAPIError(err)
	}

	return &source.Result{
		Title:    fmt.Sprintf("YouTube Video (%s)", videoID),
		Comments: comments,
	}, nil
}

func (c *Client) service(ctx context.Context) (*yt.Service, error) {
	opts := []option.ClientOption{option.WithHTTPClient(c.keyedClient())}
	if c.baseURL != "" {
		opts = append(opts, option.WithEndpoint(c.baseURL))
	}
	return yt.NewService(ctx, opts...)
}

// keyedClient returns a copy of the HTTP client that sends the API key.
// option.WithHTTPClient bypasses option.WithAPIKey, so the key travels in a header.
func (c *Client) keyedClient() *http.Client {
	if c.apiKey == "" {
		return c.httpClient
	}
	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	keyed := *c.httpClient
	keyed.Transport = &apiKeyTransport{key: c.apiKey, base: base}
	return &keyed
}

type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("X-Goog-Api-Key", t.key)
	return t.base.RoundTrip(req)
}

// VideoID extracts the video id from youtu.be/ID, youtube.com/watch?v=ID and
// youtube.com/shorts/ID locators.
func VideoID(locator string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(locator))
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Host)
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	var id string
	switch {
	case strings.Contains(host, "youtu.be"):
		id = segments[0]
	case len(segments) >= 2 && segments[0] == "shorts":
		id = segments[1]
	default:
		id = u.Query().Get("v")
	}

	return id, id != ""
}

func threadText(thread *yt.CommentThread) string {
	if thread == nil || thread.Snippet == nil || thread.Snippet.TopLevelComment == nil || thread.Snippet.TopLevelComment.Snippet == nil {
		return ""
	}
	s := thread.Snippet.TopLevelComment.Snippet
	if s.TextOriginal != "" {
		return s.TextOriginal
	}
	return s.TextDisplay
}

func (c *Client) handleAPIError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return source.NewFetchError(source.PlatformYouTube, source.KindNetwork, err, "YouTube API request timed out")
		}
		return source.NewFetchError(source.PlatformYouTube, source.KindNetwork, err, "YouTube API request failed: %v", err)
	}

	switch apiErr.Code {
	case http.StatusBadRequest, http.StatusUnauthorized:
		return source.NewFetchError(source.PlatformYouTube, source.KindBlocked, err, "YouTube API authentication failed - check YOUTUBE_API_KEY")
	case http.StatusForbidden:
		return source.NewFetchError(source.PlatformYouTube, source.KindBlocked, err, "YouTube API access denied - comments may be disabled or quota exhausted")
	case http.StatusNotFound:
		return source.NewFetchError(source.PlatformYouTube, source.KindUnidentified, err, "YouTube video not found")
	case http.StatusTooManyRequests:
		return source.NewFetchError(source.PlatformYouTube, source.KindBlocked, err, "YouTube API rate limit exceeded - please try again later")
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return source.NewFetchError(source.PlatformYouTube, source.KindNetwork, err, "YouTube API server error - please try again later")
	default:
		return source.NewFetchError(source.PlatformYouTube, source.KindNetwork, err, "YouTube API error (status %d)", apiErr.Code)
	}
}

var _ source.Fetcher = (*Client)(nil)
