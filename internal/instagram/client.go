// Package instagram reads a post caption and its first comments anonymously.
//
// Instagram aggressively restricts anonymous access. When too little comes back
// the adapter fails with a message asking the user to paste comments manually,
// rather than returning a result that looks empty.
package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gauthierbraillon/creatorpulse/internal/source"
)

const (
	defaultBaseURL   = "https://www.instagram.com"
	defaultAPIURL    = "https://i.instagram.com"
	defaultAppID     = "936619743392459"
	defaultUserAgent = "Mozilla/5.0 (compatible; creatorpulse/0.1)"

	// DefaultLimit caps comments read per post.
	DefaultLimit = 50

	shortcodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	maxShortcodeLen   = 11
)

const (
	msgRestricted     = "Instagram restricted access. Please copy/paste comments manually."
	msgLoginRequired  = "Instagram requires login to view these comments. Please Copy & Paste them manually into the box below."
	msgCommentsDenied = "Instagram restricted comment access. Please Copy & Paste comments manually."
)

var shortcodePattern = regexp.MustCompile(`instagram\.com/(?:p|reel)/([^/?#&]+)`)

// errLoginWall marks responses that bounced to the login page or were refused.
var errLoginWall = errors.New("login required")

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

// WithBaseURL sets the web origin serving embed pages (useful for testing).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithAPIURL sets the origin serving the comments endpoint (useful for testing).
func WithAPIURL(apiURL string) ClientOption {
	return func(c *Client) {
		if apiURL != "" {
			c.apiURL = strings.TrimRight(apiURL, "/")
		}
	}
}

// WithAppID sets the web app id sent in X-IG-App-ID.
func WithAppID(appID string) ClientOption {
	return func(c *Client) {
		if appID != "" {
			c.appID = appID
		}
	}
}

// WithLimit sets the maximum number of comments read per post.
func WithLimit(limit int) ClientOption {
	return func(c *Client) {
		if limit > 0 {
			c.limit = limit
		}
	}
}

// Client reads Instagram posts.
type Client struct {
	httpClient HTTPClient
	baseURL    string
	apiURL     string
	appID      string
	limit      int
}

// NewClient creates a new Instagram client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    defaultBaseURL,
		apiURL:     defaultAPIURL,
		appID:      defaultAppID,
		limit:      DefaultLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the caption as the first comment followed by up to limit
// comments. Fewer than two items in total is an error.
func (c *Client) Fetch(ctx context.Context, locator string) (*source.Result, error) {
	code, ok := Shortcode(locator)
	if !ok {
		return nil, source.NewFetchError(source.PlatformInstagram, source.KindUnidentified, nil, "Could not identify Instagram post shortcode")
	}

	caption, err := c.fetchCaption(ctx, code)
	if err != nil {
		if errors.Is(err, errLoginWall) {
			return nil, source.NewFetchError(source.PlatformInstagram, source.KindBlocked, err, msgRestricted)
		}
		return nil, source.NewFetchError(source.PlatformInstagram, source.KindNetwork, err, "Instagram Error: %v", err)
	}

	items := make([]string, 0, c.limit+1)
	if caption != "" {
		items = append(items, caption)
	}

	comments, err := c.fetchComments(ctx, code)
	items = append(items, comments...)
	if err != nil && len(items) <= 1 {
		return nil, source.NewFetchError(source.PlatformInstagram, source.KindBlocked, err, msgLoginRequired)
	}
	if len(items) <= 1 {
		return nil, source.NewFetchError(source.PlatformInstagram, source.KindBlocked, nil, msgCommentsDenied)
	}

	return &source.Result{
		Title:    fmt.Sprintf("Instagram Post (%s)", code),
		Comments: items,
	}, nil
}

// Shortcode extracts the post shortcode from /p/CODE and /reel/CODE locators.
func Shortcode(locator string) (string, bool) {
	m := shortcodePattern.FindStringSubmatch(locator)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// MediaID decodes a shortcode into the numeric media id used by the API.
// Shortcodes of private posts carry a suffix after the first 11 characters.
func MediaID(code string) (string, error) {
	if len(code) > maxShortcodeLen {
		code = code[:maxShortcodeLen]
	}
	id := new(big.Int)
	base := big.NewInt(int64(len(shortcodeAlphabet)))
	for _, r := range code {
		idx := strings.IndexRune(shortcodeAlphabet, r)
		if idx < 0 {
			return "", fmt.Errorf("invalid shortcode character %q", r)
		}
		id.Mul(id, base)
		id.Add(id, big.NewInt(int64(idx)))
	}
	return id.String(), nil
}

func (c *Client) fetchCaption(ctx context.Context, code string) (string, error) {
	target := fmt.Sprintf("%s/p/%s/embed/captioned/", c.baseURL, url.PathEscape(code))
	resp, err := c.get(ctx, target, "text/html")
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse embed page: %w", err)
	}

	captionNode := doc.Find("div.Caption").First()
	captionNode.Find(".CaptionUsername, .CaptionComments").Remove()
	return strings.Join(strings.Fields(captionNode.Text()), " "), nil
}

func (c *Client) fetchComments(ctx context.Context, code string) ([]string, error) {
	mediaID, err := MediaID(code)
	if err != nil {
		return nil, err
	}

	comments := make([]string, 0, c.limit)
	minID := ""
	for len(comments) < c.limit {
		q := url.Values{}
		q.Set("can_support_threading", "true")
		q.Set("permalink_enabled", "false")
		if minID != "" {
			q.Set("min_id", minID)
		}
		target := fmt.Sprintf("%s/api/v1/media/%s/comments/?%s", c.apiURL, mediaID, q.Encode())

		page, err := c.commentPage(ctx, target)
		if err != nil {
			return comments, err
		}
		for _, cm := range page.Comments {
			if cm.Text == "" {
				continue
			}
			comments = append(comments, cm.Text)
			if len(comments) >= c.limit {
				break
			}
		}
		if page.NextMinID == "" || page.NextMinID == minID || len(page.Comments) == 0 {
			break
		}
		minID = page.NextMinID
	}
	return comments, nil
}

func (c *Client) commentPage(ctx context.Context, target string) (*commentsResponse, error) {
	resp, err := c.get(ctx, target, "application/json")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read comments: %w", err)
	}
	var page commentsResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to parse comments: %w", err)
	}
	if page.Status == "fail" {
		return nil, fmt.Errorf("%w: %s", errLoginWall, page.Message)
	}
	return &page, nil
}

// get performs a GET and returns the response only for 200s that did not
// land on the login page. The caller closes the body.
func (c *Client) get(ctx context.Context, target, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("X-IG-App-ID", c.appID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.Request != nil && resp.Request.URL != nil && strings.Contains(resp.Request.URL.Path, "/accounts/login") {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: redirected to login page", errLoginWall)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", errLoginWall, resp.StatusCode)
	default:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

type commentsResponse struct {
	Comments []struct {
		Text string `json:"text"`
	} `json:"comments"`
	NextMinID string `json:"next_min_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

var _ source.Fetcher = (*Client)(nil)
