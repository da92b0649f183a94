package archive

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Automatic365/substack-downloader/app/cfg"
)

const authProbeURL = "https://substack.com/api/v1/subscriptions"

// Client fetches newsletter metadata and post content from a Substack
// publication's public endpoints.
type Client struct {
	baseURL    string
	apiURL     string
	feedURL    string
	cookie     string
	httpClient *http.Client
	cache      *ContentCache
	userAgent  string
	pageSize   int
	rateDelay  time.Duration
	workers    int
}

// NewClient validates the newsletter URL and builds a client. Supplying a
// session cookie together with a plain-HTTP URL is a configuration error and
// fails before any network call.
func NewClient(rawURL, cookie string, c *cfg.Cfg) (*Client, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("URL must be a non-empty string")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid URL format: %s", rawURL)
	}

	if parsed.Scheme == "http" {
		if cookie != "" {
			return nil, fmt.Errorf("cannot use authentication cookie with HTTP URL, use HTTPS to protect credentials")
		}
		slog.Warn("Using HTTP instead of HTTPS, connection is not encrypted", "url", rawURL)
	}

	if cookie != "" {
		if !strings.Contains(cookie, "substack.sid=") {
			cookie = "substack.sid=" + cookie
		}
		slog.Info("Cookie provided for authenticated requests")
	}

	base := strings.TrimRight(rawURL, "/")

	client := &Client{
		baseURL: base,
		apiURL:  base + "/api/v1/archive",
		feedURL: base + "/feed",
		cookie:  cookie,
		httpClient: &http.Client{
			Timeout:   time.Duration(c.Timeout) * time.Second,
			Transport: newRetryTransport(c.MaxRetries, c.RetryBackoff),
		},
		userAgent: c.UserAgent,
		pageSize:  c.PageSize,
		rateDelay: time.Duration(c.RateDelay * float64(time.Second)),
		workers:   c.WorkerCount,
	}

	if c.CacheEnabled {
		cache, err := NewContentCache(c.CacheDir)
		if err != nil {
			slog.Warn("Failed to open content cache, continuing without it", "error", err)
		} else {
			client.cache = cache
			slog.Info("Content cache enabled", "dir", c.CacheDir)
		}
	}

	slog.Info("Initialized archive client", "url", client.baseURL)
	return client, nil
}

// Cache returns the content cache, or nil when caching is disabled.
func (c *Client) Cache() *ContentCache {
	return c.cache
}

// Close releases the content cache if one is open.
func (c *Client) Close() error {
	if c.cache != nil {
		return c.cache.Close()
	}
	return nil
}

// VerifySession probes an authenticated endpoint with the configured cookie.
// A missing cookie reports false without any network activity.
func (c *Client) VerifySession(ctx context.Context) bool {
	if c.cookie == "" {
		return false
	}

	resp, err := c.get(ctx, authProbeURL)
	if err != nil {
		slog.Error("Error verifying authentication", "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		slog.Info("Authentication verification successful")
		return true
	}

	slog.Warn("Authentication verification failed", "status", resp.StatusCode)
	return false
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", "https://substack.com/")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	return c.httpClient.Do(req)
}
