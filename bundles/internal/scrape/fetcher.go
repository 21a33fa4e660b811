// Package scrape fetches and dissects authoritative catalog pages.
//
// The HTTP side is behind the Fetcher interface so the refresh pipeline can
// be tested with fake pages (ok, redirected, unreachable) without network
// access. Extraction of the candidate fields from a fetched page lives in
// extract.go.
package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html"
)

// Page is one fetched, parsed catalog page.
type Page struct {
	FinalURL string // URL after redirects; the removal signal
	Doc      *html.Node
}

// Fetcher retrieves one catalog page by URL.
type Fetcher interface {
	FetchPage(ctx context.Context, url string) (*Page, error)
}

// Config configures the HTTP client.
type Config struct {
	// BaseURL of the catalog, without trailing slash.
	BaseURL string
	// Country and Language pin the regional configuration so responses are
	// deterministic.
	Country  string
	Language string
	// Timeout is the HTTP timeout. Default: 30s.
	Timeout time.Duration
	// MaxBytes caps the response body size. Default: 10MB.
	MaxBytes int64
	// UserAgent sent with requests.
	UserAgent string
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://store.steampowered.com"
	}
	if c.Country == "" {
		c.Country = "US"
	}
	if c.Language == "" {
		c.Language = "english"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "bundlecache/1.0"
	}
}

// Client is the production Fetcher.
type Client struct {
	client *http.Client
	config Config
}

// NewClient creates a Client with a bounded redirect chain.
func NewClient(cfg Config) *Client {
	cfg.defaults()
	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				return nil
			},
		},
		config: cfg,
	}
}

// PageURL returns the authoritative page URL for one bundle identifier,
// pinned to the configured region and language.
func (c *Client) PageURL(id int64) string {
	return fmt.Sprintf("%s/bundle/%d/?cc=%s&l=%s",
		c.config.BaseURL, id, c.config.Country, c.config.Language)
}

// FetchPage retrieves and parses one page. The age-verification cookies are
// sent on every request so the source never interposes its age gate.
func (c *Client) FetchPage(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.AddCookie(&http.Cookie{Name: "birthtime", Value: "0"})
	req.AddCookie(&http.Cookie{Name: "lastagecheckage", Value: "1-January-1970"})
	req.AddCookie(&http.Cookie{Name: "wants_mature_content", Value: "1"})

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty body")
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	return &Page{
		FinalURL: resp.Request.URL.String(),
		Doc:      doc,
	}, nil
}
