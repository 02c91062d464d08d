// Package metadata talks to the external title metadata API and maps its
// codes onto the catalog vocabulary.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Source is what the refresh job needs from the metadata API.
type Source interface {
	ListAll(ctx context.Context) ([]TitleSummary, error)
	Detail(ctx context.Context, id string) (TitleDetail, error)
}

// Config holds the client settings.
type Config struct {
	BaseURL   string
	APIKey    string
	Country   string
	MaxPages  int
	RateLimit float64 // requests per second
	Burst     int
	Timeout   time.Duration
}

// Client is an HTTP client for the metadata API. All calls share one rate
// limiter.
type Client struct {
	baseURL  string
	apiKey   string
	country  string
	maxPages int
	limiter  *rate.Limiter
	client   *http.Client
}

// NewClient creates a client from cfg.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("metadata base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid metadata base url: %w", err)
	}

	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 20
	}
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:  base,
		apiKey:   cfg.APIKey,
		country:  cfg.Country,
		maxPages: maxPages,
		limiter:  rate.NewLimiter(limit, burst),
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// ListPage fetches a single list page.
func (c *Client) ListPage(ctx context.Context, page int) ([]TitleSummary, int, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if c.country != "" {
		q.Set("country", c.country)
	}

	var resp listResponse
	if err := c.getJSON(ctx, "/titles", q, &resp); err != nil {
		return nil, 0, fmt.Errorf("list page %d: %w", page, err)
	}
	return resp.Results, resp.TotalPages, nil
}

// ListAll walks every list page up to the configured page cap. An error on
// any page fails the whole listing.
func (c *Client) ListAll(ctx context.Context) ([]TitleSummary, error) {
	var all []TitleSummary
	for page := 1; page <= c.maxPages; page++ {
		results, totalPages, err := c.ListPage(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, results...)
		if page >= totalPages || len(results) == 0 {
			break
		}
	}
	return all, nil
}

// Detail fetches the full record for one title.
func (c *Client) Detail(ctx context.Context, id string) (TitleDetail, error) {
	q := url.Values{}
	if c.country != "" {
		q.Set("country", c.country)
	}

	var d TitleDetail
	if err := c.getJSON(ctx, "/titles/"+url.PathEscape(id), q, &d); err != nil {
		return TitleDetail{}, fmt.Errorf("detail %s: %w", id, err)
	}
	if d.ID == "" {
		d.ID = id
	}
	return d, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		_ = json.Unmarshal(body, &apiErr)
		return &StatusError{StatusCode: resp.StatusCode, URL: path, Message: apiErr.Message}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
