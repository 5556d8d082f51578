// Package mtgio is a client for the magicthegathering.io card database.
package mtgio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramonehamilton/mtg-binder/internal/cards"
)

const (
	DefaultBaseURL = "https://api.magicthegathering.io/v1"
	pageSize       = 100
	rateLimitDelay = 200 * time.Millisecond // 5 req/sec
	requestTimeout = 30 * time.Second
)

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
	UserAgent         string
	Logger            *slog.Logger
}

// Client represents a rate limited card database client. Failed requests
// are not retried; errors are returned to the caller as is.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
	logger      *slog.Logger
}

// NewClient creates a new card database client.
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = DefaultBaseURL
	}
	if options.Timeout == 0 {
		options.Timeout = requestTimeout
	}
	if options.UserAgent == "" {
		options.UserAgent = "mtg-binder/1.0"
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	limit := rate.Every(rateLimitDelay)
	if options.RequestsPerSecond > 0 {
		limit = rate.Limit(options.RequestsPerSecond)
	}

	return &Client{
		baseURL: strings.TrimRight(options.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: options.Timeout,
		},
		rateLimiter: rate.NewLimiter(limit, 1),
		userAgent:   options.UserAgent,
		logger:      options.Logger,
	}
}

// Find retrieves a card by its database ID or multiverse ID.
func (c *Client) Find(ctx context.Context, id string) (*cards.Record, error) {
	u := fmt.Sprintf("%s/cards/%s", c.baseURL, url.PathEscape(id))

	var resp cardResponse
	if err := c.doRequest(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("failed to get card %s: %w", id, err)
	}

	rec := resp.Card.Record()
	return &rec, nil
}

// Where returns every printing matching filter. Set and number are exact
// matches; language restricts results to cards printed in that language.
func (c *Client) Where(ctx context.Context, filter cards.Filter) ([]cards.Record, error) {
	params := url.Values{}
	if filter.Set != "" {
		params.Set("set", filter.Set)
	}
	if filter.Number != "" {
		params.Set("number", filter.Number)
	}
	if filter.Language != "" {
		params.Set("language", filter.Language)
	}

	records, err := c.paginate(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards (set=%s number=%s): %w", filter.Set, filter.Number, err)
	}

	// The API matches numbers loosely; keep exact printings only.
	out := records[:0]
	for _, rec := range records {
		if filter.Set != "" && !strings.EqualFold(rec.SetCode, filter.Set) {
			continue
		}
		if filter.Number != "" && rec.Number != filter.Number {
			continue
		}
		out = append(out, rec)
	}

	c.logger.Debug("card query",
		"set", filter.Set,
		"number", filter.Number,
		"language", filter.Language,
		"results", len(out))

	return out, nil
}

// All retrieves every card in the database, page by page.
func (c *Client) All(ctx context.Context) ([]cards.Record, error) {
	records, err := c.paginate(ctx, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return records, nil
}

// Sets retrieves the list of all sets.
func (c *Client) Sets(ctx context.Context) ([]Set, error) {
	u := fmt.Sprintf("%s/sets", c.baseURL)

	var resp setsResponse
	if err := c.doRequest(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("failed to get sets: %w", err)
	}

	return resp.Sets, nil
}

func (c *Client) paginate(ctx context.Context, params url.Values) ([]cards.Record, error) {
	var records []cards.Record
	params.Set("pageSize", strconv.Itoa(pageSize))

	for page := 1; ; page++ {
		params.Set("page", strconv.Itoa(page))
		u := fmt.Sprintf("%s/cards?%s", c.baseURL, params.Encode())

		var resp cardsResponse
		if err := c.doRequest(ctx, u, &resp); err != nil {
			return nil, err
		}

		for _, card := range resp.Cards {
			records = append(records, card.Record())
		}

		if len(resp.Cards) < pageSize {
			return records, nil
		}
	}
}

// doRequest performs a rate limited GET request and decodes the JSON body.
func (c *Client) doRequest(ctx context.Context, u string, result interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to parse JSON response: %w", err)
		}

		return nil

	case http.StatusNotFound:
		return &NotFoundError{URL: u}

	default:
		body, _ := io.ReadAll(resp.Body)

		apiErr := APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
			apiErr.Status = resp.StatusCode
			return &apiErr
		}

		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}
}
