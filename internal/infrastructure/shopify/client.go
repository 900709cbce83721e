package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/feedpilot/backend/internal/domain"
)

const (
	providerName = domain.SourceShopify
	pageSize     = 250
	maxAttempts  = 3
	maxPages     = 400 // 100k products
)

var (
	nextLinkRegex = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

	errRetryable = errors.New("retryable shopify response")
)

// Config holds the settings of the Shopify Admin API client
type Config struct {
	StoreURL          string
	AccessToken       string
	APIVersion        string
	Currency          string
	RequestsPerSecond float64
}

// Client handles communication with the Shopify Admin REST API
type Client struct {
	httpClient  *http.Client
	storeURL    string
	accessToken string
	apiVersion  string
	currency    string
	rateLimiter *rate.Limiter
	debug       bool
	logger      zerolog.Logger
}

// NewClient creates a new Shopify API client
func NewClient(config Config, logger zerolog.Logger) *Client {
	// Shopify's leaky bucket refills at 2 requests/sec on standard plans
	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	storeURL := strings.TrimRight(strings.TrimSpace(config.StoreURL), "/")
	if storeURL != "" && !strings.Contains(storeURL, "://") {
		storeURL = "https://" + storeURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		storeURL:    storeURL,
		accessToken: config.AccessToken,
		apiVersion:  config.APIVersion,
		currency:    config.Currency,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 4),
		logger:      logger.With().Str("component", "shopify").Logger(),
	}
}

// SetDebug enables or disables request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// Name identifies the provider in runs and logs
func (c *Client) Name() string {
	return providerName
}

// ListProducts fetches every active product of the store, following cursor pagination
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", pageSize))
	params.Set("status", "active")
	next := fmt.Sprintf("%s/admin/api/%s/products.json?%s", c.storeURL, c.apiVersion, params.Encode())

	var products []domain.Product
	for page := 0; next != "" && page < maxPages; page++ {
		resp, link, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		for i := range resp.Products {
			products = append(products, MapToProduct(&resp.Products[i], c.storeURL, c.currency))
		}
		next = link
	}

	c.logger.Info().Int("products", len(products)).Msg("shopify catalog fetched")
	return products, nil
}

// fetchPage requests one page, retrying rate limited and server errors
func (c *Client) fetchPage(ctx context.Context, reqURL string) (*ProductsResponse, string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, "", fmt.Errorf("rate limiter error: %w", err)
		}

		page, next, err := c.doRequest(ctx, reqURL)
		if err == nil {
			return page, next, nil
		}
		if !errors.Is(err, errRetryable) {
			return nil, "", err
		}

		lastErr = err
		c.logger.Warn().Err(err).Int("attempt", attempt).Msg("shopify request failed")
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(exponentialBackoff(attempt)):
		}
	}

	return nil, "", fmt.Errorf("all %d attempts failed: %w", maxAttempts, lastErr)
}

func (c *Client) doRequest(ctx context.Context, reqURL string) (*ProductsResponse, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "FeedPilot/1.0")

	if c.debug {
		c.logger.Debug().Str("url", reqURL).Msg("shopify request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", errRetryable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading body: %v", errRetryable, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, "", fmt.Errorf("%w: status %d", errRetryable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, "", fmt.Errorf("shopify api error: status %d, body: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var page ProductsResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", fmt.Errorf("failed to decode response: %w", err)
	}

	return &page, parseNextLink(resp.Header.Get("Link")), nil
}

// parseNextLink extracts the rel="next" URL of a Link header
func parseNextLink(header string) string {
	match := nextLinkRegex.FindStringSubmatch(header)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
