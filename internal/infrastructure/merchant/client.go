package merchant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/oauth2/google"
	content "google.golang.org/api/content/v2.1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/feedpilot/backend/internal/domain"
)

const (
	providerName      = domain.SourceMerchant
	pageSize          = 250
	maxPages          = 400
	defaultBatchSize  = 500
	maxReportedErrors = 50
)

// Config holds the settings of the Merchant Center Content API client
type Config struct {
	MerchantID      uint64
	CredentialsFile string
	Endpoint        string
	BatchSize       int
	ContentLanguage string
	FeedLabel       string
}

// Client reads and updates the products of a Merchant Center account
type Client struct {
	service    *content.APIService
	merchantID uint64
	batchSize  int
	language   string
	feedLabel  string
	cb         *gobreaker.CircuitBreaker
	logger     zerolog.Logger

	mu      sync.RWMutex
	restIDs map[string]string // offerId -> REST id seen by the last ListProducts
}

// NewClient creates a Content API client. Extra options (an HTTP client in tests)
// are applied after the ones derived from config.
func NewClient(ctx context.Context, config Config, logger zerolog.Logger, opts ...option.ClientOption) (*Client, error) {
	if config.MerchantID == 0 {
		return nil, fmt.Errorf("%w: merchant id is required", domain.ErrInvalidConfig)
	}

	var clientOpts []option.ClientOption
	if config.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(config.Endpoint))
	}
	switch {
	case len(opts) > 0:
	case config.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(config.CredentialsFile))
	default:
		ts, err := google.DefaultTokenSource(ctx, content.ContentScope)
		if err != nil {
			return nil, fmt.Errorf("failed to find default credentials: %w", err)
		}
		clientOpts = append(clientOpts, option.WithTokenSource(ts))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := content.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create content service: %w", err)
	}

	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	log := logger.With().Str("component", "merchant").Logger()

	cbSettings := gobreaker.Settings{
		Name:        "merchant-content-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}

	return &Client{
		service:    service,
		merchantID: config.MerchantID,
		batchSize:  batchSize,
		language:   config.ContentLanguage,
		feedLabel:  config.FeedLabel,
		cb:         gobreaker.NewCircuitBreaker(cbSettings),
		logger:     log,
		restIDs:    make(map[string]string),
	}, nil
}

// Name identifies the provider in runs and logs
func (c *Client) Name() string {
	return providerName
}

// ListProducts fetches every product of the account
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var (
		products  []domain.Product
		restIDs   = make(map[string]string)
		pageToken string
	)

	for page := 0; page < maxPages; page++ {
		token := pageToken
		out, err := c.cb.Execute(func() (interface{}, error) {
			call := c.service.Products.List(c.merchantID).MaxResults(pageSize).Context(ctx)
			if token != "" {
				call = call.PageToken(token)
			}
			return call.Do()
		})
		if err != nil {
			return nil, c.wrapError(err, "failed to list products")
		}

		resp := out.(*content.ProductsListResponse)
		for _, resource := range resp.Resources {
			if resource == nil {
				continue
			}
			product := MapToProduct(resource)
			if product.ID != "" && resource.Id != "" {
				restIDs[product.ID] = resource.Id
			}
			products = append(products, product)
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	c.mu.Lock()
	c.restIDs = restIDs
	c.mu.Unlock()

	c.logger.Info().Int("products", len(products)).Msg("merchant catalog fetched")
	return products, nil
}

// PublishProducts pushes category and custom labels of optimized products,
// one custombatch request per chunk of BatchSize products.
func (c *Client) PublishProducts(ctx context.Context, products []domain.EnrichedProduct) (*domain.PublishResult, error) {
	result := &domain.PublishResult{}

	for start := 0; start < len(products); start += c.batchSize {
		end := min(start+c.batchSize, len(products))
		chunk := products[start:end]

		req := &content.ProductsCustomBatchRequest{
			Entries: make([]*content.ProductsCustomBatchRequestEntry, 0, len(chunk)),
		}
		for i, ep := range chunk {
			req.Entries = append(req.Entries, &content.ProductsCustomBatchRequestEntry{
				BatchId:    int64(start + i),
				MerchantId: c.merchantID,
				Method:     "update",
				ProductId:  c.restID(ep.Product.ID),
				Product:    ToUpdate(ep),
				UpdateMask: updateMask,
			})
		}
		result.Submitted += len(chunk)

		out, err := c.cb.Execute(func() (interface{}, error) {
			return c.service.Products.Custombatch(req).Context(ctx).Do()
		})
		if err != nil {
			result.Failed += len(chunk)
			return result, c.wrapError(err, "custombatch request failed")
		}

		resp := out.(*content.ProductsCustomBatchResponse)
		answered := 0
		for _, entry := range resp.Entries {
			if entry == nil {
				continue
			}
			answered++
			if msg := entryError(entry.Errors); msg != "" {
				result.Failed++
				c.addError(result, offerIDAt(products, entry.BatchId), msg)
				continue
			}
			result.Updated++
		}
		if missing := len(chunk) - answered; missing > 0 {
			result.Failed += missing
		}
	}

	c.logger.Info().
		Int("submitted", result.Submitted).
		Int("updated", result.Updated).
		Int("failed", result.Failed).
		Msg("merchant products published")

	return result, nil
}

// IsCircuitOpen reports whether the breaker currently rejects calls
func (c *Client) IsCircuitOpen() bool {
	return c.cb.State() == gobreaker.StateOpen
}

func (c *Client) restID(offerID string) string {
	c.mu.RLock()
	id, ok := c.restIDs[offerID]
	c.mu.RUnlock()
	if ok {
		return id
	}
	return RestID(c.language, c.feedLabel, offerID)
}

func (c *Client) addError(result *domain.PublishResult, offerID, msg string) {
	if len(result.Errors) >= maxReportedErrors {
		return
	}
	result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", offerID, msg))
}

func (c *Client) wrapError(err error, msg string) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: merchant api unavailable: %w", msg, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: status %d: %s", msg, apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// isSuccessful keeps client errors from tripping the breaker
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code < http.StatusInternalServerError && apiErr.Code != http.StatusTooManyRequests
	}
	return false
}

func entryError(errs *content.Errors) string {
	if errs == nil {
		return ""
	}
	if errs.Message != "" {
		return errs.Message
	}
	for _, e := range errs.Errors {
		if e != nil && e.Message != "" {
			return e.Message
		}
	}
	if len(errs.Errors) > 0 || errs.Code != 0 {
		return fmt.Sprintf("error code %d", errs.Code)
	}
	return ""
}

func offerIDAt(products []domain.EnrichedProduct, batchID int64) string {
	if batchID < 0 || batchID >= int64(len(products)) {
		return fmt.Sprintf("batch %d", batchID)
	}
	return products[batchID].Product.ID
}
