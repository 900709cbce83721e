package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/feedpilot/backend/internal/domain"
)

const (
	defaultRunTTL         = 168 * time.Hour // 7 days
	suggestionConcurrency = 4
	runKeyPrefix          = "run:"
)

// FeedServiceConfig holds configuration for the feed service
type FeedServiceConfig struct {
	RunTTL         time.Duration
	MaxSuggestions int
}

// SyncOptions controls a feed synchronization
type SyncOptions struct {
	Publish bool
}

// ValidatedProduct pairs a product identifier with its validation result
type ValidatedProduct struct {
	ID         string                  `json:"id"`
	Validation domain.ValidationResult `json:"validation"`
}

// FeedService orchestrates parsing, optimization, title suggestions and run storage
type FeedService struct {
	optimizer      *BatchOptimizer
	parser         *ProductParser
	cache          domain.CacheRepository
	provider       domain.FeedProvider
	publisher      domain.FeedPublisher
	suggester      domain.TitleSuggester
	runTTL         time.Duration
	maxSuggestions int
	now            func() time.Time
	logger         zerolog.Logger
}

// FeedServiceOption configures optional collaborators of the feed service
type FeedServiceOption func(*FeedService)

// WithFeedProvider sets the source of feed synchronizations
func WithFeedProvider(provider domain.FeedProvider) FeedServiceOption {
	return func(s *FeedService) { s.provider = provider }
}

// WithFeedPublisher sets the destination of published labels
func WithFeedPublisher(publisher domain.FeedPublisher) FeedServiceOption {
	return func(s *FeedService) { s.publisher = publisher }
}

// WithTitleSuggester enables AI title suggestions for low performers
func WithTitleSuggester(suggester domain.TitleSuggester) FeedServiceOption {
	return func(s *FeedService) { s.suggester = suggester }
}

// WithClock overrides the clock used to timestamp runs
func WithClock(now func() time.Time) FeedServiceOption {
	return func(s *FeedService) { s.now = now }
}

// NewFeedService creates a new feed service with dependencies
func NewFeedService(
	optimizer *BatchOptimizer,
	parser *ProductParser,
	cache domain.CacheRepository,
	config FeedServiceConfig,
	logger zerolog.Logger,
	opts ...FeedServiceOption,
) *FeedService {
	runTTL := config.RunTTL
	if runTTL == 0 {
		runTTL = defaultRunTTL
	}

	s := &FeedService{
		optimizer:      optimizer,
		parser:         parser,
		cache:          cache,
		runTTL:         runTTL,
		maxSuggestions: config.MaxSuggestions,
		now:            time.Now,
		logger:         logger.With().Str("component", "feed_service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CanSync reports whether a feed provider is configured
func (s *FeedService) CanSync() bool {
	return s.provider != nil
}

// MapCategory resolves a product type and tags to a taxonomy code
func (s *FeedService) MapCategory(productType, tags string) domain.CategoryAssignment {
	return s.optimizer.Mapper().Map(productType, tags)
}

// ValidateProducts validates raw records. Records without an identifier are
// still validated so the missing id is reported as a violation.
func (s *FeedService) ValidateProducts(raws []json.RawMessage) ([]ValidatedProduct, []domain.SkippedProduct) {
	results := make([]ValidatedProduct, 0, len(raws))
	skipped := []domain.SkippedProduct{}

	for i, raw := range raws {
		product, err := s.parser.Decode(raw)
		if err != nil {
			skipped = append(skipped, domain.SkippedProduct{Index: i, Reason: err.Error()})
			continue
		}
		results = append(results, ValidatedProduct{
			ID:         product.ID,
			Validation: s.optimizer.Validator().Validate(product),
		})
	}

	return results, skipped
}

// ScoreProducts scores raw records, skipping malformed ones
func (s *FeedService) ScoreProducts(raws []json.RawMessage) ([]ScoredProduct, []domain.SkippedProduct) {
	products, skipped := s.parser.ParseBatch(raws)
	scored, noID := s.optimizer.Engine().BatchScore(products)
	return scored, append(nonNilSkipped(skipped), noID...)
}

// OptimizeProducts optimizes a batch of raw records and stores the resulting run
func (s *FeedService) OptimizeProducts(ctx context.Context, raws []json.RawMessage) (*domain.OptimizationRun, error) {
	if raws == nil {
		return nil, fmt.Errorf("%w: products array is required", domain.ErrInvalidRequest)
	}

	products, parseSkipped := s.parser.ParseBatch(raws)
	result := s.optimize(ctx, products)

	// Report parse failures against the request indices
	result.Skipped = append(nonNilSkipped(parseSkipped), remapSkipped(result.Skipped, raws, parseSkipped)...)
	sort.SliceStable(result.Skipped, func(a, b int) bool { return result.Skipped[a].Index < result.Skipped[b].Index })
	result.Stats.SkippedProducts = len(result.Skipped)

	run := s.newRun(domain.SourceRequest, result)
	s.storeRun(ctx, run)
	return run, nil
}

// SyncFeed pulls the catalog from the feed provider, optimizes it and optionally
// publishes categories and custom labels back.
func (s *FeedService) SyncFeed(ctx context.Context, opts SyncOptions) (*domain.OptimizationRun, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("%w: feed provider", domain.ErrProviderNotConfigured)
	}
	if opts.Publish && s.publisher == nil {
		return nil, fmt.Errorf("%w: feed publisher", domain.ErrProviderNotConfigured)
	}

	products, err := s.provider.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrFeedProviderFailure, s.provider.Name(), err)
	}
	s.logger.Info().Str("provider", s.provider.Name()).Int("products", len(products)).Msg("feed fetched")

	result := s.optimize(ctx, products)
	run := s.newRun(s.provider.Name(), result)

	var publishErr error
	if opts.Publish {
		publish, err := s.publisher.PublishProducts(ctx, result.OptimizedProducts)
		if err != nil {
			publishErr = fmt.Errorf("%w: %v", domain.ErrFeedPublishFailure, err)
			if publish == nil {
				publish = &domain.PublishResult{Failed: len(result.OptimizedProducts)}
			}
			publish.Errors = append(publish.Errors, err.Error())
		} else if publish == nil {
			publish = &domain.PublishResult{}
		}
		run.Publish = publish
		s.logger.Info().
			Str("run_id", run.ID).
			Int("submitted", publish.Submitted).
			Int("updated", publish.Updated).
			Int("failed", publish.Failed).
			Msg("feed published")
	}

	s.storeRun(ctx, run)
	return run, publishErr
}

// GetRun returns a stored optimization run
func (s *FeedService) GetRun(ctx context.Context, id string) (*domain.OptimizationRun, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: run id is required", domain.ErrInvalidRequest)
	}
	if s.cache == nil {
		return nil, domain.ErrRunNotFound
	}

	data, err := s.cache.Get(ctx, runKeyPrefix+id)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, domain.ErrRunNotFound
		}
		return nil, err
	}

	var run domain.OptimizationRun
	if err := json.Unmarshal(data, &run); err != nil {
		s.logger.Warn().Err(err).Str("run_id", id).Msg("discarding unreadable run")
		return nil, domain.ErrRunNotFound
	}
	return &run, nil
}

func (s *FeedService) optimize(ctx context.Context, products []domain.Product) domain.BatchResult {
	result := s.optimizer.OptimizeBatch(products)
	s.suggestTitles(ctx, result.OptimizedProducts)
	return result
}

// suggestTitles asks the suggester for better titles of low performers.
// Suggester failures are logged and never fail the batch.
func (s *FeedService) suggestTitles(ctx context.Context, products []domain.EnrichedProduct) {
	if s.suggester == nil || s.maxSuggestions <= 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(suggestionConcurrency)

	requested := 0
	for i := range products {
		if requested >= s.maxSuggestions {
			break
		}
		if products[i].Tier != domain.TierLow {
			continue
		}
		requested++

		i := i
		g.Go(func() error {
			p := &products[i]
			title, err := s.suggester.SuggestTitle(gctx, p.Product, p.Score.Recommendations)
			if err != nil {
				s.logger.Warn().Err(err).Str("product_id", p.Product.ID).Msg("title suggestion failed")
				return nil
			}
			p.SuggestedTitle = strings.TrimSpace(title)
			return nil
		})
	}

	_ = g.Wait()
}

func (s *FeedService) newRun(source string, result domain.BatchResult) *domain.OptimizationRun {
	return &domain.OptimizationRun{
		ID:        uuid.NewString(),
		Source:    source,
		CreatedAt: s.now().UTC(),
		Result:    result,
	}
}

// storeRun caches the run. Failures are logged and the run is still returned.
func (s *FeedService) storeRun(ctx context.Context, run *domain.OptimizationRun) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(run)
	if err != nil {
		s.logger.Error().Err(err).Str("run_id", run.ID).Msg("failed to encode run")
		return
	}
	if err := s.cache.Set(ctx, runKeyPrefix+run.ID, data, s.runTTL); err != nil {
		s.logger.Warn().Err(err).Str("run_id", run.ID).Msg("failed to store run")
	}
}

// remapSkipped translates optimizer skip indices, which refer to parsed products,
// back to indices of the original request.
func remapSkipped(skipped []domain.SkippedProduct, raws []json.RawMessage, parseSkipped []domain.SkippedProduct) []domain.SkippedProduct {
	if len(parseSkipped) == 0 {
		return skipped
	}

	dropped := make(map[int]bool, len(parseSkipped))
	for _, sp := range parseSkipped {
		dropped[sp.Index] = true
	}
	requestIndex := make([]int, 0, len(raws)-len(parseSkipped))
	for i := range raws {
		if !dropped[i] {
			requestIndex = append(requestIndex, i)
		}
	}

	out := make([]domain.SkippedProduct, len(skipped))
	for i, sp := range skipped {
		if sp.Index < len(requestIndex) {
			sp.Index = requestIndex[sp.Index]
		}
		out[i] = sp
	}
	return out
}

func nonNilSkipped(skipped []domain.SkippedProduct) []domain.SkippedProduct {
	if skipped == nil {
		return []domain.SkippedProduct{}
	}
	return skipped
}
