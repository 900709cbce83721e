package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feedpilot/backend/internal/domain"
)

// Price band labels stored in custom_label_2
const (
	PriceBandUnder20 = "price_under_20"
	PriceBand20To50  = "price_20_50"
	PriceBand50To100 = "price_50_100"
	PriceBandOver100 = "price_over_100"
	PriceBandUnknown = "price_unknown"
)

const analysisDateFormat = "2006-01-02"

var (
	priceBand20  = decimal.NewFromInt(20)
	priceBand50  = decimal.NewFromInt(50)
	priceBand100 = decimal.NewFromInt(100)
)

// BatchOptimizerConfig holds the tier thresholds and collaborators of the batch optimizer
type BatchOptimizerConfig struct {
	HighThreshold   int
	MediumThreshold int
	Now             func() time.Time     // Clock for the analysis date label, defaults to time.Now
	Recorder        domain.BatchRecorder // Optional
}

// BatchOptimizer validates, categorizes, scores and labels product batches
type BatchOptimizer struct {
	validator *ProductValidator
	mapper    *CategoryMapper
	engine    *ScoringEngine
	high      int
	medium    int
	now       func() time.Time
	recorder  domain.BatchRecorder
}

// NewBatchOptimizer creates a batch optimizer from its components
func NewBatchOptimizer(
	validator *ProductValidator,
	mapper *CategoryMapper,
	engine *ScoringEngine,
	config BatchOptimizerConfig,
) (*BatchOptimizer, error) {
	if validator == nil || mapper == nil || engine == nil {
		return nil, fmt.Errorf("%w: validator, mapper and scoring engine are required", domain.ErrInvalidConfig)
	}
	if config.MediumThreshold < 0 || config.HighThreshold <= config.MediumThreshold || config.HighThreshold > 100 {
		return nil, fmt.Errorf("%w: tier thresholds high=%d medium=%d", domain.ErrInvalidConfig,
			config.HighThreshold, config.MediumThreshold)
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &BatchOptimizer{
		validator: validator,
		mapper:    mapper,
		engine:    engine,
		high:      config.HighThreshold,
		medium:    config.MediumThreshold,
		now:       now,
		recorder:  config.Recorder,
	}, nil
}

// Validator returns the product validator used by the optimizer
func (o *BatchOptimizer) Validator() *ProductValidator { return o.validator }

// Mapper returns the category mapper used by the optimizer
func (o *BatchOptimizer) Mapper() *CategoryMapper { return o.mapper }

// Engine returns the scoring engine used by the optimizer
func (o *BatchOptimizer) Engine() *ScoringEngine { return o.engine }

// OptimizeBatch enriches every product of a batch and aggregates the batch statistics.
// Products without an identifier or with an identifier already seen are skipped.
// Invalid products are kept in the output, flagged through Valid and custom_label_1.
func (o *BatchOptimizer) OptimizeBatch(products []domain.Product) domain.BatchResult {
	start := time.Now()
	date := o.now().Format(analysisDateFormat)

	result := domain.BatchResult{
		OptimizedProducts: make([]domain.EnrichedProduct, 0, len(products)),
		Skipped:           []domain.SkippedProduct{},
	}

	seen := make(map[string]bool, len(products))
	for i, p := range products {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			result.Skipped = append(result.Skipped, domain.SkippedProduct{
				Index: i, Reason: domain.ErrMissingIdentifier.Error(),
			})
			continue
		}
		if seen[id] {
			result.Skipped = append(result.Skipped, domain.SkippedProduct{
				Index: i, ID: id, Reason: "duplicate product id",
			})
			continue
		}
		seen[id] = true

		result.OptimizedProducts = append(result.OptimizedProducts, o.enrich(p, date))
	}

	result.Stats = o.aggregate(result.OptimizedProducts)
	result.Stats.SkippedProducts = len(result.Skipped)

	if o.recorder != nil {
		o.recorder.RecordBatch(result, time.Since(start))
	}

	return result
}

func (o *BatchOptimizer) enrich(p domain.Product, date string) domain.EnrichedProduct {
	validation := o.validator.Validate(p)
	category := o.mapper.Map(p.ProductType, p.TagsText())
	score := o.engine.Score(p)
	tier := o.Tier(score.Overall)

	status := domain.StatusNeedsOptimization
	switch {
	case !validation.IsValid:
		status = domain.StatusInvalid
	case tier != domain.TierLow:
		status = domain.StatusOptimized
	}

	return domain.EnrichedProduct{
		Product:    p,
		Category:   category,
		Score:      score,
		Validation: validation,
		Valid:      validation.IsValid,
		Tier:       tier,
		CustomLabels: domain.CustomLabels{
			tier,
			status,
			PriceBand(p.Price),
			category.Code,
			date,
		},
	}
}

// Tier classifies an overall score into a performance tier
func (o *BatchOptimizer) Tier(score int) string {
	switch {
	case score >= o.high:
		return domain.TierHigh
	case score >= o.medium:
		return domain.TierMedium
	default:
		return domain.TierLow
	}
}

func (o *BatchOptimizer) aggregate(products []domain.EnrichedProduct) domain.BatchStats {
	stats := domain.BatchStats{TotalProducts: len(products)}

	sum := 0
	for _, p := range products {
		sum += p.Score.Overall
		switch p.Tier {
		case domain.TierHigh:
			stats.HighPerformance++
		case domain.TierMedium:
			stats.MediumPerformance++
		default:
			stats.LowPerformance++
		}
		if !p.Valid {
			stats.InvalidProducts++
		}
	}

	stats.AverageScore = "0.0"
	stats.OptimizationRate = "0.0"
	if n := len(products); n > 0 {
		stats.AverageScore = fmt.Sprintf("%.1f", float64(sum)/float64(n))
		stats.OptimizationRate = fmt.Sprintf("%.1f",
			100*float64(stats.HighPerformance+stats.MediumPerformance)/float64(n))
	}

	return stats
}

// PriceBand returns the custom_label_2 value of a price
func PriceBand(price domain.Price) string {
	if !price.Valid {
		return PriceBandUnknown
	}
	switch {
	case price.Amount.LessThan(priceBand20):
		return PriceBandUnder20
	case price.Amount.LessThan(priceBand50):
		return PriceBand20To50
	case price.Amount.LessThan(priceBand100):
		return PriceBand50To100
	default:
		return PriceBandOver100
	}
}
