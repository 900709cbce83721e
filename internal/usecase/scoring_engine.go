package usecase

import (
	"fmt"
	"math"
	"strings"

	"github.com/feedpilot/backend/internal/domain"
)

// Subscore names
const (
	SubscoreBaseQuality = "base_quality"
	SubscoreMargin      = "margin"
	SubscoreRecruitment = "recruitment"
)

// Subscorer computes one weighted part of the product score.
// Score returns a ratio, nominally in [0, 1], and the recommendations it triggered.
type Subscorer interface {
	Name() string
	Weight() int
	Score(p domain.Product) (float64, []string)
}

// ScoredProduct pairs a product identifier with its score
type ScoredProduct struct {
	ID    string              `json:"id"`
	Score domain.ProductScore `json:"score"`
}

// ScoringEngine sums independent subscores into a 0-100 product score
type ScoringEngine struct {
	subscorers []Subscorer
}

// NewScoringEngine creates an engine from the given subscorers, in emission order
func NewScoringEngine(subscorers ...Subscorer) (*ScoringEngine, error) {
	if len(subscorers) == 0 {
		return nil, fmt.Errorf("%w: at least one subscorer is required", domain.ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(subscorers))
	total := 0
	for _, s := range subscorers {
		if s == nil || strings.TrimSpace(s.Name()) == "" {
			return nil, fmt.Errorf("%w: subscorer without a name", domain.ErrInvalidConfig)
		}
		if seen[s.Name()] {
			return nil, fmt.Errorf("%w: duplicate subscorer %q", domain.ErrInvalidConfig, s.Name())
		}
		if s.Weight() < 0 {
			return nil, fmt.Errorf("%w: subscorer %q has negative weight %d", domain.ErrInvalidConfig, s.Name(), s.Weight())
		}
		seen[s.Name()] = true
		total += s.Weight()
	}
	if total > 100 {
		return nil, fmt.Errorf("%w: subscore weights sum to %d, maximum is 100", domain.ErrInvalidConfig, total)
	}

	return &ScoringEngine{subscorers: append([]Subscorer{}, subscorers...)}, nil
}

// Score computes the composite score of a product.
// Each subscore is clamped to [0, weight] and the total to [0, 100].
func (e *ScoringEngine) Score(p domain.Product) domain.ProductScore {
	result := domain.ProductScore{
		Subscores:       make(map[string]int, len(e.subscorers)),
		Recommendations: []string{},
	}

	total := 0
	for _, s := range e.subscorers {
		ratio, recs := s.Score(p)
		points := weightedPoints(ratio, s.Weight())
		result.Subscores[s.Name()] = points
		result.Recommendations = append(result.Recommendations, recs...)
		total += points
	}

	result.Overall = clampInt(total, 0, 100)
	return result
}

// BatchScore scores each product independently, preserving input order.
// Products without an identifier are skipped and reported.
func (e *ScoringEngine) BatchScore(products []domain.Product) ([]ScoredProduct, []domain.SkippedProduct) {
	scored := make([]ScoredProduct, 0, len(products))
	var skipped []domain.SkippedProduct

	for i, p := range products {
		if strings.TrimSpace(p.ID) == "" {
			skipped = append(skipped, domain.SkippedProduct{Index: i, Reason: domain.ErrMissingIdentifier.Error()})
			continue
		}
		scored = append(scored, ScoredProduct{ID: p.ID, Score: e.Score(p)})
	}

	return scored, skipped
}

func weightedPoints(ratio float64, weight int) int {
	if math.IsNaN(ratio) {
		return 0
	}
	if math.IsInf(ratio, 0) {
		if ratio > 0 {
			return weight
		}
		return 0
	}
	return clampInt(int(math.Round(ratio*float64(weight))), 0, weight)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
