package usecase

import (
	"fmt"
	"strings"

	"github.com/feedpilot/backend/internal/domain"
)

// Base quality points, out of baseQualityScale
const (
	titleOptimalPoints     = 10.0 // Title length in the optimal band
	titleAcceptablePoints  = 6.0  // Title length within limits but short
	titleOutOfRangePoints  = 2.0  // Title present but outside limits
	titleSpecificPoints    = 4.0  // Title is not generic
	descriptionRichPoints  = 10.0 // Description of richDescriptionLength or more
	descriptionValidPoints = 7.0  // Description meets the minimum
	descriptionShortPoints = 3.0  // Description present but short
	imagesFullPoints       = 10.0 // Three images or more
	imagesTwoPoints        = 7.0
	imagesOnePoint         = 5.0
	brandPoints            = 3.0
	identifierPoints       = 3.0 // GTIN/barcode or SKU
	baseQualityScale       = 40.0

	optimalTitleLength    = 30
	richDescriptionLength = 500
	recommendedImages     = 3
)

// premiumSignals raise the expected margin of a product when metrics are missing
var premiumSignals = []string{"premium", "luxe", "luxury", "bio", "organic", "artisanal", "handmade", "fait main", "cuir"}

// QualityConfig holds the content limits used by the base quality subscorer
type QualityConfig struct {
	MinTitleLength       int
	MaxTitleLength       int
	MinDescriptionLength int
}

// DefaultSubscorers builds the base quality, margin and recruitment subscorers
func DefaultSubscorers(weights map[string]int, quality QualityConfig) []Subscorer {
	return []Subscorer{
		NewBaseQualityScorer(weights[SubscoreBaseQuality], quality),
		NewMarginScorer(weights[SubscoreMargin]),
		NewRecruitmentScorer(weights[SubscoreRecruitment]),
	}
}

// BaseQualityScorer rates the completeness and quality of product content
type BaseQualityScorer struct {
	weight  int
	quality QualityConfig
}

// NewBaseQualityScorer creates the base quality subscorer
func NewBaseQualityScorer(weight int, quality QualityConfig) *BaseQualityScorer {
	return &BaseQualityScorer{weight: weight, quality: quality}
}

func (s *BaseQualityScorer) Name() string { return SubscoreBaseQuality }
func (s *BaseQualityScorer) Weight() int  { return s.weight }

// Score rates title, description, images, brand and identifiers
func (s *BaseQualityScorer) Score(p domain.Product) (float64, []string) {
	var points float64
	var recs []string

	title := strings.TrimSpace(p.Title)
	switch n := runeLen(title); {
	case title == "":
		recs = append(recs, "add a product title")
	case n >= optimalTitleLength && n <= s.quality.MaxTitleLength:
		points += titleOptimalPoints
	case n >= s.quality.MinTitleLength && n <= s.quality.MaxTitleLength:
		points += titleAcceptablePoints
		recs = append(recs, fmt.Sprintf("lengthen title to at least %d characters", optimalTitleLength))
	default:
		points += titleOutOfRangePoints
		recs = append(recs, fmt.Sprintf("adjust title length to between %d and %d characters",
			s.quality.MinTitleLength, s.quality.MaxTitleLength))
	}
	if title != "" {
		if isGenericTitle(title) {
			recs = append(recs, "title too generic: optimize title with keywords (brand, product type, key attribute)")
		} else {
			points += titleSpecificPoints
		}
	}

	description := PlainText(p.Description)
	switch n := runeLen(description); {
	case description == "":
		recs = append(recs, "add a product description")
	case n >= richDescriptionLength:
		points += descriptionRichPoints
	case n >= s.quality.MinDescriptionLength:
		points += descriptionValidPoints
	default:
		points += descriptionShortPoints
		recs = append(recs, fmt.Sprintf("expand description to at least %d characters", s.quality.MinDescriptionLength))
	}

	switch n := len(p.Images); {
	case n == 0:
		recs = append(recs, "add at least one product image")
	case n >= recommendedImages:
		points += imagesFullPoints
	case n == 2:
		points += imagesTwoPoints
		recs = append(recs, fmt.Sprintf("add additional images (at least %d)", recommendedImages))
	default:
		points += imagesOnePoint
		recs = append(recs, fmt.Sprintf("add additional images (at least %d)", recommendedImages))
	}

	if strings.TrimSpace(p.Brand) != "" {
		points += brandPoints
	} else {
		recs = append(recs, "add the product brand")
	}

	if strings.TrimSpace(p.Barcode) != "" || strings.TrimSpace(p.SKU) != "" {
		points += identifierPoints
	} else {
		recs = append(recs, "add a GTIN/barcode to improve product matching")
	}

	return points / baseQualityScale, recs
}

// MarginScorer rates the profit potential of advertising a product
type MarginScorer struct {
	weight int
}

// NewMarginScorer creates the margin subscorer
func NewMarginScorer(weight int) *MarginScorer {
	return &MarginScorer{weight: weight}
}

func (s *MarginScorer) Name() string { return SubscoreMargin }
func (s *MarginScorer) Weight() int  { return s.weight }

// Score uses ROAS and CPA when the ads platform reported them, otherwise price positioning
func (s *MarginScorer) Score(p domain.Product) (float64, []string) {
	var ratio float64
	var recs []string

	m := p.Metrics
	price := p.Price.Float()
	hasROAS := m != nil && m.ROAS > 0
	hasCPA := m != nil && m.CPA > 0 && price > 0

	if hasROAS || hasCPA {
		var roasRatio, cpaRatio float64
		if hasROAS {
			switch {
			case m.ROAS >= 4:
				roasRatio = 1.0
			case m.ROAS >= 2:
				roasRatio = 0.75
			case m.ROAS >= 1:
				roasRatio = 0.45
			default:
				roasRatio = 0.2
				recs = append(recs, "ROAS below 1: reduce bids or exclude product from campaigns")
			}
		}
		if hasCPA {
			cpaRatio = (price - m.CPA) / price
			if cpaRatio <= 0 {
				cpaRatio = 0
				recs = append(recs, "CPA exceeds price: product is unprofitable at current bids")
			}
		}
		switch {
		case hasROAS && hasCPA:
			ratio = 0.6*roasRatio + 0.4*cpaRatio
		case hasROAS:
			ratio = roasRatio
		default:
			ratio = cpaRatio
		}
	} else {
		switch {
		case price <= 0:
			ratio = 0.2
			recs = append(recs, "set a valid price")
		case price < 20:
			ratio = 0.4
		case price < 50:
			ratio = 0.6
		case price < 100:
			ratio = 0.75
		default:
			ratio = 0.85
		}
		if hasPremiumSignal(p) {
			ratio += 0.15
		}
		if m != nil && m.Cost > 0 && m.Conversions == 0 {
			recs = append(recs, "ad spend without conversions: review bids and targeting")
		}
	}

	switch {
	case p.Availability == domain.AvailabilityOutOfStock || (p.Stock != nil && *p.Stock <= 0):
		ratio *= 0.5
		recs = append(recs, "restock product: out-of-stock items cannot serve ads")
	case p.Stock != nil && *p.Stock < 5:
		recs = append(recs, "low stock: consider reducing ad spend")
	}

	return ratio, recs
}

func hasPremiumSignal(p domain.Product) bool {
	text := strings.ToLower(p.Title + " " + p.TagsText())
	for _, signal := range premiumSignals {
		if strings.Contains(text, signal) {
			return true
		}
	}
	return false
}

// RecruitmentScorer rates how well a product attracts shoppers
type RecruitmentScorer struct {
	weight int
}

// NewRecruitmentScorer creates the recruitment subscorer
func NewRecruitmentScorer(weight int) *RecruitmentScorer {
	return &RecruitmentScorer{weight: weight}
}

func (s *RecruitmentScorer) Name() string { return SubscoreRecruitment }
func (s *RecruitmentScorer) Weight() int  { return s.weight }

// Score uses click-through rate when available, otherwise discoverability signals
func (s *RecruitmentScorer) Score(p domain.Product) (float64, []string) {
	m := p.Metrics
	if m != nil && (m.Impressions > 0 || m.CTR > 0) {
		return s.scoreMetrics(m)
	}
	return s.scoreDiscoverability(p)
}

func (s *RecruitmentScorer) scoreMetrics(m *domain.PerformanceMetrics) (float64, []string) {
	var ratio float64
	var recs []string

	switch ctr := m.ClickThroughRate(); {
	case ctr >= 3:
		ratio = 1.0
	case ctr >= 2:
		ratio = 0.85
	case ctr >= 1:
		ratio = 0.6
	case ctr >= 0.5:
		ratio = 0.4
	default:
		ratio = 0.2
		recs = append(recs, "low CTR: improve title and main image")
	}

	if m.Clicks >= 100 && m.Conversions == 0 {
		ratio *= 0.7
		recs = append(recs, "clicks without conversions: review landing page and price")
	}
	if m.Impressions > 0 && m.Impressions < 100 {
		recs = append(recs, "low impressions: broaden targeting or raise bids")
	}

	return ratio, recs
}

func (s *RecruitmentScorer) scoreDiscoverability(p domain.Product) (float64, []string) {
	var ratio float64
	var recs []string

	switch n := len(p.Tags); {
	case n >= 3:
		ratio += 0.3
	case n > 0:
		ratio += 0.2
		recs = append(recs, "add more tags to improve discoverability")
	default:
		recs = append(recs, "add tags to improve discoverability")
	}

	if strings.TrimSpace(p.ProductType) != "" {
		ratio += 0.25
	} else {
		recs = append(recs, "set a product type")
	}

	if p.Handle != "" || p.Link != "" {
		ratio += 0.15
	}

	brand := strings.ToLower(strings.TrimSpace(p.Brand))
	if brand != "" && strings.Contains(strings.ToLower(p.Title), brand) {
		ratio += 0.15
	} else if brand != "" {
		recs = append(recs, "include the brand in the title")
	}

	if len(titleWords(p.Title)) >= 5 {
		ratio += 0.15
	}

	return ratio, recs
}
