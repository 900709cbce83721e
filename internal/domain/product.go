package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Availability is the stock status of a product as understood by Merchant Center
type Availability string

const (
	AvailabilityInStock    Availability = "in stock"
	AvailabilityOutOfStock Availability = "out of stock"
	AvailabilityPreorder   Availability = "preorder"
)

// Availabilities lists the accepted availability values
var Availabilities = []Availability{AvailabilityInStock, AvailabilityOutOfStock, AvailabilityPreorder}

// IsKnown reports whether the value belongs to the closed availability enum
func (a Availability) IsKnown() bool {
	for _, known := range Availabilities {
		if a == known {
			return true
		}
	}
	return false
}

// NormalizeAvailability lowercases the value and turns "_" and "-" into spaces,
// so "IN_STOCK" and "out-of-stock" are accepted. "pre-order" is read as preorder.
// Unknown values are returned normalized but otherwise untouched so they can be reported.
func NormalizeAvailability(s string) Availability {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	if s == "pre order" {
		return AvailabilityPreorder
	}
	return Availability(s)
}

// Price is a currency-tagged decimal price together with the raw text it was parsed from
type Price struct {
	Raw      string          `json:"raw"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
	Valid    bool            `json:"valid"`
}

// NewPrice parses raw price text. Valid is false when the text is not a finite decimal.
func NewPrice(raw, currency string) Price {
	p := Price{Raw: strings.TrimSpace(raw), Currency: strings.ToUpper(strings.TrimSpace(currency))}
	if p.Raw == "" {
		return p
	}
	amount, err := decimal.NewFromString(p.Raw)
	if err != nil {
		return p
	}
	p.Amount = amount
	p.Valid = true
	return p
}

// Present reports whether any price text was supplied
func (p Price) Present() bool {
	return p.Raw != ""
}

// Float returns the amount as float64, or 0 when the price is not valid
func (p Price) Float() float64 {
	if !p.Valid {
		return 0
	}
	f, _ := p.Amount.Float64()
	return f
}

// PerformanceMetrics are the advertising metrics reported by the ads platform for a product
type PerformanceMetrics struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	Cost        float64 `json:"cost"`
	CTR         float64 `json:"ctr"`  // percent
	CPA         float64 `json:"cpa"`  // cost per acquisition
	ROAS        float64 `json:"roas"` // return on ad spend
}

// ClickThroughRate returns the reported CTR, or derives it from clicks and impressions
func (m *PerformanceMetrics) ClickThroughRate() float64 {
	if m == nil {
		return 0
	}
	if m.CTR > 0 {
		return m.CTR
	}
	if m.Impressions > 0 {
		return float64(m.Clicks) / float64(m.Impressions) * 100
	}
	return 0
}

// Product is the validated shape of a merchant feed record
type Product struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description,omitempty"`
	Brand        string              `json:"brand,omitempty"`
	ProductType  string              `json:"productType,omitempty"`
	Tags         []string            `json:"tags,omitempty"`
	Price        Price               `json:"price"`
	Stock        *int                `json:"stock,omitempty"`
	Availability Availability        `json:"availability,omitempty"`
	Barcode      string              `json:"barcode,omitempty"`
	SKU          string              `json:"sku,omitempty"`
	Images       []string            `json:"images,omitempty"`
	Handle       string              `json:"handle,omitempty"`
	Link         string              `json:"link,omitempty"`
	Metrics      *PerformanceMetrics `json:"metrics,omitempty"`
}

// TagsText joins tags the way merchants usually type them
func (p Product) TagsText() string {
	return strings.Join(p.Tags, ", ")
}

// CategoryAssignment is the resolved Merchant Center taxonomy code for a product
type CategoryAssignment struct {
	Code   string `json:"code"`
	Source string `json:"source"` // "phrase", "keyword" or "default"
	Match  string `json:"match,omitempty"`
}

// Violation is a single failed validation rule
type Violation struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationResult holds every violation found for one product
type ValidationResult struct {
	IsValid    bool        `json:"isValid"`
	Errors     []string    `json:"errors"`
	Violations []Violation `json:"violations"`
}

// ProductScore is the composite optimization score of a product
type ProductScore struct {
	Overall         int            `json:"overall"` // 0-100
	Subscores       map[string]int `json:"subscores"`
	Recommendations []string       `json:"recommendations"`
}
