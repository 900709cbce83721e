package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// CustomLabelSlots is the number of custom label slots Merchant Center offers
const CustomLabelSlots = 5

// CustomLabels holds the custom_label_0..custom_label_4 values of a product
type CustomLabels [CustomLabelSlots]string

// MarshalJSON renders the labels keyed by their Merchant Center attribute name
func (l CustomLabels) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, CustomLabelSlots)
	for i, v := range l {
		m[CustomLabelKey(i)] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads labels keyed by their Merchant Center attribute name
func (l *CustomLabels) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for i := range l {
		l[i] = m[CustomLabelKey(i)]
	}
	return nil
}

// CustomLabelKey returns the attribute name of the given slot
func CustomLabelKey(slot int) string {
	return fmt.Sprintf("custom_label_%d", slot)
}

// Performance tiers
const (
	TierHigh   = "high_performance"
	TierMedium = "medium_performance"
	TierLow    = "low_performance"
)

// Optimization statuses stored in custom_label_1
const (
	StatusOptimized         = "optimized"
	StatusNeedsOptimization = "needs_optimization"
	StatusInvalid           = "invalid"
)

// EnrichedProduct is a product with everything the optimizer derived for it
type EnrichedProduct struct {
	Product        Product            `json:"product"`
	Category       CategoryAssignment `json:"category"`
	Score          ProductScore       `json:"score"`
	Validation     ValidationResult   `json:"validation"`
	Valid          bool               `json:"valid"`
	Tier           string             `json:"tier"`
	CustomLabels   CustomLabels       `json:"customLabels"`
	SuggestedTitle string             `json:"suggestedTitle,omitempty"`
}

// SkippedProduct records an input record that could not be processed
type SkippedProduct struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// BatchStats summarizes one optimization batch
type BatchStats struct {
	TotalProducts     int    `json:"totalProducts"`
	AverageScore      string `json:"averageScore"`
	HighPerformance   int    `json:"highPerformance"`
	MediumPerformance int    `json:"mediumPerformance"`
	LowPerformance    int    `json:"lowPerformance"`
	OptimizationRate  string `json:"optimizationRate"`
	InvalidProducts   int    `json:"invalidProducts"`
	SkippedProducts   int    `json:"skippedProducts"`
}

// BatchResult is the output of one batch optimization
type BatchResult struct {
	OptimizedProducts []EnrichedProduct `json:"optimizedProducts"`
	Stats             BatchStats        `json:"stats"`
	Skipped           []SkippedProduct  `json:"skipped"`
}

// Run sources
const (
	SourceRequest  = "request"
	SourceShopify  = "shopify"
	SourceMerchant = "merchant"
)

// PublishResult reports what the feed publisher did with an optimized batch
type PublishResult struct {
	Submitted int      `json:"submitted"`
	Updated   int      `json:"updated"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// OptimizationRun is a stored batch optimization together with its metadata
type OptimizationRun struct {
	ID        string         `json:"id"`
	Source    string         `json:"source"`
	CreatedAt time.Time      `json:"createdAt"`
	Result    BatchResult    `json:"result"`
	Publish   *PublishResult `json:"publish,omitempty"`
}
