package usecase

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/feedpilot/backend/internal/domain"
)

// Validation rule names
const (
	RuleRequired          = "required"
	RuleTitleLength       = "title_length"
	RuleDescriptionLength = "description_length"
	RulePrice             = "price"
	RuleAvailability      = "availability"
)

// ValidatorConfig holds the field limits applied by the product validator
type ValidatorConfig struct {
	MinTitleLength       int
	MaxTitleLength       int
	MinDescriptionLength int
	MaxDescriptionLength int
	PriceMin             float64
	PriceMax             float64
}

// ProductValidator checks products against Merchant Center feed rules
type ProductValidator struct {
	minTitle       int
	maxTitle       int
	minDescription int
	maxDescription int
	priceMin       decimal.Decimal
	priceMax       decimal.Decimal
}

// NewProductValidator creates a validator, failing on incoherent limits
func NewProductValidator(config ValidatorConfig) (*ProductValidator, error) {
	if config.MinTitleLength < 0 || config.MaxTitleLength < config.MinTitleLength {
		return nil, fmt.Errorf("%w: title length range %d-%d", domain.ErrInvalidConfig, config.MinTitleLength, config.MaxTitleLength)
	}
	if config.MinDescriptionLength < 0 || config.MaxDescriptionLength < config.MinDescriptionLength {
		return nil, fmt.Errorf("%w: description length range %d-%d", domain.ErrInvalidConfig, config.MinDescriptionLength, config.MaxDescriptionLength)
	}
	if config.PriceMin < 0 || config.PriceMax < config.PriceMin {
		return nil, fmt.Errorf("%w: price range %.2f-%.2f", domain.ErrInvalidConfig, config.PriceMin, config.PriceMax)
	}

	return &ProductValidator{
		minTitle:       config.MinTitleLength,
		maxTitle:       config.MaxTitleLength,
		minDescription: config.MinDescriptionLength,
		maxDescription: config.MaxDescriptionLength,
		priceMin:       decimal.NewFromFloat(config.PriceMin),
		priceMax:       decimal.NewFromFloat(config.PriceMax),
	}, nil
}

// Validate applies every rule and collects all violations. It never fails.
func (v *ProductValidator) Validate(p domain.Product) domain.ValidationResult {
	var violations []domain.Violation
	add := func(rule, format string, args ...any) {
		violations = append(violations, domain.Violation{Rule: rule, Message: fmt.Sprintf(format, args...)})
	}

	// Required fields
	title := strings.TrimSpace(p.Title)
	if strings.TrimSpace(p.ID) == "" {
		add(RuleRequired, "missing required field: id")
	}
	if title == "" {
		add(RuleRequired, "missing required field: title")
	}
	if !p.Price.Present() {
		add(RuleRequired, "missing required field: price")
	}
	if strings.TrimSpace(string(p.Availability)) == "" {
		add(RuleRequired, "missing required field: availability")
	}
	if strings.TrimSpace(p.Brand) == "" {
		add(RuleRequired, "missing required field: brand")
	}

	// Title length
	if title != "" {
		n := runeLen(title)
		if n < v.minTitle {
			add(RuleTitleLength, "title too short: %d characters (minimum %d)", n, v.minTitle)
		}
		if n > v.maxTitle {
			add(RuleTitleLength, "title too long: %d characters (maximum %d)", n, v.maxTitle)
		}
	}

	// Description length, measured on visible text
	if description := PlainText(p.Description); description != "" {
		n := runeLen(description)
		if n < v.minDescription {
			add(RuleDescriptionLength, "description too short: %d characters (minimum %d)", n, v.minDescription)
		}
		if n > v.maxDescription {
			add(RuleDescriptionLength, "description too long: %d characters (maximum %d)", n, v.maxDescription)
		}
	}

	// Price
	if p.Price.Present() {
		if !p.Price.Valid {
			add(RulePrice, "invalid price: %q is not a number", p.Price.Raw)
		} else if p.Price.Amount.LessThan(v.priceMin) || p.Price.Amount.GreaterThan(v.priceMax) {
			add(RulePrice, "price out of range: %s (allowed %s-%s)",
				p.Price.Amount.String(), v.priceMin.StringFixed(2), v.priceMax.StringFixed(2))
		}
	}

	// Availability
	if p.Availability != "" && !p.Availability.IsKnown() {
		add(RuleAvailability, "invalid availability: %q (expected in stock, out of stock or preorder)", string(p.Availability))
	}

	errs := make([]string, len(violations))
	for i, violation := range violations {
		errs[i] = violation.Message
	}

	return domain.ValidationResult{
		IsValid:    len(violations) == 0,
		Errors:     errs,
		Violations: append([]domain.Violation{}, violations...),
	}
}
