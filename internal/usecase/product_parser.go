package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/feedpilot/backend/internal/domain"
)

// ProductParser converts loosely shaped feed records into domain products.
// It accepts both Shopify-style and Merchant Center-style keys.
type ProductParser struct {
	defaultCurrency string
}

// NewProductParser creates a parser that tags prices with defaultCurrency when a record has none
func NewProductParser(defaultCurrency string) *ProductParser {
	return &ProductParser{defaultCurrency: strings.ToUpper(strings.TrimSpace(defaultCurrency))}
}

// ParseBatch parses every record, skipping those that cannot become a product
func (p *ProductParser) ParseBatch(raws []json.RawMessage) ([]domain.Product, []domain.SkippedProduct) {
	products := make([]domain.Product, 0, len(raws))
	var skipped []domain.SkippedProduct

	for i, raw := range raws {
		product, err := p.Parse(raw)
		if err != nil {
			skipped = append(skipped, domain.SkippedProduct{Index: i, Reason: err.Error()})
			continue
		}
		products = append(products, product)
	}

	return products, skipped
}

// Parse converts one JSON record into a product that carries an identifier
func (p *ProductParser) Parse(raw json.RawMessage) (domain.Product, error) {
	product, err := p.Decode(raw)
	if err != nil {
		return domain.Product{}, err
	}
	if product.ID == "" {
		return domain.Product{}, domain.ErrMissingIdentifier
	}
	return product, nil
}

// Decode converts one JSON record into a product without requiring an identifier.
// It only fails when the record is not a JSON object.
func (p *ProductParser) Decode(raw json.RawMessage) (domain.Product, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var record map[string]any
	if err := decoder.Decode(&record); err != nil || record == nil {
		return domain.Product{}, fmt.Errorf("%w: record is not a JSON object", domain.ErrMalformedProduct)
	}

	product := domain.Product{
		ID:          stringField(record, "id", "offerId", "offer_id"),
		Title:       stringField(record, "title"),
		Description: stringField(record, "description", "body_html", "bodyHtml"),
		Brand:       stringField(record, "brand", "vendor"),
		ProductType: stringField(record, "product_type", "productType", "category"),
		Tags:        tagsField(record["tags"]),
		Barcode:     stringField(record, "barcode", "gtin"),
		SKU:         stringField(record, "sku"),
		Handle:      stringField(record, "handle"),
		Link:        stringField(record, "link", "url"),
		Images:      imagesField(record),
	}

	currency := stringField(record, "currency", "currency_code")
	if currency == "" {
		currency = p.defaultCurrency
	}
	priceRaw, priceCurrency := priceField(record["price"])
	if priceCurrency != "" {
		currency = priceCurrency
	}
	product.Stock = intField(record, "stock", "inventory_quantity", "inventoryQuantity")

	// Shopify carries price, stock and identifiers on the first variant
	if variant := firstVariant(record); variant != nil {
		if priceRaw == "" {
			priceRaw, _ = priceField(variant["price"])
		}
		if product.Stock == nil {
			product.Stock = intField(variant, "inventory_quantity")
		}
		if product.Barcode == "" {
			product.Barcode = stringField(variant, "barcode")
		}
		if product.SKU == "" {
			product.SKU = stringField(variant, "sku")
		}
	}
	if priceRaw != "" {
		product.Price = domain.NewPrice(priceRaw, currency)
	}

	if availability := stringField(record, "availability"); availability != "" {
		product.Availability = domain.NormalizeAvailability(availability)
	} else if product.Stock != nil {
		product.Availability = domain.AvailabilityInStock
		if *product.Stock <= 0 {
			product.Availability = domain.AvailabilityOutOfStock
		}
	}

	if metrics, ok := record["metrics"].(map[string]any); ok {
		product.Metrics = metricsField(metrics)
	}

	return product, nil
}

// stringField returns the first non-empty value among keys, rendering numbers as text
func stringField(record map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := record[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return ""
}

// intField returns the first integral value among keys. Floats are truncated;
// values outside the int64 range count as missing.
func intField(record map[string]any, keys ...string) *int {
	for _, key := range keys {
		var n int64
		var err error
		switch v := record[key].(type) {
		case json.Number:
			n, err = v.Int64()
			if err != nil {
				n, err = truncateFloat(v.String())
			}
		case string:
			n, err = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		default:
			continue
		}
		if err == nil {
			i := int(n)
			return &i
		}
	}
	return nil
}

func truncateFloat(s string) (int64, error) {
	f, err := finiteFloat(s)
	if err != nil {
		return 0, err
	}
	// float64(math.MaxInt64) rounds up to 2^63, which is already out of range
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%s overflows int64", s)
	}
	return int64(f), nil
}

// floatField returns the value under key, or 0 when it is absent, unparsable or not finite
func floatField(record map[string]any, key string) float64 {
	var f float64
	var err error
	switch v := record[key].(type) {
	case json.Number:
		f, err = finiteFloat(v.String())
	case string:
		f, err = finiteFloat(strings.TrimSpace(v))
	default:
		return 0
	}
	if err != nil {
		return 0
	}
	return f
}

// finiteFloat parses s and rejects NaN, infinities and out of range values
func finiteFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s is not a finite number", s)
	}
	return f, nil
}

func int64Field(record map[string]any, key string) int64 {
	if n := intField(record, key); n != nil {
		return int64(*n)
	}
	return 0
}

// tagsField accepts "a, b, c" or ["a", "b", "c"]
func tagsField(value any) []string {
	var parts []string
	switch v := value.(type) {
	case string:
		parts = strings.Split(v, ",")
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
	}

	var tags []string
	for _, tag := range parts {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// priceField accepts "29.99", 29.99, "29.99 EUR" or {"value": "29.99", "currency": "EUR"}
func priceField(value any) (raw, currency string) {
	switch v := value.(type) {
	case string:
		fields := strings.Fields(v)
		if len(fields) == 2 && len(fields[1]) == 3 {
			return fields[0], fields[1]
		}
		return strings.TrimSpace(v), ""
	case json.Number:
		return v.String(), ""
	case map[string]any:
		raw = stringField(v, "value", "amount")
		currency = stringField(v, "currency", "currencyCode", "currency_code")
		return raw, currency
	}
	return "", ""
}

func imagesField(record map[string]any) []string {
	var images []string
	add := func(value any) {
		switch v := value.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				images = append(images, s)
			}
		case map[string]any:
			if src := stringField(v, "src", "url"); src != "" {
				images = append(images, src)
			}
		}
	}

	add(record["image_link"])
	add(record["imageLink"])
	add(record["image"])
	if list, ok := record["images"].([]any); ok {
		for _, item := range list {
			add(item)
		}
	}
	if list, ok := record["additional_image_links"].([]any); ok {
		for _, item := range list {
			add(item)
		}
	}

	return dedupe(images)
}

func firstVariant(record map[string]any) map[string]any {
	variants, ok := record["variants"].([]any)
	if !ok || len(variants) == 0 {
		return nil
	}
	variant, _ := variants[0].(map[string]any)
	return variant
}

func metricsField(record map[string]any) *domain.PerformanceMetrics {
	return &domain.PerformanceMetrics{
		Impressions: int64Field(record, "impressions"),
		Clicks:      int64Field(record, "clicks"),
		Conversions: int64Field(record, "conversions"),
		Cost:        floatField(record, "cost"),
		CTR:         floatField(record, "ctr"),
		CPA:         floatField(record, "cpa"),
		ROAS:        floatField(record, "roas"),
	}
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
