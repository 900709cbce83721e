package usecase

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/feedpilot/backend/internal/domain"
)

func TestParseShopifyRecord(t *testing.T) {
	parser := NewProductParser("eur")

	raw := json.RawMessage(`{
		"id": 10318257783094,
		"title": "T-shirt Premium en coton bio",
		"body_html": "<p>Un t-shirt <strong>doux</strong></p>",
		"vendor": "Ma Marque Premium",
		"product_type": "vêtements",
		"handle": "t-shirt-premium",
		"tags": "premium, bio, ",
		"variants": [
			{"price": "29.99", "sku": "TS-001", "barcode": "3760000000017", "inventory_quantity": 12},
			{"price": "31.99", "sku": "TS-002"}
		],
		"images": [{"src": "https://cdn.shopify.com/a.jpg"}, {"src": "https://cdn.shopify.com/b.jpg"}]
	}`)

	p, err := parser.Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if p.ID != "10318257783094" {
		t.Errorf("ID = %q, want 10318257783094", p.ID)
	}
	if p.Brand != "Ma Marque Premium" {
		t.Errorf("Brand = %q", p.Brand)
	}
	if p.Description != "<p>Un t-shirt <strong>doux</strong></p>" {
		t.Errorf("Description = %q", p.Description)
	}
	if !reflect.DeepEqual(p.Tags, []string{"premium", "bio"}) {
		t.Errorf("Tags = %v, want [premium bio]", p.Tags)
	}
	if !p.Price.Valid || p.Price.Amount.String() != "29.99" || p.Price.Currency != "EUR" {
		t.Errorf("Price = %+v, want 29.99 EUR", p.Price)
	}
	if p.Stock == nil || *p.Stock != 12 {
		t.Errorf("Stock = %v, want 12", p.Stock)
	}
	if p.Availability != domain.AvailabilityInStock {
		t.Errorf("Availability = %q, want in stock", p.Availability)
	}
	if p.SKU != "TS-001" || p.Barcode != "3760000000017" {
		t.Errorf("SKU = %q, Barcode = %q", p.SKU, p.Barcode)
	}
	if len(p.Images) != 2 {
		t.Errorf("Images = %v, want 2", p.Images)
	}
}

func TestParseMerchantRecord(t *testing.T) {
	parser := NewProductParser("EUR")

	raw := json.RawMessage(`{
		"offerId": "sku-42",
		"title": "Sneakers cuir blanc",
		"brand": "Atelier",
		"category": "chaussures",
		"price": {"value": "89.00", "currency": "USD"},
		"availability": "IN_STOCK",
		"gtin": "0123456789012",
		"image_link": "https://example.com/1.jpg",
		"additional_image_links": ["https://example.com/2.jpg", "https://example.com/1.jpg"],
		"tags": ["cuir", " blanc "],
		"metrics": {"impressions": 1200, "clicks": "36", "conversions": 3, "cpa": 12.5, "roas": 3.2}
	}`)

	p, err := parser.Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if p.ID != "sku-42" || p.ProductType != "chaussures" || p.Barcode != "0123456789012" {
		t.Errorf("unexpected identity fields: %+v", p)
	}
	if p.Price.Currency != "USD" || p.Price.Amount.String() != "89" {
		t.Errorf("Price = %+v, want 89 USD", p.Price)
	}
	if p.Availability != domain.AvailabilityInStock {
		t.Errorf("Availability = %q, want in stock", p.Availability)
	}
	if !reflect.DeepEqual(p.Images, []string{"https://example.com/1.jpg", "https://example.com/2.jpg"}) {
		t.Errorf("Images = %v", p.Images)
	}
	if !reflect.DeepEqual(p.Tags, []string{"cuir", "blanc"}) {
		t.Errorf("Tags = %v", p.Tags)
	}
	want := &domain.PerformanceMetrics{Impressions: 1200, Clicks: 36, Conversions: 3, CPA: 12.5, ROAS: 3.2}
	if !reflect.DeepEqual(p.Metrics, want) {
		t.Errorf("Metrics = %+v, want %+v", p.Metrics, want)
	}
}

func TestParseEdgeCases(t *testing.T) {
	parser := NewProductParser("EUR")

	t.Run("malformed records", func(t *testing.T) {
		for _, raw := range []string{`[1,2]`, `"product"`, `null`, `42`, `{"id": `, ``} {
			_, err := parser.Parse(json.RawMessage(raw))
			if !errors.Is(err, domain.ErrMalformedProduct) {
				t.Errorf("Parse(%q) error = %v, want ErrMalformedProduct", raw, err)
			}
		}
	})

	t.Run("missing identifier", func(t *testing.T) {
		raw := json.RawMessage(`{"title": "No id"}`)
		if _, err := parser.Parse(raw); !errors.Is(err, domain.ErrMissingIdentifier) {
			t.Errorf("Parse() error = %v, want ErrMissingIdentifier", err)
		}
		p, err := parser.Decode(raw)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if p.Title != "No id" {
			t.Errorf("Title = %q", p.Title)
		}
	})

	t.Run("invalid price keeps raw text", func(t *testing.T) {
		p, err := parser.Parse(json.RawMessage(`{"id": "1", "price": "invalid"}`))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if p.Price.Valid || p.Price.Raw != "invalid" || !p.Price.Present() {
			t.Errorf("Price = %+v, want present but invalid", p.Price)
		}
	})

	t.Run("price with currency suffix", func(t *testing.T) {
		p, _ := parser.Parse(json.RawMessage(`{"id": "1", "price": "12.50 GBP"}`))
		if p.Price.Currency != "GBP" || !p.Price.Valid {
			t.Errorf("Price = %+v, want 12.50 GBP", p.Price)
		}
	})

	t.Run("numeric price", func(t *testing.T) {
		p, _ := parser.Parse(json.RawMessage(`{"id": "1", "price": 19.9}`))
		if p.Price.Raw != "19.9" || p.Price.Currency != "EUR" {
			t.Errorf("Price = %+v, want 19.9 EUR", p.Price)
		}
	})

	t.Run("empty stock without availability is out of stock", func(t *testing.T) {
		p, _ := parser.Parse(json.RawMessage(`{"id": "1", "inventory_quantity": 0}`))
		if p.Availability != domain.AvailabilityOutOfStock {
			t.Errorf("Availability = %q, want out of stock", p.Availability)
		}
	})

	t.Run("explicit availability wins over stock", func(t *testing.T) {
		p, _ := parser.Parse(json.RawMessage(`{"id": "1", "stock": 0, "availability": "pre-order"}`))
		if p.Availability != domain.AvailabilityPreorder {
			t.Errorf("Availability = %q, want preorder", p.Availability)
		}
	})

	t.Run("non-finite metrics count as missing", func(t *testing.T) {
		raw := json.RawMessage(`{"id": "1", "metrics": {"impressions": 500, "roas": 1e400, "ctr": "NaN", "cpa": "-Inf", "cost": "12.5"}}`)
		p, err := parser.Parse(raw)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		want := &domain.PerformanceMetrics{Impressions: 500, Cost: 12.5}
		if !reflect.DeepEqual(p.Metrics, want) {
			t.Errorf("Metrics = %+v, want %+v", p.Metrics, want)
		}
		if _, err := json.Marshal(p); err != nil {
			t.Errorf("json.Marshal() error = %v, want a serializable product", err)
		}
	})

	t.Run("stock outside the integer range is ignored", func(t *testing.T) {
		for _, raw := range []string{
			`{"id": "1", "stock": 1e30}`,
			`{"id": "1", "stock": -1e30}`,
			`{"id": "1", "stock": 9.3e18}`,
		} {
			p, err := parser.Parse(json.RawMessage(raw))
			if err != nil {
				t.Fatalf("Parse(%s) error = %v", raw, err)
			}
			if p.Stock != nil {
				t.Errorf("Parse(%s) Stock = %d, want nil", raw, *p.Stock)
			}
			if p.Availability == domain.AvailabilityOutOfStock {
				t.Errorf("Parse(%s) Availability = %q, want stock ignored", raw, p.Availability)
			}
		}
	})

	t.Run("fractional stock is truncated", func(t *testing.T) {
		p, _ := parser.Parse(json.RawMessage(`{"id": "1", "stock": 12.9}`))
		if p.Stock == nil || *p.Stock != 12 {
			t.Errorf("Stock = %v, want 12", p.Stock)
		}
	})

	t.Run("unknown availability is kept for reporting", func(t *testing.T) {
		p, _ := parser.Parse(json.RawMessage(`{"id": "1", "availability": "UNKNOWN_STATUS"}`))
		if p.Availability != "unknown status" || p.Availability.IsKnown() {
			t.Errorf("Availability = %q", p.Availability)
		}
	})
}

func TestParseBatch(t *testing.T) {
	parser := NewProductParser("EUR")

	raws := []json.RawMessage{
		json.RawMessage(`{"id": "a"}`),
		json.RawMessage(`"not an object"`),
		json.RawMessage(`{"title": "no id"}`),
		json.RawMessage(`{"id": 7}`),
	}

	products, skipped := parser.ParseBatch(raws)
	if len(products) != 2 || products[0].ID != "a" || products[1].ID != "7" {
		t.Fatalf("products = %+v, want a and 7", products)
	}
	if len(skipped) != 2 || skipped[0].Index != 1 || skipped[1].Index != 2 {
		t.Fatalf("skipped = %+v, want indices 1 and 2", skipped)
	}
	if skipped[1].Reason != domain.ErrMissingIdentifier.Error() {
		t.Errorf("Reason = %q", skipped[1].Reason)
	}
}
