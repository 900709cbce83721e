package shopify

import (
	"fmt"
	"strings"

	"github.com/feedpilot/backend/internal/domain"
)

// ProductsResponse is the body of GET /admin/api/{version}/products.json
type ProductsResponse struct {
	Products []Product `json:"products"`
}

// Product is a Shopify product resource
type Product struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	BodyHTML    string    `json:"body_html"`
	Vendor      string    `json:"vendor"`
	ProductType string    `json:"product_type"`
	Handle      string    `json:"handle"`
	Tags        string    `json:"tags"`
	Status      string    `json:"status"`
	Variants    []Variant `json:"variants"`
	Images      []Image   `json:"images"`
}

// Variant is a purchasable variant of a Shopify product
type Variant struct {
	ID                int64  `json:"id"`
	Price             string `json:"price"`
	SKU               string `json:"sku"`
	Barcode           string `json:"barcode"`
	InventoryQuantity int    `json:"inventory_quantity"`
	InventoryPolicy   string `json:"inventory_policy"`
}

// Image is a product image
type Image struct {
	Src string `json:"src"`
}

// MapToProduct converts a Shopify product to our domain Product.
// Price and identifiers come from the first variant, stock is summed over all variants.
func MapToProduct(p *Product, storeURL, currency string) domain.Product {
	product := domain.Product{
		ID:          fmt.Sprintf("%d", p.ID),
		Title:       strings.TrimSpace(p.Title),
		Description: p.BodyHTML,
		Brand:       strings.TrimSpace(p.Vendor),
		ProductType: strings.TrimSpace(p.ProductType),
		Tags:        splitTags(p.Tags),
		Handle:      p.Handle,
	}
	if p.Handle != "" && storeURL != "" {
		product.Link = storeURL + "/products/" + p.Handle
	}

	for _, img := range p.Images {
		if img.Src != "" {
			product.Images = append(product.Images, img.Src)
		}
	}

	if len(p.Variants) == 0 {
		return product
	}

	first := p.Variants[0]
	product.Price = domain.NewPrice(first.Price, currency)
	product.SKU = first.SKU
	product.Barcode = first.Barcode

	stock := 0
	backorder := false
	for _, v := range p.Variants {
		if v.InventoryQuantity > 0 {
			stock += v.InventoryQuantity
		}
		if v.InventoryPolicy == "continue" {
			backorder = true
		}
	}
	product.Stock = &stock

	switch {
	case stock > 0:
		product.Availability = domain.AvailabilityInStock
	case backorder:
		product.Availability = domain.AvailabilityPreorder
	default:
		product.Availability = domain.AvailabilityOutOfStock
	}

	return product
}

func splitTags(tags string) []string {
	var out []string
	for _, tag := range strings.Split(tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
