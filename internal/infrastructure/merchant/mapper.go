package merchant

import (
	"fmt"
	"strings"

	content "google.golang.org/api/content/v2.1"

	"github.com/feedpilot/backend/internal/domain"
)

const channelOnline = "online"

// updateMask lists the attributes PublishProducts is allowed to overwrite
var updateMask = strings.Join([]string{
	"googleProductCategory",
	"customLabel0",
	"customLabel1",
	"customLabel2",
	"customLabel3",
	"customLabel4",
}, ",")

// MapToProduct converts a Content API product resource to our domain Product
func MapToProduct(p *content.Product) domain.Product {
	product := domain.Product{
		ID:           strings.TrimSpace(p.OfferId),
		Title:        strings.TrimSpace(p.Title),
		Description:  p.Description,
		Brand:        strings.TrimSpace(p.Brand),
		Barcode:      strings.TrimSpace(p.Gtin),
		SKU:          strings.TrimSpace(p.Mpn),
		Link:         p.Link,
		Availability: domain.NormalizeAvailability(p.Availability),
	}
	if product.ID == "" {
		product.ID = strings.TrimSpace(p.Id)
	}
	if len(p.ProductTypes) > 0 {
		product.ProductType = strings.TrimSpace(p.ProductTypes[0])
	}
	if p.Price != nil {
		product.Price = domain.NewPrice(p.Price.Value, p.Price.Currency)
	}

	if p.ImageLink != "" {
		product.Images = append(product.Images, p.ImageLink)
	}
	for _, link := range p.AdditionalImageLinks {
		if link != "" && link != p.ImageLink {
			product.Images = append(product.Images, link)
		}
	}

	return product
}

// ToUpdate builds the partial resource pushed back for an optimized product.
// Empty labels are sent explicitly so stale values get cleared.
func ToUpdate(ep domain.EnrichedProduct) *content.Product {
	labels := ep.CustomLabels
	return &content.Product{
		GoogleProductCategory: ep.Category.Code,
		CustomLabel0:          labels[0],
		CustomLabel1:          labels[1],
		CustomLabel2:          labels[2],
		CustomLabel3:          labels[3],
		CustomLabel4:          labels[4],
		ForceSendFields:       []string{"CustomLabel0", "CustomLabel1", "CustomLabel2", "CustomLabel3", "CustomLabel4"},
	}
}

// RestID builds the channel:language:feedLabel:offerId identifier of an online product
func RestID(contentLanguage, feedLabel, offerID string) string {
	return fmt.Sprintf("%s:%s:%s:%s", channelOnline, contentLanguage, feedLabel, offerID)
}
