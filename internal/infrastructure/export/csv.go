package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/feedpilot/backend/internal/domain"
)

// ContentType is the media type of a supplemental feed
const ContentType = "text/csv; charset=utf-8"

// Header returns the columns of a Merchant Center supplemental feed
func Header() []string {
	header := []string{"id", "google_product_category"}
	for slot := 0; slot < domain.CustomLabelSlots; slot++ {
		header = append(header, domain.CustomLabelKey(slot))
	}
	return header
}

// WriteSupplementalFeed writes one row per optimized product. Merchant Center
// matches rows to primary feed items by id and overwrites only these columns.
func WriteSupplementalFeed(w io.Writer, products []domain.EnrichedProduct) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, 2+domain.CustomLabelSlots)
	for _, p := range products {
		row[0] = p.Product.ID
		row[1] = p.Category.Code
		for slot, label := range p.CustomLabels {
			row[2+slot] = label
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write product %s: %w", p.Product.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// FileName names the export of a run
func FileName(runID string) string {
	return fmt.Sprintf("feedpilot-%s.csv", runID)
}
