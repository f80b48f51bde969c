package checkoutsvc

import (
	"github.com/corray333/storefront/internal/dal/payment"
	"github.com/corray333/storefront/internal/service/models/cart"
	"github.com/corray333/storefront/internal/service/models/product"
)

// priceLines prices validated checkout lines with the authoritative unit
// prices read from the product records. Prices are stored as integer minor
// units (price_cents), so any rounding happened once, when the price was
// set, never at the aggregate level. The total is the exact sum of the
// per-line subtotals; repeated computation of the same input is bit-for-bit
// identical.
func priceLines(
	byID map[int64]product.Product,
	items []cart.LineRequest,
) ([]payment.SessionLineItem, []payment.MetadataItem, int64) {
	lineItems := make([]payment.SessionLineItem, 0, len(items))
	metaItems := make([]payment.MetadataItem, 0, len(items))

	var total int64
	for _, item := range items {
		p := byID[item.ProductID]
		subtotal := p.PriceCents * int64(item.Quantity)
		total += subtotal

		lineItems = append(lineItems, payment.SessionLineItem{
			ProductID:  p.ID,
			Name:       p.Name,
			PriceCents: p.PriceCents,
			Quantity:   item.Quantity,
		})
		metaItems = append(metaItems, payment.MetadataItem{
			ProductID:  p.ID,
			Name:       p.Name,
			Quantity:   item.Quantity,
			PriceCents: p.PriceCents,
		})
	}

	return lineItems, metaItems, total
}
