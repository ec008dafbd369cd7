package billing

// SumOneTimeCredits folds completed-session line items against the catalog.
// Each item mapped to a one_time product contributes its configured credits
// once; unmapped price ids and subscription items contribute zero. Checkout
// sessions are opened with quantity 1, so item quantity is not consulted.
func SumOneTimeCredits(catalog *Catalog, items []LineItem) int64 {
	var total int64
	for _, item := range items {
		product, ok := catalog.Lookup(item.PriceID)
		if !ok || product.Kind != ProductOneTime {
			continue
		}
		total += product.Credits
	}
	return total
}
