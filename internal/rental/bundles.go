package rental

// FlagBundleItems marks cart items that belong to a fully covered bundle, so
// the pricing engine can apply the bundle discount without looking bundles up
// itself. A bundle counts as covered when the cart carries every product in it
// at no less than the bundle quantity.
func FlagBundleItems(items []CartItem, bundles []Bundle) []CartItem {
	qtyByProduct := make(map[string]int, len(items))
	for _, it := range items {
		qtyByProduct[it.ProductID] += it.Qty
	}

	member := make(map[string]bool)
	for _, b := range bundles {
		if len(b.Products) == 0 {
			continue
		}
		covered := true
		for _, bp := range b.Products {
			if qtyByProduct[bp.ProductID] < bp.Qty {
				covered = false
				break
			}
		}
		if !covered {
			continue
		}
		for _, bp := range b.Products {
			member[bp.ProductID] = true
		}
	}

	out := make([]CartItem, len(items))
	for i, it := range items {
		it.InBundle = member[it.ProductID]
		out[i] = it
	}
	return out
}
