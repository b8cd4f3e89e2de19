package aggregate

import (
	"vanbiz/internal/entity"
	"vanbiz/pkg/contracts/domain"
)

// FilterByInventoryCount keeps inventory records with at least threshold
// distinct storefronts.
func FilterByInventoryCount(idx *Index[*entity.InventoryRecord], threshold int) *Index[*entity.InventoryRecord] {
	return idx.Filter(func(r *entity.InventoryRecord) bool {
		return r.InventoryCount() >= threshold
	})
}

// MergeInventoryIntoBusiness appends the storefront addresses of every
// inventory record that passes the threshold to the business with the same
// canonical name. Records with no matching business are skipped. It returns
// the number of records merged.
func MergeInventoryIntoBusiness(biz *Index[*entity.Business], inv *Index[*entity.InventoryRecord], threshold int) int {
	merged := 0
	eligible := FilterByInventoryCount(inv, threshold)
	for _, key := range eligible.Keys() {
		b, ok := biz.Get(key)
		if !ok {
			continue
		}
		r, _ := eligible.Get(key)
		b.AddInventory(r.Addresses())
		merged++
	}
	return merged
}

// FlattenBusinesses renders the business summary table in index order.
func FlattenBusinesses(idx *Index[*entity.Business]) []domain.BusinessSummary {
	out := make([]domain.BusinessSummary, 0, idx.Len())
	for _, b := range idx.Values() {
		out = append(out, domain.BusinessSummary{
			Name:             b.Name(),
			Category:         b.MainCategory(),
			StoreCount:       b.StoreCount(),
			EmployeeTotal:    b.EmployeeTotal(),
			InventoryCount:   b.InventoryCount(),
			RegisterFeeTotal: b.RegisterFeeTotal(),
			City:             b.City(),
		})
	}
	return out
}

// FlattenInventory renders the inventory summary table in index order. Every
// record is included regardless of the merge threshold.
func FlattenInventory(idx *Index[*entity.InventoryRecord]) []domain.InventorySummary {
	out := make([]domain.InventorySummary, 0, idx.Len())
	for _, r := range idx.Values() {
		out = append(out, domain.InventorySummary{
			Name:           r.Name(),
			Category:       r.MainCategory(),
			InventoryCount: r.InventoryCount(),
		})
	}
	return out
}
