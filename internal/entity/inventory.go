package entity

import (
	"fmt"

	apperrors "vanbiz/internal/errors"
)

// InventoryRecord is one canonical business name with its storefronts folded in.
type InventoryRecord struct {
	name       string
	categories []string
	addresses  []string
	addressSet map[string]struct{}
}

// NewInventoryRecord creates an InventoryRecord.
func NewInventoryRecord(name string) (*InventoryRecord, error) {
	if name == "" {
		return nil, apperrors.NewAppValidationError("inventory business name must not be empty")
	}
	return &InventoryRecord{name: name, addressSet: make(map[string]struct{})}, nil
}

func (r *InventoryRecord) Name() string { return r.name }

// AddCategory records one storefront's retail category.
func (r *InventoryRecord) AddCategory(category string) {
	r.categories = append(r.categories, category)
}

// AddAddress records a storefront address. Unlike Business addresses the
// comparison is exact.
func (r *InventoryRecord) AddAddress(address string) {
	if _, ok := r.addressSet[address]; ok {
		return
	}
	r.addressSet[address] = struct{}{}
	r.addresses = append(r.addresses, address)
}

// Addresses returns the distinct storefront addresses in insertion order.
func (r *InventoryRecord) Addresses() []string { return append([]string(nil), r.addresses...) }

// Categories returns a copy of the recorded categories.
func (r *InventoryRecord) Categories() []string { return append([]string(nil), r.categories...) }

func (r *InventoryRecord) InventoryCount() int  { return len(r.addresses) }
func (r *InventoryRecord) MainCategory() string { return mode(r.categories) }

// Equal compares the name and the main category.
func (r *InventoryRecord) Equal(other *InventoryRecord) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.name == other.name && r.MainCategory() == other.MainCategory()
}

func (r *InventoryRecord) String() string {
	return fmt.Sprintf("%s is a %s company with %d storefront(s).", r.name, r.MainCategory(), r.InventoryCount())
}
