// Package entity holds the two aggregates built by the pipeline: a Business
// folded from licence rows and an InventoryRecord folded from storefront rows.
// Both are add-only; identity fields are fixed at construction.
package entity

import (
	"fmt"
	"math"
	"strings"

	apperrors "vanbiz/internal/errors"
)

// UnknownCategory is the main category of an entity with no categories.
const UnknownCategory = "Unknown"

// Business is one canonical business name with its licences folded in.
type Business struct {
	name      string
	city      string
	localArea string

	categories         []string
	addresses          []string
	addressSet         map[string]struct{}
	employeeCounts     []int64
	inventoryAddresses []string
	registerFeeTotal   float64
}

// NewBusiness creates a Business. City and local area come from the first
// licence row seen for the name and never change.
func NewBusiness(name, city, localArea string) (*Business, error) {
	if name == "" {
		return nil, apperrors.NewAppValidationError("business name must not be empty")
	}
	return &Business{
		name:       name,
		city:       city,
		localArea:  localArea,
		addressSet: make(map[string]struct{}),
	}, nil
}

func (b *Business) Name() string      { return b.name }
func (b *Business) City() string      { return b.city }
func (b *Business) LocalArea() string { return b.localArea }

// AddCategory records one licence's business type. Duplicates are kept since
// they weight the main category.
func (b *Business) AddCategory(category string) {
	b.categories = append(b.categories, category)
}

// AddAddress records a store address. Addresses are compared and stored
// lower-cased; a repeated address is ignored.
func (b *Business) AddAddress(address string) {
	key := strings.ToLower(address)
	if _, ok := b.addressSet[key]; ok {
		return
	}
	b.addressSet[key] = struct{}{}
	b.addresses = append(b.addresses, key)
}

// AddEmployeeCount records the head count of one licence.
func (b *Business) AddEmployeeCount(n int64) error {
	if n <= 0 {
		return apperrors.NewAppValidationError(fmt.Sprintf("employee count must be positive, got %d", n)).
			WithContext("business", b.name)
	}
	b.employeeCounts = append(b.employeeCounts, n)
	return nil
}

// AddFee adds a licence fee to the running total.
func (b *Business) AddFee(fee float64) error {
	if math.IsNaN(fee) || math.IsInf(fee, 0) || fee < 0 {
		return apperrors.NewAppValidationError(fmt.Sprintf("register fee must be a non-negative number, got %v", fee)).
			WithContext("business", b.name)
	}
	b.registerFeeTotal += fee
	return nil
}

// AddInventory appends merged storefront addresses. Duplicates are kept.
func (b *Business) AddInventory(addresses []string) {
	b.inventoryAddresses = append(b.inventoryAddresses, addresses...)
}

// Categories returns a copy of the recorded categories.
func (b *Business) Categories() []string { return append([]string(nil), b.categories...) }

// Addresses returns the distinct lower-cased store addresses in insertion order.
func (b *Business) Addresses() []string { return append([]string(nil), b.addresses...) }

// EmployeeCounts returns a copy of the recorded head counts.
func (b *Business) EmployeeCounts() []int64 { return append([]int64(nil), b.employeeCounts...) }

// InventoryAddresses returns a copy of the merged storefront addresses.
func (b *Business) InventoryAddresses() []string {
	return append([]string(nil), b.inventoryAddresses...)
}

func (b *Business) StoreCount() int           { return len(b.addresses) }
func (b *Business) InventoryCount() int       { return len(b.inventoryAddresses) }
func (b *Business) RegisterFeeTotal() float64 { return b.registerFeeTotal }
func (b *Business) MainCategory() string      { return mode(b.categories) }

// EmployeeTotal is the sum of all recorded head counts.
func (b *Business) EmployeeTotal() int64 {
	var total int64
	for _, n := range b.employeeCounts {
		total += n
	}
	return total
}

// Equal compares identity fields and the main category.
func (b *Business) Equal(other *Business) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.name == other.name &&
		b.city == other.city &&
		b.localArea == other.localArea &&
		b.MainCategory() == other.MainCategory()
}

func (b *Business) String() string {
	return fmt.Sprintf("%s is a %s company in %s. It has %d store(s) with %d employees, "+
		"%d inventory record(s) and paid %.2f in registration fees.",
		b.name, b.MainCategory(), b.city, b.StoreCount(), b.EmployeeTotal(),
		b.InventoryCount(), b.registerFeeTotal)
}

// mode returns the most frequent value. Ties go to the value that appears
// first in values.
func mode(values []string) string {
	if len(values) == 0 {
		return UnknownCategory
	}
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestCount := values[0], 0
	for _, v := range values {
		if c := counts[v]; c > bestCount {
			best, bestCount = v, c
		}
	}
	return best
}
