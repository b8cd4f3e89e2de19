package aggregate

import (
	"fmt"

	"vanbiz/internal/entity"
	apperrors "vanbiz/internal/errors"
	"vanbiz/internal/table"
)

// foldRows calls fn with the entity keyed by each row's name cell and the
// row's value cell. A name missing from idx is a KeyError.
func foldRows[T any](idx *Index[T], t *table.Table, nameField, valueField string, fn func(T, table.Value) error) error {
	nameCol, err := t.ColumnIndex(nameField)
	if err != nil {
		return err
	}
	valueCol, err := t.ColumnIndex(valueField)
	if err != nil {
		return err
	}
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		key := row[nameCol].String()
		e, ok := idx.Get(key)
		if !ok {
			return apperrors.NewKeyError(key).WithContext("row", i)
		}
		if err := fn(e, row[valueCol]); err != nil {
			return fmt.Errorf("row %d (%s): %w", i, key, err)
		}
	}
	return nil
}

// BuildBusinessIndex creates one Business per distinct name, in first-seen
// order, taking city and local area from that first row.
func BuildBusinessIndex(t *table.Table, cols BusinessColumns) (*Index[*entity.Business], error) {
	name, err := t.ColumnIndex(cols.Name)
	if err != nil {
		return nil, err
	}
	city, err := t.ColumnIndex(cols.City)
	if err != nil {
		return nil, err
	}
	area, err := t.ColumnIndex(cols.LocalArea)
	if err != nil {
		return nil, err
	}

	idx := NewIndex[*entity.Business]()
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		key := row[name].String()
		if _, ok := idx.Get(key); ok {
			continue
		}
		b, err := entity.NewBusiness(key, row[city].String(), row[area].String())
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		idx.Insert(key, b)
	}
	return idx, nil
}

// FoldBusinessCategories adds each row's category to its Business.
func FoldBusinessCategories(idx *Index[*entity.Business], t *table.Table, cols BusinessColumns) error {
	return foldRows(idx, t, cols.Name, cols.Category, func(b *entity.Business, v table.Value) error {
		b.AddCategory(v.String())
		return nil
	})
}

// FoldBusinessAddresses adds each row's address to its Business.
func FoldBusinessAddresses(idx *Index[*entity.Business], t *table.Table, cols BusinessColumns) error {
	return foldRows(idx, t, cols.Name, cols.Address, func(b *entity.Business, v table.Value) error {
		b.AddAddress(v.String())
		return nil
	})
}

// FoldBusinessEmployees adds each row's head count. The cell must hold an
// integral number.
func FoldBusinessEmployees(idx *Index[*entity.Business], t *table.Table, cols BusinessColumns) error {
	return foldRows(idx, t, cols.Name, cols.Employees, func(b *entity.Business, v table.Value) error {
		n, ok := v.Int64()
		if !ok {
			return apperrors.NewAppValidationError(
				fmt.Sprintf("employee count %q is not an integer", v.String()))
		}
		return b.AddEmployeeCount(n)
	})
}

// FoldBusinessFees adds each row's fee. Null and empty cells are skipped.
func FoldBusinessFees(idx *Index[*entity.Business], t *table.Table, cols BusinessColumns) error {
	return foldRows(idx, t, cols.Name, cols.Fee, func(b *entity.Business, v table.Value) error {
		if v.IsNull() {
			return nil
		}
		if s, ok := v.Str(); ok && s == "" {
			return nil
		}
		f, ok := v.Float64()
		if !ok {
			return apperrors.NewAppValidationError(fmt.Sprintf("register fee %q is not a number", v.String()))
		}
		return b.AddFee(f)
	})
}

// BuildInventoryIndex creates one InventoryRecord per distinct name.
func BuildInventoryIndex(t *table.Table, cols InventoryColumns) (*Index[*entity.InventoryRecord], error) {
	name, err := t.ColumnIndex(cols.Name)
	if err != nil {
		return nil, err
	}

	idx := NewIndex[*entity.InventoryRecord]()
	for i := 0; i < t.Len(); i++ {
		key := t.Row(i)[name].String()
		if _, ok := idx.Get(key); ok {
			continue
		}
		r, err := entity.NewInventoryRecord(key)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		idx.Insert(key, r)
	}
	return idx, nil
}

// FoldInventoryCategories adds each row's retail category.
func FoldInventoryCategories(idx *Index[*entity.InventoryRecord], t *table.Table, cols InventoryColumns) error {
	return foldRows(idx, t, cols.Name, cols.Category, func(r *entity.InventoryRecord, v table.Value) error {
		r.AddCategory(v.String())
		return nil
	})
}

// FoldInventoryAddresses adds each row's storefront address.
func FoldInventoryAddresses(idx *Index[*entity.InventoryRecord], t *table.Table, cols InventoryColumns) error {
	return foldRows(idx, t, cols.Name, cols.Address, func(r *entity.InventoryRecord, v table.Value) error {
		r.AddAddress(v.String())
		return nil
	})
}

// AggregateBusinesses builds the business index and runs every business fold
// in order: categories, addresses, employees, fees.
func AggregateBusinesses(t *table.Table, cols BusinessColumns) (*Index[*entity.Business], error) {
	idx, err := BuildBusinessIndex(t, cols)
	if err != nil {
		return nil, fmt.Errorf("build business index: %w", err)
	}
	folds := []struct {
		name string
		fn   func(*Index[*entity.Business], *table.Table, BusinessColumns) error
	}{
		{"categories", FoldBusinessCategories},
		{"addresses", FoldBusinessAddresses},
		{"employees", FoldBusinessEmployees},
		{"fees", FoldBusinessFees},
	}
	for _, f := range folds {
		if err := f.fn(idx, t, cols); err != nil {
			return nil, fmt.Errorf("fold business %s: %w", f.name, err)
		}
	}
	return idx, nil
}

// AggregateInventory builds the inventory index and folds categories then
// addresses.
func AggregateInventory(t *table.Table, cols InventoryColumns) (*Index[*entity.InventoryRecord], error) {
	idx, err := BuildInventoryIndex(t, cols)
	if err != nil {
		return nil, fmt.Errorf("build inventory index: %w", err)
	}
	if err := FoldInventoryCategories(idx, t, cols); err != nil {
		return nil, fmt.Errorf("fold inventory categories: %w", err)
	}
	if err := FoldInventoryAddresses(idx, t, cols); err != nil {
		return nil, fmt.Errorf("fold inventory addresses: %w", err)
	}
	return idx, nil
}
