package chart

import (
	"vanbiz/pkg/contracts/domain"
)

// Dataset selects which summary table a chart reads.
type Dataset string

const (
	DatasetBusiness  Dataset = "business"
	DatasetInventory Dataset = "inventory"
)

// Summary table column names, as published in the CSV headers.
const (
	FieldBusinessName     = "Business Name"
	FieldBusinessCategory = "Business Category"
	FieldCity             = "City"
	FieldStores           = "Number of Store"
	FieldEmployees        = "Number of Employees"
	FieldInventory        = "Number of Inventory"
	FieldRegisterFee      = "Total Register Fee"
	FieldInventoryRecords = "Number of inventory"
)

// frame is a column view over one summary table.
type frame struct {
	dataset Dataset
	labels  map[string][]string
	values  map[string][]float64
	order   []string
}

func businessFrame(rows []domain.BusinessSummary) *frame {
	f := &frame{
		dataset: DatasetBusiness,
		labels:  make(map[string][]string, 3),
		values:  make(map[string][]float64, 4),
		order:   columnsOf(DatasetBusiness),
	}
	for _, r := range rows {
		f.labels[FieldBusinessName] = append(f.labels[FieldBusinessName], r.Name)
		f.labels[FieldBusinessCategory] = append(f.labels[FieldBusinessCategory], r.Category)
		f.labels[FieldCity] = append(f.labels[FieldCity], r.City)
		f.values[FieldStores] = append(f.values[FieldStores], float64(r.StoreCount))
		f.values[FieldEmployees] = append(f.values[FieldEmployees], float64(r.EmployeeTotal))
		f.values[FieldInventory] = append(f.values[FieldInventory], float64(r.InventoryCount))
		f.values[FieldRegisterFee] = append(f.values[FieldRegisterFee], r.RegisterFeeTotal)
	}
	return f
}

func inventoryFrame(rows []domain.InventorySummary) *frame {
	f := &frame{
		dataset: DatasetInventory,
		labels:  make(map[string][]string, 2),
		values:  make(map[string][]float64, 1),
		order:   columnsOf(DatasetInventory),
	}
	for _, r := range rows {
		f.labels[FieldBusinessName] = append(f.labels[FieldBusinessName], r.Name)
		f.labels[FieldBusinessCategory] = append(f.labels[FieldBusinessCategory], r.Category)
		f.values[FieldInventoryRecords] = append(f.values[FieldInventoryRecords], float64(r.InventoryCount))
	}
	return f
}

func frameFor(s domain.Summary, d Dataset) *frame {
	if d == DatasetInventory {
		return inventoryFrame(s.Inventory)
	}
	return businessFrame(s.Businesses)
}

func (f *frame) hasLabel(field string) bool { return f.knows(field) && !isValueField(field) }

func (f *frame) hasValue(field string) bool { return f.knows(field) && isValueField(field) }

// knows reports whether field is a column of the dataset, even when the
// table is empty.
func (f *frame) knows(field string) bool {
	for _, c := range f.order {
		if c == field {
			return true
		}
	}
	return false
}

func isValueField(field string) bool {
	switch field {
	case FieldStores, FieldEmployees, FieldInventory, FieldRegisterFee, FieldInventoryRecords:
		return true
	}
	return false
}
