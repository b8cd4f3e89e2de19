package chart

import "vanbiz/pkg/contracts/domain"

// Leader is the business holding the largest value of one column.
type Leader struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Overview holds the headline numbers of the information panel.
type Overview struct {
	Businesses              int     `json:"businesses"`
	InventoryRecords        int     `json:"inventory_records"`
	BusinessesWithInventory int     `json:"businesses_with_inventory"`
	MostEmployees           *Leader `json:"most_employees,omitempty"`
	MostInventory           *Leader `json:"most_inventory,omitempty"`
	MostStores              *Leader `json:"most_stores,omitempty"`
	HighestRegisterFee      *Leader `json:"highest_register_fee,omitempty"`
}

// NewOverview counts the rows of both summary tables and finds the leaders.
// Leaders are nil when their table is empty; ties go to the first row.
func NewOverview(s domain.Summary) Overview {
	o := Overview{
		Businesses:       len(s.Businesses),
		InventoryRecords: len(s.Inventory),
	}
	for _, b := range s.Businesses {
		if b.InventoryCount > 0 {
			o.BusinessesWithInventory++
		}
		o.MostEmployees = lead(o.MostEmployees, b.Name, float64(b.EmployeeTotal))
		o.MostStores = lead(o.MostStores, b.Name, float64(b.StoreCount))
		o.HighestRegisterFee = lead(o.HighestRegisterFee, b.Name, b.RegisterFeeTotal)
	}
	for _, r := range s.Inventory {
		o.MostInventory = lead(o.MostInventory, r.Name, float64(r.InventoryCount))
	}
	return o
}

func lead(cur *Leader, name string, v float64) *Leader {
	if cur == nil || v > cur.Value {
		return &Leader{Name: name, Value: v}
	}
	return cur
}
