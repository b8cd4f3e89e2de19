package aggregate

// BusinessColumns names the cleaned licence columns read by the folds.
type BusinessColumns struct {
	Name      string
	City      string
	LocalArea string
	Category  string
	Address   string
	Employees string
	Fee       string
}

// DefaultBusinessColumns matches the cleaned licence dataset.
func DefaultBusinessColumns() BusinessColumns {
	return BusinessColumns{
		Name:      "BusinessName",
		City:      "City",
		LocalArea: "LocalArea",
		Category:  "BusinessType",
		Address:   "Address",
		Employees: "NumberofEmployees",
		Fee:       "FeePaid",
	}
}

// InventoryColumns names the cleaned storefront columns read by the folds.
type InventoryColumns struct {
	Name     string
	Category string
	Address  string
}

// DefaultInventoryColumns matches the cleaned storefront dataset.
func DefaultInventoryColumns() InventoryColumns {
	return InventoryColumns{
		Name:     "Business name",
		Category: "Retail category",
		Address:  "Address",
	}
}
