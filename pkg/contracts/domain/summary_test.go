package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoverage_Ratio(t *testing.T) {
	tests := []struct {
		name     string
		coverage Coverage
		want     float64
	}{
		{"no inventory", Coverage{}, 1},
		{"all matched", Coverage{InventoryNames: 4, Matched: 4}, 1},
		{"half matched", Coverage{InventoryNames: 4, Matched: 2, Unmatched: []string{"A", "B"}}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.coverage.Ratio(), 1e-9)
		})
	}
}

func TestBusinessSummary_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(BusinessSummary{Name: "Acme", StoreCount: 2, RegisterFeeTotal: 25})
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Acme", got["name"])
	assert.Equal(t, float64(2), got["store_count"])
	assert.Equal(t, float64(25), got["register_fee_total"])
	assert.Len(t, BusinessHeaders, len(got))
}
