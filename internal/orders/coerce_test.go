package orders

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceMoney(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
		nil_ bool
	}{
		{"string", "12.50", "12.5", false},
		{"dollar prefix", "$ 99.00", "99", false},
		{"float", 10.25, "10.25", false},
		{"int", 7, "7", false},
		{"json number", json.Number("3.99"), "3.99", false},
		{"garbage", "twelve", "", true},
		{"empty", "", "", true},
		{"nan", math.NaN(), "", true},
		{"inf", math.Inf(1), "", true},
		{"nil", nil, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := coerceMoney(tc.in)
			if tc.nil_ {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestNonNegative(t *testing.T) {
	neg := decimal.NewFromInt(-5)
	assert.Nil(t, nonNegative(&neg))
	assert.Nil(t, nonNegative(nil))
	zero := decimal.Zero
	assert.NotNil(t, nonNegative(&zero))
}

func TestCoerceTimeLayouts(t *testing.T) {
	cases := []string{
		"2024-03-01T10:30:00Z",
		"2024-03-01T10:30:00",
		"2024-03-01 10:30:00",
		"2024-03-01",
	}
	for _, raw := range cases {
		ts := coerceTime(raw)
		require.NotNil(t, ts, "layout %q", raw)
		assert.Equal(t, 2024, ts.Year())
		assert.Equal(t, time.March, ts.Month())
	}
	assert.Nil(t, coerceTime("not a date"))
	assert.Nil(t, coerceTime(""))
}

func TestPickPrefersFirstSpelling(t *testing.T) {
	raw := map[string]any{"total": "10.00", "grand_total": "20.00"}
	d := pickMoney(raw, "total", "grandTotal", "grand_total")
	require.NotNil(t, d)
	assert.Equal(t, "10", d.String())

	raw = map[string]any{"grand_total": "20.00"}
	d = pickMoney(raw, "total", "grandTotal", "grand_total")
	require.NotNil(t, d)
	assert.Equal(t, "20", d.String())
}

func TestCoerceAddressCombinedName(t *testing.T) {
	addr := coerceAddress(map[string]any{
		"first_name": "Ann",
		"last_name":  "Lee",
		"address_1":  "12 Main St",
		"city":       "Austin",
	})
	require.NotNil(t, addr)
	assert.Equal(t, "Ann Lee", addr.Name)
	assert.Equal(t, "12 Main St", addr.Line1)
}

func TestCoerceAddressBareNameIsNotSaved(t *testing.T) {
	addr := coerceAddress(map[string]any{
		"name":    "Dr. Nobody",
		"country": "US",
	})
	assert.Nil(t, addr)
}
