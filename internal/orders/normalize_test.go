package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalStatus(t *testing.T) {
	assert.Equal(t, "canceled", CanonicalStatus("trash"))
	assert.Equal(t, "canceled", CanonicalStatus(" Trash "))
	assert.Equal(t, "processing", CanonicalStatus("Processing"))
	assert.Equal(t, "", CanonicalStatus(""))
}

func TestNormalizeOrderNumber(t *testing.T) {
	assert.Equal(t, "1042", NormalizeOrderNumber("#1042"))
	assert.Equal(t, "1042", NormalizeOrderNumber(" 1042 "))
	assert.Equal(t, "wc-17a", NormalizeOrderNumber("#WC-17A"))
}

func TestNormalizeOrderWooShape(t *testing.T) {
	raw := map[string]any{
		"id":                   float64(1042),
		"number":               "1042",
		"status":               "processing",
		"currency":             "USD",
		"total":                "120.00",
		"shipping_total":       "10.00",
		"total_tax":            "5.00",
		"date_created":         "2024-04-02T09:00:00",
		"payment_method":       "stripe",
		"payment_method_title": "Credit Card",
		"customer_note":        "leave at door",
		"billing": map[string]any{
			"first_name": "Pat",
			"last_name":  "Odom",
			"address_1":  "4 Elm Ave",
			"city":       "Tulsa",
			"email":      "pat@clinic.test",
		},
		"line_items": []any{
			map[string]any{
				"name":         "Gauze Pack",
				"quantity":     float64(3),
				"price":        "15.00",
				"total":        "45.00",
				"sku":          "GZ-3",
				"product_id":   float64(88),
				"variation_id": float64(0),
			},
		},
	}

	o := NormalizeOrder(raw, SourceExternal)
	assert.Equal(t, "1042", o.ID)
	assert.Equal(t, "1042", o.Number)
	assert.Equal(t, "processing", o.Status)
	assert.Equal(t, SourceExternal, o.Source)
	assert.Equal(t, "1042", o.ExternalID)
	require.NotNil(t, o.Total)
	assert.Equal(t, "120", o.Total.String())
	require.NotNil(t, o.CreatedAt)
	assert.Equal(t, time.April, o.CreatedAt.Month())
	assert.Equal(t, "stripe", o.PaymentMethod)
	assert.Equal(t, "Credit Card", o.PaymentDetail)
	assert.Equal(t, "leave at door", o.Notes)
	assert.Equal(t, "pat@clinic.test", o.DoctorEmail)
	assert.Equal(t, "Pat Odom", o.DoctorName)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.Equal(t, "15", o.Items[0].UnitPrice.String())
	assert.Equal(t, "45", o.Items[0].Total.String())
}

func TestNormalizeOrderNeverFails(t *testing.T) {
	assert.NotPanics(t, func() {
		o := NormalizeOrder(nil, SourceLocal)
		assert.Equal(t, SourceLocal, o.Source)
	})
	o := NormalizeOrder(map[string]any{
		"id":         "L9",
		"total":      "not money",
		"created_at": 42.5,
		"line_items": "not a list",
		"billing":    []any{"wrong shape"},
	}, SourceLocal)
	assert.Equal(t, "L9", o.ID)
	assert.Nil(t, o.Total)
	assert.Nil(t, o.CreatedAt)
	assert.Nil(t, o.Items)
	assert.Nil(t, o.BillingAddress)
}

func TestLineItemPriceTotalAmbiguity(t *testing.T) {
	raw := map[string]any{
		"id": "L1",
		"items": []any{
			map[string]any{
				"name":     "Collagen Kit",
				"quantity": float64(4),
				"price":    "200.00",
				"total":    "200.00",
			},
		},
	}
	o := NormalizeOrder(raw, SourceLocal)
	require.Len(t, o.Items, 1)
	item := o.Items[0]
	require.NotNil(t, item.Total)
	assert.Equal(t, "200", item.Total.String())
	require.NotNil(t, item.UnitPrice)
	assert.Equal(t, "50", item.UnitPrice.String())
}

func TestShippingETAProjection(t *testing.T) {
	raw := map[string]any{
		"id":                    "L2",
		"created_at":            "2024-05-10T00:00:00Z",
		"estimatedDeliveryDays": float64(5),
	}
	o := NormalizeOrder(raw, SourceLocal)
	require.NotNil(t, o.Shipping)
	require.NotNil(t, o.Shipping.ETA)
	assert.Equal(t, 15, o.Shipping.ETA.Day())

	// An explicit ETA is never overwritten by the projection.
	raw = map[string]any{
		"id":                    "L3",
		"created_at":            "2024-05-10T00:00:00Z",
		"estimatedDeliveryDays": float64(5),
		"shippingEstimate": map[string]any{
			"carrier": "UPS",
			"eta":     "2024-05-12T00:00:00Z",
		},
	}
	o = NormalizeOrder(raw, SourceLocal)
	require.NotNil(t, o.Shipping)
	assert.Equal(t, 12, o.Shipping.ETA.Day())
	assert.Equal(t, "UPS", o.Shipping.Carrier)
}

func TestNormalizeOrderNegativeTotalsDropped(t *testing.T) {
	o := NormalizeOrder(map[string]any{"id": "L4", "total": "-3.00"}, SourceLocal)
	assert.Nil(t, o.Total)
}
