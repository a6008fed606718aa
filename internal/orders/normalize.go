package orders

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CanonicalStatus lowercases an order status and remaps the literal
// "trash" value to "canceled" everywhere it appears.
func CanonicalStatus(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	if s == "trash" {
		return "canceled"
	}
	return s
}

// NormalizeOrderNumber canonicalizes an order number for cross-system
// lookup: strip a leading '#', trim, lowercase.
func NormalizeOrderNumber(number string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(number), "#")))
}

// NormalizeOrder converts a raw order payload from either source system
// into a canonical Order. It never fails: absent or malformed fields
// degrade to nil/zero so that one bad record cannot drop a batch.
func NormalizeOrder(raw map[string]any, source Source) Order {
	if raw == nil {
		return Order{Source: source}
	}

	o := Order{
		ID:       pickString(raw, "id", "ID", "_id"),
		Number:   pickString(raw, "number", "orderNumber", "order_number"),
		Status:   CanonicalStatus(pickString(raw, "status")),
		Currency: pickString(raw, "currency"),
		Source:   source,

		Subtotal:      nonNegative(pickMoney(raw, "subtotal", "subTotal", "sub_total")),
		ShippingTotal: nonNegative(pickMoney(raw, "shippingTotal", "shipping_total", "shippingCost")),
		TaxTotal:      nonNegative(pickMoney(raw, "taxTotal", "total_tax", "tax_total")),
		Total:         nonNegative(pickMoney(raw, "total", "grandTotal", "grand_total")),

		CreatedAt: pickTime(raw, "createdAt", "created_at", "date_created", "dateCreated", "date_created_gmt"),
		UpdatedAt: pickTime(raw, "updatedAt", "updated_at", "date_modified", "dateModified", "date_modified_gmt"),

		PaymentMethod: pickString(raw, "paymentMethod", "payment_method"),
		PaymentDetail: pickString(raw, "paymentDetail", "payment_method_title", "paymentMethodTitle"),
		Notes:         pickString(raw, "notes", "customer_note", "customerNote"),

		PhysicianCertified: pickBool(raw, "physicianCertified", "physician_certified"),
		PricingMode:        strings.ToLower(pickString(raw, "pricingMode", "pricing_mode")),
		HouseAttributed:    pickBool(raw, "houseAttributed", "house_attributed", "contactFormLead"),

		DoctorID:    pickString(raw, "doctorId", "doctor_id", "customerId", "customer_id"),
		DoctorName:  pickString(raw, "doctorName", "doctor_name"),
		DoctorEmail: pickString(raw, "doctorEmail", "doctor_email"),

		ShippingAddress: coerceAddress(pickMap(raw, "shippingAddress", "shipping_address", "shipping")),
		BillingAddress:  coerceAddress(pickMap(raw, "billingAddress", "billing_address", "billing")),
	}

	if o.Number == "" {
		o.Number = o.ID
	}
	if o.DoctorEmail == "" && o.BillingAddress != nil {
		o.DoctorEmail = o.BillingAddress.Email
	}
	if o.DoctorName == "" && o.BillingAddress != nil {
		o.DoctorName = o.BillingAddress.Name
	}

	if items, ok := pick(raw, "items", "lineItems", "line_items"); ok {
		o.Items = normalizeLineItems(asSlice(items))
	}

	o.Integrations = normalizeIntegrations(pickMap(raw, "integrationDetails", "integration_details"))
	o.Shipping = normalizeShippingEstimate(raw, &o)

	switch source {
	case SourceLocal:
		o.LocalID = o.ID
	case SourceExternal:
		o.ExternalID = o.ID
	}
	return o
}

func normalizeLineItems(items []any) []LineItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]LineItem, 0, len(items))
	for _, entry := range items {
		raw := asMap(entry)
		if raw == nil {
			continue
		}
		item := LineItem{
			Name:      pickString(raw, "name", "title"),
			SKU:       pickString(raw, "sku"),
			ProductID: pickString(raw, "productId", "product_id"),
			VariantID: pickString(raw, "variantId", "variation_id", "variant_id"),
			UnitPrice: pickMoney(raw, "unitPrice", "price", "unit_price"),
			Total:     pickMoney(raw, "total", "lineTotal", "line_total"),
		}
		if qty, ok := pickInt(raw, "quantity", "qty"); ok && qty > 0 {
			item.Quantity = qty
		}
		if image := pickMap(raw, "image"); image != nil {
			item.ImageURL = pickString(image, "src", "url")
		} else {
			item.ImageURL = pickString(raw, "imageUrl", "image_url")
		}

		// Known source ambiguity: some feeds put the line total in the
		// price field. When price and total are near-equal with quantity
		// above one, the total already equals the unit price; derive the
		// per-unit price instead of multiplying again.
		if item.Quantity > 1 && item.UnitPrice != nil && item.Total != nil && nearEqual(*item.UnitPrice, *item.Total) {
			unit := item.Total.Div(decimal.NewFromInt(int64(item.Quantity)))
			item.UnitPrice = &unit
		}
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

var nearEqualTolerance = decimal.NewFromFloat(0.01)

func nearEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(nearEqualTolerance)
}

func normalizeIntegrations(raw map[string]any) map[string]map[string]any {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]map[string]any, len(raw))
	for name, payload := range raw {
		if m := asMap(payload); m != nil {
			out[name] = m
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeShippingEstimate(raw map[string]any, o *Order) *ShippingEstimate {
	est := pickMap(raw, "shippingEstimate", "shipping_estimate")
	var shipping *ShippingEstimate
	if est != nil {
		shipping = &ShippingEstimate{
			Carrier:        pickString(est, "carrier"),
			Service:        pickString(est, "service", "serviceName", "service_name"),
			ETA:            pickTime(est, "eta", "estimatedDelivery", "estimated_delivery", "estimatedDeliveryDate", "estimated_delivery_date"),
			Dimensions:     pickString(est, "dimensions"),
			Status:         pickString(est, "status"),
			TrackingNumber: pickString(est, "trackingNumber", "tracking_number"),
		}
	}

	// Best-effort ETA projection: with no explicit ETA but a creation
	// date plus an integer delivery-days estimate, project forward.
	days, haveDays := pickInt(raw, "estimatedDeliveryDays", "estimated_delivery_days")
	if !haveDays && est != nil {
		days, haveDays = pickInt(est, "estimatedDeliveryDays", "estimated_delivery_days", "days")
	}
	if haveDays && days > 0 && o.CreatedAt != nil {
		if shipping == nil {
			shipping = &ShippingEstimate{}
		}
		if shipping.ETA == nil {
			eta := o.CreatedAt.AddDate(0, 0, days)
			shipping.ETA = &eta
		}
	}

	if shipping == nil {
		return nil
	}
	if shipping.Carrier == "" && shipping.Service == "" && shipping.ETA == nil &&
		shipping.Status == "" && shipping.TrackingNumber == "" && shipping.Dimensions == "" {
		return nil
	}
	return shipping
}

// wooNumberKey extracts the normalized external order number a local order
// cross-references, from the direct field or the nested integration
// payload. Empty when the local order has no external counterpart.
func wooNumberKey(raw map[string]any, o Order) string {
	if n := pickString(raw, "wooOrderNumber", "woo_order_number", "externalOrderNumber", "external_order_number"); n != "" {
		return NormalizeOrderNumber(n)
	}
	if woo, ok := o.Integrations["woocommerce"]; ok {
		if n := pickString(woo, "number", "orderNumber", "order_number", "id"); n != "" {
			return NormalizeOrderNumber(n)
		}
	}
	return ""
}
