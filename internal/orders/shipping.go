package orders

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Integration payload keys under Order.Integrations.
const (
	integrationWoo         = "woocommerce"
	integrationTracking    = "aftership"
	integrationFulfillment = "shipstation"
)

var titleCaser = cases.Title(language.AmericanEnglish)

// DescribeStatus derives one human-facing shipping status for an order.
// Any single tracking source may be the only one populated, so every
// source is consulted in a fixed precedence: cancel/refund on the order
// itself, then the shipping-estimate status, the carrier-tracking
// integration, the fulfillment integration's per-shipment array
// (preferring a non-voided shipment), and finally the bare order status
// mapped through a small lexicon or humanized.
func DescribeStatus(o Order) string {
	switch CanonicalStatus(o.Status) {
	case "canceled", "cancelled":
		return "Canceled"
	case "refunded":
		return "Refunded"
	}

	for _, candidate := range trackingStatuses(o) {
		if label, ok := trackingLabel(candidate); ok {
			return label
		}
	}

	status := CanonicalStatus(o.Status)
	switch status {
	case "processing":
		return "Order Received"
	case "completed":
		return "Shipped"
	}
	if o.Shipping != nil && o.Shipping.TrackingNumber != "" {
		return "Shipped"
	}
	if status != "" {
		return humanizeStatus(status)
	}
	return "Pending"
}

// trackingStatuses gathers candidate status strings in resolution order.
func trackingStatuses(o Order) []string {
	var candidates []string
	if o.Shipping != nil && o.Shipping.Status != "" {
		candidates = append(candidates, o.Shipping.Status)
	}
	if tracking, ok := o.Integrations[integrationTracking]; ok {
		if s := pickString(tracking, "status", "tag", "checkpointStatus", "checkpoint_status"); s != "" {
			candidates = append(candidates, s)
		}
	}
	if fulfillment, ok := o.Integrations[integrationFulfillment]; ok {
		if s := shipmentArrayStatus(fulfillment); s != "" {
			candidates = append(candidates, s)
		}
	}
	if o.Status != "" {
		candidates = append(candidates, o.Status)
	}
	return candidates
}

// shipmentArrayStatus picks a status from the fulfillment integration's
// shipments array, preferring a non-voided shipment.
func shipmentArrayStatus(payload map[string]any) string {
	shipments := asSlice(payload["shipments"])
	var voidedStatus string
	for _, entry := range shipments {
		shipment := asMap(entry)
		if shipment == nil {
			continue
		}
		status := pickString(shipment, "status", "shipmentStatus", "shipment_status")
		if status == "" {
			continue
		}
		if pickBool(shipment, "voided", "void") {
			if voidedStatus == "" {
				voidedStatus = status
			}
			continue
		}
		return status
	}
	return voidedStatus
}

func trackingLabel(raw string) (string, bool) {
	s := strings.ToLower(strings.ReplaceAll(raw, "_", " "))
	switch {
	case strings.Contains(s, "out for delivery"):
		return "Out for Delivery", true
	case strings.Contains(s, "in transit"):
		return "In Transit", true
	case strings.Contains(s, "delivered"):
		return "Delivered", true
	}
	return "", false
}

// humanizeStatus turns an underscore/space separated status into a
// title-cased label.
func humanizeStatus(status string) string {
	words := strings.FieldsFunc(status, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	if len(words) == 0 {
		return "Pending"
	}
	return titleCaser.String(strings.Join(words, " "))
}
