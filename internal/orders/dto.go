package orders

import "time"

// OrderView is the JSON-facing projection of a canonical order, with the
// derived human shipping status attached.
type OrderView struct {
	Order
	ShippingStatus string `json:"shippingStatus"`
}

// ListResponse is the merged-order payload served to the web layer.
type ListResponse struct {
	Orders      []OrderView `json:"orders"`
	RefreshedAt time.Time   `json:"refreshedAt"`
	Warning     string      `json:"warning,omitempty"`
}

// CreateOrderRequest accepts a locally-authored order. The payload is the
// raw order document; only the fields the engine understands are
// meaningful, everything else rides along for traceability.
type CreateOrderRequest struct {
	Payload map[string]any `json:"payload" validate:"required"`
}

func viewOf(o Order) OrderView {
	return OrderView{Order: o, ShippingStatus: DescribeStatus(o)}
}

func viewsOf(list []Order) []OrderView {
	out := make([]OrderView, 0, len(list))
	for _, o := range list {
		out = append(out, viewOf(o))
	}
	return out
}
