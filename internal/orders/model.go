// Package orders holds the canonical order model and the reconciliation
// engine that merges the local order store with the external commerce
// backend into one deduplicated order list.
package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source tags the provenance of the surviving merged record, not of every
// field on it.
type Source string

const (
	SourceLocal    Source = "local"
	SourceExternal Source = "external"
)

// Order is the canonical order entity. Exactly one Order exists per
// real-world purchase even when both source systems reported it. Absent
// upstream fields stay nil/zero; totals are never negative.
type Order struct {
	ID       string `json:"id"`
	Number   string `json:"number"`
	Status   string `json:"status"`
	Currency string `json:"currency,omitempty"`

	Subtotal      *decimal.Decimal `json:"subtotal,omitempty"`
	ShippingTotal *decimal.Decimal `json:"shippingTotal,omitempty"`
	TaxTotal      *decimal.Decimal `json:"taxTotal,omitempty"`
	Total         *decimal.Decimal `json:"total,omitempty"`

	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`

	Items []LineItem `json:"items,omitempty"`

	ShippingAddress *Address `json:"shippingAddress,omitempty"`
	BillingAddress  *Address `json:"billingAddress,omitempty"`

	Shipping *ShippingEstimate `json:"shipping,omitempty"`

	PaymentMethod string `json:"paymentMethod,omitempty"`
	PaymentDetail string `json:"paymentDetail,omitempty"`
	Notes         string `json:"notes,omitempty"`

	// PhysicianCertified is user-authored and only ever set locally.
	PhysicianCertified bool `json:"physicianCertified,omitempty"`

	// PricingMode is "wholesale" or "retail"; empty means unknown and is
	// treated as retail by the commission calculator.
	PricingMode string `json:"pricingMode,omitempty"`

	DoctorID    string `json:"doctorId,omitempty"`
	DoctorName  string `json:"doctorName,omitempty"`
	DoctorEmail string `json:"doctorEmail,omitempty"`

	// HouseAttributed marks orders that trace back to an inbound
	// contact-form lead rather than a personal referral.
	HouseAttributed bool `json:"houseAttributed,omitempty"`

	// Integrations keeps the raw per-integration payloads for
	// traceability, keyed by integration name.
	Integrations map[string]map[string]any `json:"integrationDetails,omitempty"`

	Source Source `json:"source"`

	// Cross-reference ids linking the local and external copies of the
	// same real-world order.
	LocalID    string `json:"localId,omitempty"`
	ExternalID string `json:"externalId,omitempty"`
}

// LineItem is one ordered line. Quantity is never negative.
type LineItem struct {
	Name      string           `json:"name"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
	Total     *decimal.Decimal `json:"total,omitempty"`
	SKU       string           `json:"sku,omitempty"`
	ProductID string           `json:"productId,omitempty"`
	VariantID string           `json:"variantId,omitempty"`
	ImageURL  string           `json:"imageUrl,omitempty"`
}

// Address is a shipping or billing address. A populated address carries at
// least one of street line, city, state, or postal code; a bare
// name/country pair does not count as a saved address.
type Address struct {
	Name       string `json:"name,omitempty"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// ShippingEstimate describes the expected shipment for an order.
type ShippingEstimate struct {
	Carrier        string     `json:"carrier,omitempty"`
	Service        string     `json:"service,omitempty"`
	ETA            *time.Time `json:"eta,omitempty"`
	Dimensions     string     `json:"dimensions,omitempty"`
	Status         string     `json:"status,omitempty"`
	TrackingNumber string     `json:"trackingNumber,omitempty"`
}

// CountsAsRevenue reports whether the order status contributes to
// commission bases. Cancelled, held, and refunded orders never count.
func (o Order) CountsAsRevenue() bool {
	switch CanonicalStatus(o.Status) {
	case "cancelled", "canceled", "on-hold", "refunded", "failed":
		return false
	}
	return true
}

// IsCanceled reports whether the order is in a cancel/refund state.
func (o Order) IsCanceled() bool {
	switch CanonicalStatus(o.Status) {
	case "canceled", "cancelled", "refunded":
		return true
	}
	return false
}

// CommissionBase returns the revenue figure a commission rate applies to:
// the subtotal when present, otherwise the grand total less shipping and
// tax, otherwise zero.
func (o Order) CommissionBase() decimal.Decimal {
	if o.Subtotal != nil {
		return *o.Subtotal
	}
	if o.Total == nil {
		return decimal.Zero
	}
	base := *o.Total
	if o.ShippingTotal != nil {
		base = base.Sub(*o.ShippingTotal)
	}
	if o.TaxTotal != nil {
		base = base.Sub(*o.TaxTotal)
	}
	if base.IsNegative() {
		return decimal.Zero
	}
	return base
}
