package orders

import (
	"sort"
	"time"
)

// MergeOptions filters the merged output.
type MergeOptions struct {
	// IncludeCanceled keeps cancel/refund/trash orders in the output.
	IncludeCanceled bool
}

// Merge reconciles the raw local and external order collections into one
// deduplicated canonical list. External orders that cross-reference a
// local order merge into the local copy: user-authored fields stay local,
// anything local left empty backfills from the external record. Unmatched
// external orders are appended as standalone canonical orders. The result
// is sorted by creation time descending, ties stable in insertion order.
//
// Merge is pure: given identical inputs it produces identical output, and
// a malformed individual record degrades to a partial Order rather than
// dropping the batch.
func Merge(localRaw, externalRaw []map[string]any, opts MergeOptions) []Order {
	merged := make([]Order, 0, len(localRaw)+len(externalRaw))
	byID := make(map[string]int)
	byWooNumber := make(map[string]int)

	for _, raw := range localRaw {
		o := NormalizeOrder(raw, SourceLocal)
		merged = append(merged, o)
		idx := len(merged) - 1
		if o.ID != "" {
			if _, taken := byID[o.ID]; !taken {
				byID[o.ID] = idx
			}
		}
		if key := wooNumberKey(raw, o); key != "" {
			if _, taken := byWooNumber[key]; !taken {
				byWooNumber[key] = idx
			}
		}
	}

	for _, raw := range externalRaw {
		ext := NormalizeOrder(raw, SourceExternal)
		idx, matched := matchExternal(ext, byID, byWooNumber)
		if matched {
			merged[idx] = mergeInto(merged[idx], ext)
			continue
		}
		merged = append(merged, ext)
	}

	if !opts.IncludeCanceled {
		kept := merged[:0]
		for _, o := range merged {
			if !o.IsCanceled() {
				kept = append(kept, o)
			}
		}
		merged = kept
	}

	sort.SliceStable(merged, func(i, j int) bool {
		ti, tj := createdAtOf(merged[i]), createdAtOf(merged[j])
		return ti.After(tj)
	})
	return merged
}

func matchExternal(ext Order, byID, byWooNumber map[string]int) (int, bool) {
	for _, key := range []string{NormalizeOrderNumber(ext.Number), NormalizeOrderNumber(ext.ID)} {
		if key == "" {
			continue
		}
		if idx, ok := byWooNumber[key]; ok {
			return idx, true
		}
		if idx, ok := byID[key]; ok {
			return idx, true
		}
	}
	return 0, false
}

// mergeInto folds an external order into its local counterpart. Local wins
// for user-authored fields; external backfills anything local left empty.
func mergeInto(local, ext Order) Order {
	out := local
	out.Source = SourceLocal
	out.ExternalID = ext.ID

	if out.Status == "" {
		out.Status = ext.Status
	}
	if out.Currency == "" {
		out.Currency = ext.Currency
	}
	if out.Subtotal == nil {
		out.Subtotal = ext.Subtotal
	}
	if out.ShippingTotal == nil {
		out.ShippingTotal = ext.ShippingTotal
	}
	if out.TaxTotal == nil {
		out.TaxTotal = ext.TaxTotal
	}
	if out.Total == nil {
		out.Total = ext.Total
	}
	if out.CreatedAt == nil {
		out.CreatedAt = ext.CreatedAt
	}
	if out.UpdatedAt == nil {
		out.UpdatedAt = ext.UpdatedAt
	}
	if len(out.Items) == 0 {
		out.Items = ext.Items
	}
	if out.ShippingAddress == nil {
		out.ShippingAddress = ext.ShippingAddress
	}
	if out.BillingAddress == nil {
		out.BillingAddress = ext.BillingAddress
	}
	if out.Shipping == nil {
		out.Shipping = ext.Shipping
	} else if ext.Shipping != nil {
		if out.Shipping.ETA == nil {
			out.Shipping.ETA = ext.Shipping.ETA
		}
		if out.Shipping.Status == "" {
			out.Shipping.Status = ext.Shipping.Status
		}
		if out.Shipping.TrackingNumber == "" {
			out.Shipping.TrackingNumber = ext.Shipping.TrackingNumber
		}
	}
	if out.PricingMode == "" {
		out.PricingMode = ext.PricingMode
	}
	if out.DoctorID == "" {
		out.DoctorID = ext.DoctorID
	}
	if out.DoctorName == "" {
		out.DoctorName = ext.DoctorName
	}
	if out.DoctorEmail == "" {
		out.DoctorEmail = ext.DoctorEmail
	}
	out.Integrations = mergeIntegrations(local.Integrations, ext.Integrations)
	return out
}

// mergeIntegrations merges metadata key-by-key with local taking
// precedence on conflicting nested keys.
func mergeIntegrations(local, ext map[string]map[string]any) map[string]map[string]any {
	if len(ext) == 0 {
		return local
	}
	if len(local) == 0 {
		return ext
	}
	out := make(map[string]map[string]any, len(local)+len(ext))
	for name, payload := range ext {
		out[name] = payload
	}
	for name, payload := range local {
		existing, ok := out[name]
		if !ok {
			out[name] = payload
			continue
		}
		combined := make(map[string]any, len(existing)+len(payload))
		for k, v := range existing {
			combined[k] = v
		}
		for k, v := range payload {
			combined[k] = v
		}
		out[name] = combined
	}
	return out
}

func createdAtOf(o Order) time.Time {
	if o.CreatedAt == nil {
		return time.Time{}
	}
	return *o.CreatedAt
}
