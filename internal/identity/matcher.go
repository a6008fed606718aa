package identity

// Lead carries the identity signals of a referral/lead record that matter
// for matching. Server-reported fields, when present, outrank anything the
// matcher could infer.
type Lead struct {
	Email     string
	Phone     string
	AccountID string

	// ReportedHasAccount is authoritative when non-nil.
	ReportedHasAccount *bool
	// ReportedOrderCount counts qualifying orders as reported upstream.
	// A positive count is sufficient evidence on its own.
	ReportedOrderCount int
}

func (l Lead) keys() []string {
	keys := EmailIdentityKeys(l.Email)
	keys = append(keys, PhoneIdentityKeys(l.Phone)...)
	if key, ok := AccountIdentityKey(l.AccountID); ok {
		keys = append(keys, key)
	}
	return keys
}

// Matcher answers account and order membership questions for leads using
// precomputed key sets. Self holds the keys of the currently authenticated
// identity; a lead matching Self never qualifies, so a rep cannot refer
// themself into a credit.
type Matcher struct {
	Accounts KeySet
	Orders   KeySet
	Self     KeySet
}

// HasAccount reports whether the lead belongs to a known account. An
// explicit server-reported flag wins outright; otherwise keys are tried
// against the account set with no partial-credit scoring.
func (m Matcher) HasAccount(lead Lead) bool {
	if lead.ReportedHasAccount != nil {
		return *lead.ReportedHasAccount
	}
	keys := lead.keys()
	if m.Self.ContainsAny(keys) {
		return false
	}
	return m.Accounts.ContainsAny(keys)
}

// HasPlacedOrder reports whether the lead has placed an order, consulting
// both the reported order count and key matching against the known-orders
// set. Either signal may be stale, so a hit on either counts.
func (m Matcher) HasPlacedOrder(lead Lead) bool {
	keys := lead.keys()
	if m.Self.ContainsAny(keys) {
		return false
	}
	if lead.ReportedOrderCount > 0 {
		return true
	}
	return m.Orders.ContainsAny(keys)
}
