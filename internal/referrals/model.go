package referrals

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferralRecord is one referral/lead. Created by a referrer or an inbound
// contact-form submission; mutated only by rep/admin actions or automatic
// inference; never deleted except explicit manual-entry removal.
type ReferralRecord struct {
	ID         string `json:"id"`
	ReferrerID string `json:"referrerId,omitempty"`

	ContactName  string `json:"referredContactName,omitempty"`
	ContactEmail string `json:"referredContactEmail,omitempty"`
	ContactPhone string `json:"referredContactPhone,omitempty"`
	// ContactAccountID is set once the referred contact is linked to a
	// known account; it is authoritative over derived identity keys.
	ContactAccountID string `json:"referredContactAccountId,omitempty"`

	Status Status `json:"status"`
	Notes  string `json:"notes,omitempty"`

	// Server-reported signals. ContactHasAccount is authoritative when
	// non-nil; ContactOrderCount positive is sufficient order evidence.
	ContactHasAccount        *bool `json:"referredContactHasAccount,omitempty"`
	ContactOrderCount        int   `json:"referredContactOrderCount,omitempty"`
	ContactEligibleForCredit bool  `json:"referredContactEligibleForCredit,omitempty"`

	PermitExempt bool    `json:"permitExempt,omitempty"`
	PermitFileID *string `json:"permitFileId,omitempty"`

	// Credit issuance happens at most once per record.
	CreditAmount   *decimal.Decimal `json:"creditAmount,omitempty"`
	CreditIssuedAt *time.Time       `json:"creditIssuedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Account is a known doctor account, the match target for lead identity
// resolution.
type Account struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}
