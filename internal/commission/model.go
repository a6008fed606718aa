// Package commission projects the merged order set into per-recipient
// commission ledger rows. Rows are recomputed per query window and never
// persisted or mutated in place.
package commission

import (
	"github.com/shopspring/decimal"
)

// Role of a commission recipient.
type Role string

const (
	RoleDoctor   Role = "doctor"
	RoleSalesRep Role = "sales_rep"
	RoleAdmin    Role = "admin"
)

// Recipient is a person commissions are computed for.
type Recipient struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`
}

// Config carries the commission business rules.
type Config struct {
	// WholesaleRate and RetailRate apply to the respective bases.
	WholesaleRate decimal.Decimal
	RetailRate    decimal.Decimal
	// BonusRate and BonusMonthlyCap drive the house bonus, which applies
	// only to BonusRecipientID. Capping is strictly per calendar month.
	BonusRate        decimal.Decimal
	BonusMonthlyCap  decimal.Decimal
	BonusRecipientID string
}

// DefaultConfig returns the standard split: wholesale 10%, retail 20%.
func DefaultConfig() Config {
	return Config{
		WholesaleRate: decimal.NewFromFloat(0.10),
		RetailRate:    decimal.NewFromFloat(0.20),
		BonusRate:     decimal.NewFromFloat(0.05),
	}
}

// Bucket accumulates order count and commission base for one pricing mode
// and attribution.
type Bucket struct {
	Count int             `json:"count"`
	Base  decimal.Decimal `json:"base"`
}

func (b *Bucket) add(base decimal.Decimal) {
	b.Count++
	b.Base = b.Base.Add(base)
}

// MonthlyBonus is the audit record for one calendar month of the house
// bonus: the base it derives from, the uncapped amount, and what was
// actually paid after the cap.
type MonthlyBonus struct {
	Month string          `json:"month"`
	Base  decimal.Decimal `json:"base"`
	Raw   decimal.Decimal `json:"raw"`
	Paid  decimal.Decimal `json:"paid"`
	Cap   decimal.Decimal `json:"cap"`
}

// LedgerRow is the computed commission statement for one recipient over
// the query window.
type LedgerRow struct {
	RecipientID   string `json:"recipientId"`
	RecipientName string `json:"recipientName"`
	Role          Role   `json:"role"`

	PersonalWholesale Bucket `json:"personalWholesale"`
	PersonalRetail    Bucket `json:"personalRetail"`
	SalesWholesale    Bucket `json:"salesWholesale"`
	SalesRetail       Bucket `json:"salesRetail"`

	WholesaleCommission decimal.Decimal `json:"wholesaleCommission"`
	RetailCommission    decimal.Decimal `json:"retailCommission"`
	TotalCommission     decimal.Decimal `json:"totalCommission"`

	Bonus          decimal.Decimal `json:"bonus"`
	MonthlyBonuses []MonthlyBonus  `json:"monthlyBonuses,omitempty"`
}

// WholesaleBase is the combined wholesale base across attributions.
func (r LedgerRow) WholesaleBase() decimal.Decimal {
	return r.PersonalWholesale.Base.Add(r.SalesWholesale.Base)
}

// RetailBase is the combined retail base across attributions.
func (r LedgerRow) RetailBase() decimal.Decimal {
	return r.PersonalRetail.Base.Add(r.SalesRetail.Base)
}
