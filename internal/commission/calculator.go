package commission

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/veloramed/velora/internal/identity"
	"github.com/veloramed/velora/internal/orders"
)

const monthKeyLayout = "2006-01"

// Compute walks the merged order set for [periodStart, periodEnd) and
// returns one ledger row per recipient. The function is pure: it never
// mutates its inputs and is reproducible for a given order set and window.
func Compute(orderSet []orders.Order, recipients []Recipient, periodStart, periodEnd time.Time, cfg Config) []LedgerRow {
	rows := make([]LedgerRow, 0, len(recipients))
	for _, rec := range recipients {
		rows = append(rows, computeRow(orderSet, rec, periodStart, periodEnd, cfg))
	}
	return rows
}

func computeRow(orderSet []orders.Order, rec Recipient, periodStart, periodEnd time.Time, cfg Config) LedgerRow {
	row := LedgerRow{
		RecipientID:   rec.ID,
		RecipientName: rec.Name,
		Role:          rec.Role,
	}
	monthlyBase := make(map[string]decimal.Decimal)

	for _, o := range orderSet {
		if !countable(o, periodStart, periodEnd) {
			continue
		}
		base := o.CommissionBase()
		wholesale := isWholesale(o)

		switch {
		case MatchesRecipient(o, rec):
			if wholesale {
				row.PersonalWholesale.add(base)
			} else {
				row.PersonalRetail.add(base)
			}
		case rec.Role == RoleSalesRep || rec.Role == RoleAdmin:
			if wholesale {
				row.SalesWholesale.add(base)
			} else {
				row.SalesRetail.add(base)
			}
			monthlyBase[o.CreatedAt.Format(monthKeyLayout)] = monthlyBase[o.CreatedAt.Format(monthKeyLayout)].Add(base)
		}
	}

	row.WholesaleCommission = row.WholesaleBase().Mul(cfg.WholesaleRate).Round(2)
	row.RetailCommission = row.RetailBase().Mul(cfg.RetailRate).Round(2)
	row.TotalCommission = row.WholesaleCommission.Add(row.RetailCommission)

	if cfg.BonusRecipientID != "" && rec.ID == cfg.BonusRecipientID {
		row.MonthlyBonuses = monthlyBonuses(monthlyBase, cfg)
		for _, mb := range row.MonthlyBonuses {
			row.Bonus = row.Bonus.Add(mb.Paid)
		}
	}
	return row
}

func countable(o orders.Order, periodStart, periodEnd time.Time) bool {
	if !o.CountsAsRevenue() {
		return false
	}
	if o.CreatedAt == nil {
		return false
	}
	t := *o.CreatedAt
	return !t.Before(periodStart) && t.Before(periodEnd)
}

// isWholesale classifies an order by its pricing-mode tag. Missing or
// unrecognized tags default to retail, the conservative assumption.
func isWholesale(o orders.Order) bool {
	return strings.EqualFold(strings.TrimSpace(o.PricingMode), "wholesale")
}

// MatchesRecipient decides whether the order's doctor is the recipient.
// Precedence: id, then email, then display name. An id comparison is
// decisive whenever both sides carry one; email comparison uses the
// identity alias keys and is decisive when both sides carry an address.
// Bare name matching is a last resort with no tie-break and can
// legitimately collide for two doctors sharing a display name.
func MatchesRecipient(o orders.Order, rec Recipient) bool {
	if o.DoctorID != "" && rec.ID != "" {
		return strings.EqualFold(strings.TrimSpace(o.DoctorID), strings.TrimSpace(rec.ID))
	}
	if o.DoctorEmail != "" && rec.Email != "" {
		set := identity.NewKeySet()
		set.AddEmail(rec.Email)
		return set.ContainsAny(identity.EmailIdentityKeys(o.DoctorEmail))
	}
	if o.DoctorName != "" && rec.Name != "" {
		return strings.EqualFold(strings.TrimSpace(o.DoctorName), strings.TrimSpace(rec.Name))
	}
	return false
}

// monthlyBonuses applies the bonus rate per calendar month and clamps
// each month to the cap independently. A flush month can never offset a
// capped one.
func monthlyBonuses(monthlyBase map[string]decimal.Decimal, cfg Config) []MonthlyBonus {
	months := make([]string, 0, len(monthlyBase))
	for month := range monthlyBase {
		months = append(months, month)
	}
	sort.Strings(months)

	out := make([]MonthlyBonus, 0, len(months))
	for _, month := range months {
		base := monthlyBase[month]
		raw := base.Mul(cfg.BonusRate).Round(2)
		paid := raw
		if cfg.BonusMonthlyCap.IsPositive() && paid.GreaterThan(cfg.BonusMonthlyCap) {
			paid = cfg.BonusMonthlyCap
		}
		out = append(out, MonthlyBonus{
			Month: month,
			Base:  base,
			Raw:   raw,
			Paid:  paid,
			Cap:   cfg.BonusMonthlyCap,
		})
	}
	return out
}
