// Package referrals drives the referral lifecycle: lead status
// transitions, credit eligibility, and active/historic bucketing.
package referrals

import (
	"fmt"

	"github.com/veloramed/velora/internal/shared"
)

// Status is a referral lifecycle state. The forward chain is
// pending → contacted → verified → account_created → converted, with
// nurture as a terminal side-state reachable from anywhere. contact_form
// is a synonym for pending used only for inbound web submissions.
type Status string

const (
	StatusPending        Status = "pending"
	StatusContactForm    Status = "contact_form"
	StatusContacted      Status = "contacted"
	StatusVerified       Status = "verified"
	StatusAccountCreated Status = "account_created"
	StatusConverted      Status = "converted"
	StatusNurture        Status = "nurture"
)

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if _, ok := forwardRank[s.Canonical()]; !ok && s.Canonical() != StatusNurture {
		return "", fmt.Errorf("%w: unknown status %q", shared.ErrValidation, raw)
	}
	return s, nil
}

// Canonical folds the contact_form synonym into pending for every
// transition and guard decision; the stored value keeps the provenance.
func (s Status) Canonical() Status {
	if s == StatusContactForm {
		return StatusPending
	}
	return s
}

var forwardRank = map[Status]int{
	StatusPending:        0,
	StatusContacted:      1,
	StatusVerified:       2,
	StatusAccountCreated: 3,
	StatusConverted:      4,
}

// transitions is the explicit allowed-from → allowed-to table for forward
// movement. Backward transitions correct rep mistakes and are always
// permitted; nurture is reachable from every state and never exited
// automatically.
var transitions = map[Status][]Status{
	StatusPending:        {StatusContacted},
	StatusContacted:      {StatusVerified},
	StatusVerified:       {StatusAccountCreated},
	StatusAccountCreated: {StatusConverted},
	StatusConverted:      {},
}

// PermitSatisfied reports whether the reseller-permit requirement holds:
// either marked exempt or a permit file has been uploaded. The engine
// re-checks this itself; client-side gating is not trusted.
func (r ReferralRecord) PermitSatisfied() bool {
	return r.PermitExempt || (r.PermitFileID != nil && *r.PermitFileID != "")
}

// CanTransition validates a status change for the given record.
func CanTransition(rec ReferralRecord, target Status) error {
	from := rec.Status.Canonical()
	to := target.Canonical()

	if from == to {
		return nil
	}
	if to == StatusNurture {
		return nil
	}

	fromRank, fromKnown := forwardRank[from]
	toRank, toKnown := forwardRank[to]
	if !toKnown {
		return fmt.Errorf("%w: %s -> %s", shared.ErrInvalidTransition, rec.Status, target)
	}

	// Leaving nurture, or moving to any earlier state, is a manual
	// correction and always allowed.
	if !fromKnown || toRank < fromRank {
		return nil
	}

	allowed := false
	for _, next := range transitions[from] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s -> %s", shared.ErrInvalidTransition, rec.Status, target)
	}
	if to == StatusVerified && !rec.PermitSatisfied() {
		return shared.ErrPermitRequired
	}
	return nil
}

// EligibleForCredit reports whether the referral can be issued its
// fixed-amount credit right now: converted, the server-reported
// eligibility flag is set, and no credit has been issued yet.
func (r ReferralRecord) EligibleForCredit() bool {
	return r.Status.Canonical() == StatusConverted &&
		r.ContactEligibleForCredit &&
		r.CreditIssuedAt == nil
}

// Active reports whether the referral still belongs in the active-prospect
// view. Credit issuance or parking in nurture moves it to historic; a
// converted lead stays active until a human actually issues the credit.
func (r ReferralRecord) Active() bool {
	return r.CreditIssuedAt == nil && r.Status.Canonical() != StatusNurture
}
