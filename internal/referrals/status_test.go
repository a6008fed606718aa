package referrals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veloramed/velora/internal/shared"
)

func permitted() ReferralRecord {
	file := "permit-1.pdf"
	return ReferralRecord{Status: StatusContacted, PermitFileID: &file}
}

func TestForwardChain(t *testing.T) {
	rec := ReferralRecord{Status: StatusPending}
	assert.NoError(t, CanTransition(rec, StatusContacted))

	rec = permitted()
	assert.NoError(t, CanTransition(rec, StatusVerified))

	rec.Status = StatusVerified
	assert.NoError(t, CanTransition(rec, StatusAccountCreated))

	rec.Status = StatusAccountCreated
	assert.NoError(t, CanTransition(rec, StatusConverted))
}

func TestForwardSkipsRejected(t *testing.T) {
	rec := ReferralRecord{Status: StatusPending, PermitExempt: true}
	err := CanTransition(rec, StatusVerified)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	err = CanTransition(rec, StatusConverted)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestBackwardAlwaysAllowed(t *testing.T) {
	rec := ReferralRecord{Status: StatusConverted}
	for _, target := range []Status{StatusPending, StatusContacted, StatusVerified, StatusAccountCreated} {
		assert.NoError(t, CanTransition(rec, target), "converted -> %s", target)
	}
}

func TestNurtureReachableFromAnywhere(t *testing.T) {
	for _, from := range []Status{StatusPending, StatusContactForm, StatusContacted, StatusVerified, StatusAccountCreated, StatusConverted} {
		assert.NoError(t, CanTransition(ReferralRecord{Status: from}, StatusNurture), "%s -> nurture", from)
	}
	// Leaving nurture is a manual correction, permitted but never automatic.
	assert.NoError(t, CanTransition(ReferralRecord{Status: StatusNurture}, StatusContacted))
}

func TestPermitGuardOnVerification(t *testing.T) {
	rec := ReferralRecord{Status: StatusContacted}
	assert.ErrorIs(t, CanTransition(rec, StatusVerified), shared.ErrPermitRequired)

	rec.PermitExempt = true
	assert.NoError(t, CanTransition(rec, StatusVerified))

	rec.PermitExempt = false
	empty := ""
	rec.PermitFileID = &empty
	assert.ErrorIs(t, CanTransition(rec, StatusVerified), shared.ErrPermitRequired)

	file := "permit.pdf"
	rec.PermitFileID = &file
	assert.NoError(t, CanTransition(rec, StatusVerified))
}

func TestContactFormBehavesAsPending(t *testing.T) {
	rec := ReferralRecord{Status: StatusContactForm}
	assert.NoError(t, CanTransition(rec, StatusContacted))
	assert.ErrorIs(t, CanTransition(rec, StatusConverted), shared.ErrInvalidTransition)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("contact_form")
	require.NoError(t, err)
	assert.Equal(t, StatusContactForm, s)

	_, err = ParseStatus("archived")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestEligibleForCredit(t *testing.T) {
	rec := ReferralRecord{Status: StatusConverted, ContactEligibleForCredit: true}
	assert.True(t, rec.EligibleForCredit())

	// Converted but the server-reported flag is false: not creditable.
	rec.ContactEligibleForCredit = false
	assert.False(t, rec.EligibleForCredit())

	rec.ContactEligibleForCredit = true
	rec.Status = StatusAccountCreated
	assert.False(t, rec.EligibleForCredit())

	rec.Status = StatusConverted
	now := time.Now()
	rec.CreditIssuedAt = &now
	assert.False(t, rec.EligibleForCredit(), "credit is at-most-once")
}

func TestActiveBucketing(t *testing.T) {
	rec := ReferralRecord{Status: StatusConverted, ContactEligibleForCredit: true}
	assert.True(t, rec.Active(), "converted stays active until credit is issued")

	now := time.Now()
	rec.CreditIssuedAt = &now
	assert.False(t, rec.Active())

	rec = ReferralRecord{Status: StatusNurture}
	assert.False(t, rec.Active())
}
