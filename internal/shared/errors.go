package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness constraint was violated.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidation indicates a request failed validation.
	ErrValidation = errors.New("validation failed")
	// ErrCreditAlreadyIssued occurs when a referral credit is issued a second time.
	ErrCreditAlreadyIssued = errors.New("referral credit already issued")
	// ErrCreditNotEligible occurs when a referral does not qualify for credit yet.
	ErrCreditNotEligible = errors.New("referral not eligible for credit")
	// ErrInvalidTransition occurs on a referral status change the table forbids.
	ErrInvalidTransition = errors.New("referral status transition invalid")
	// ErrPermitRequired occurs when verification is attempted without a reseller permit.
	ErrPermitRequired = errors.New("reseller permit required")
	// ErrStaleRefresh occurs when a refresh result is superseded by a newer generation.
	ErrStaleRefresh = errors.New("refresh superseded by newer generation")
	// ErrUpstream indicates a retryable failure talking to a source system.
	ErrUpstream = errors.New("upstream fetch failed")
)
