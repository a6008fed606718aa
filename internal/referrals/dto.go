package referrals

// CreateReferralRequest accepts a rep-created referral or an inbound
// contact-form submission.
type CreateReferralRequest struct {
	ReferrerID   string `json:"referrerId,omitempty"`
	ContactName  string `json:"contactName" validate:"required,max=200"`
	ContactEmail string `json:"contactEmail,omitempty" validate:"omitempty,email"`
	ContactPhone string `json:"contactPhone,omitempty" validate:"omitempty,max=40"`
	Notes        string `json:"notes,omitempty" validate:"max=2000"`
	// ContactForm marks inbound web submissions.
	ContactForm bool `json:"contactForm,omitempty"`
}

// TransitionRequest moves a referral to a target status.
type TransitionRequest struct {
	Target string `json:"target" validate:"required"`
}
