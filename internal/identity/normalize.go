// Package identity canonicalizes contact details into comparable keys and
// answers "is this the same person" across referrals, accounts, and orders.
//
// Matching is deterministic and exact-match only. Ambiguous input produces
// fewer keys, never a guess: a false positive attributes revenue or credit
// to the wrong person, a false negative only delays a rep clicking a button.
package identity

import "strings"

// Key kinds. Every key is prefixed so an email can never collide with a
// phone number that happens to contain the same characters.
const (
	kindEmail   = "email:"
	kindPhone   = "phone:"
	kindAccount = "acct:"
)

// NormalizeEmail canonicalizes a raw email string. It trims whitespace,
// strips a mailto: prefix and angle brackets, lowercases, and removes
// embedded whitespace. ok is false when no usable address remains.
func NormalizeEmail(raw string) (string, bool) {
	email := strings.TrimSpace(strings.ToLower(raw))
	email = strings.TrimPrefix(email, "mailto:")
	if i := strings.IndexByte(email, '<'); i >= 0 {
		if j := strings.IndexByte(email[i:], '>'); j > 0 {
			email = email[i+1 : i+j]
		}
	}
	email = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, email)
	if email == "" || !strings.Contains(email, "@") {
		return "", false
	}
	return email, true
}

// EmailIdentityKeys derives the lookup keys for an email address. Beyond
// the canonical form it emits provider-documented aliases: the local part
// with a +suffix removed, and for gmail.com/googlemail.com the local part
// with dots removed. Users rely on both equivalences in the wild.
func EmailIdentityKeys(raw string) []string {
	email, ok := NormalizeEmail(raw)
	if !ok {
		return nil
	}
	keys := []string{kindEmail + email}
	at := strings.LastIndexByte(email, '@')
	local, domain := email[:at], email[at+1:]

	if plus := strings.IndexByte(local, '+'); plus > 0 {
		keys = appendUnique(keys, kindEmail+local[:plus]+"@"+domain)
	}
	if domain == "gmail.com" || domain == "googlemail.com" {
		bare := local
		if plus := strings.IndexByte(bare, '+'); plus > 0 {
			bare = bare[:plus]
		}
		undotted := strings.ReplaceAll(bare, ".", "")
		if undotted != "" {
			keys = appendUnique(keys, kindEmail+undotted+"@"+domain)
		}
	}
	return keys
}

// PhoneIdentityKeys derives lookup keys for a phone number: the folded raw
// string and the digit-only form, plus the 10-digit variant when the digits
// are a US number with a leading country code. Extensions and international
// prefixes are deliberately not interpreted; an ambiguous number simply
// fails to match.
func PhoneIdentityKeys(raw string) []string {
	folded := strings.ToLower(strings.TrimSpace(raw))
	if folded == "" {
		return nil
	}
	keys := []string{kindPhone + folded}

	var digits strings.Builder
	for _, r := range folded {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if d != "" {
		keys = appendUnique(keys, kindPhone+d)
		if len(d) == 11 && d[0] == '1' {
			keys = appendUnique(keys, kindPhone+d[1:])
		}
	}
	return keys
}

// AccountIdentityKey derives the lookup key for an account identifier.
// The underlying account id stays authoritative; this key is only for
// set membership.
func AccountIdentityKey(raw string) (string, bool) {
	id := strings.ToLower(strings.TrimSpace(raw))
	if id == "" {
		return "", false
	}
	return kindAccount + id, true
}

func appendUnique(keys []string, key string) []string {
	for _, existing := range keys {
		if existing == key {
			return keys
		}
	}
	return append(keys, key)
}
