package identity

// KeySet is a lookup set of identity keys derived from a known collection
// (accounts or orders). Build once per collection, query per lead.
type KeySet map[string]struct{}

// NewKeySet allocates an empty key set.
func NewKeySet() KeySet {
	return make(KeySet)
}

// AddEmail inserts all alias keys for an email address.
func (s KeySet) AddEmail(raw string) {
	for _, key := range EmailIdentityKeys(raw) {
		s[key] = struct{}{}
	}
}

// AddPhone inserts all variant keys for a phone number.
func (s KeySet) AddPhone(raw string) {
	for _, key := range PhoneIdentityKeys(raw) {
		s[key] = struct{}{}
	}
}

// AddAccountID inserts the key for an account identifier.
func (s KeySet) AddAccountID(raw string) {
	if key, ok := AccountIdentityKey(raw); ok {
		s[key] = struct{}{}
	}
}

// ContainsAny reports whether any of the given keys is in the set.
func (s KeySet) ContainsAny(keys []string) bool {
	for _, key := range keys {
		if _, ok := s[key]; ok {
			return true
		}
	}
	return false
}
