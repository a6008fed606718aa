package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"plain", "Alice@Example.com", "alice@example.com", true},
		{"mailto prefix", "mailto:bob@site.com", "bob@site.com", true},
		{"angle brackets", "Bob Smith <bob@site.com>", "bob@site.com", true},
		{"embedded whitespace", " carol @ example.com ", "carol@example.com", true},
		{"missing at", "not-an-email", "", false},
		{"empty", "   ", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeEmail(tc.raw)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEmailIdentityKeysGmailAliases(t *testing.T) {
	intersects := func(a, b []string) bool {
		set := make(map[string]struct{}, len(a))
		for _, k := range a {
			set[k] = struct{}{}
		}
		for _, k := range b {
			if _, ok := set[k]; ok {
				return true
			}
		}
		return false
	}

	plussed := EmailIdentityKeys("alice+shop@gmail.com")
	plain := EmailIdentityKeys("alice@gmail.com")
	dotted := EmailIdentityKeys("a.l.i.c.e@gmail.com")

	require.NotEmpty(t, plussed)
	assert.True(t, intersects(plussed, plain), "plus alias should intersect plain")
	assert.True(t, intersects(dotted, plain), "dotted alias should intersect plain")
	assert.True(t, intersects(plussed, dotted), "plus and dotted aliases should intersect")
}

func TestEmailIdentityKeysPlusOutsideGmail(t *testing.T) {
	keys := EmailIdentityKeys("bob+x@site.com")
	assert.Contains(t, keys, "email:bob+x@site.com")
	assert.Contains(t, keys, "email:bob@site.com")
	// Dot folding is gmail-specific.
	keys = EmailIdentityKeys("b.ob@site.com")
	assert.NotContains(t, keys, "email:bob@site.com")
}

func TestPhoneIdentityKeys(t *testing.T) {
	keys := PhoneIdentityKeys("+1 (555) 867-5309")
	assert.Contains(t, keys, "phone:+1 (555) 867-5309")
	assert.Contains(t, keys, "phone:15558675309")
	assert.Contains(t, keys, "phone:5558675309")

	keys = PhoneIdentityKeys("5558675309")
	assert.Contains(t, keys, "phone:5558675309")
	assert.Len(t, keys, 1)

	assert.Nil(t, PhoneIdentityKeys("  "))
}

func TestAccountIdentityKey(t *testing.T) {
	key, ok := AccountIdentityKey(" DOC-42 ")
	require.True(t, ok)
	assert.Equal(t, "acct:doc-42", key)

	_, ok = AccountIdentityKey("")
	assert.False(t, ok)
}
