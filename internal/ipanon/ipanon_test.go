package ipanon_test

import (
	"testing"

	"github.com/markusthomas/wiremagnet/internal/ipanon"
)

func TestAnonymize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"ipv4 last octet zeroed", "203.0.113.77", "203.0.113.0"},
		{"ipv4 already zero", "10.0.0.0", "10.0.0.0"},
		{"ipv4 mapped ipv6", "::ffff:203.0.113.77", "203.0.113.0"},
		{"ipv6 interface bits zeroed", "2001:db8:85a3:8d3:1319:8a2e:370:7348", "2001:db8:85a3:8d3::"},
		{"ipv6 loopback", "::1", "::"},
		{"unparseable passes through", "not-an-ip", "not-an-ip"},
		{"empty passes through", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ipanon.Anonymize(tc.in); got != tc.want {
				t.Errorf("Anonymize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
