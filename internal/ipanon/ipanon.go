// Package ipanon masks client IP addresses before they are persisted.
// The masking is applied at write time and is irreversible.
package ipanon

import "net/netip"

// Anonymize zeroes the last octet of an IPv4 address and the last 64 bits
// of an IPv6 address. Unparseable input is returned unchanged so a broken
// proxy header never blocks a submission.
func Anonymize(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ip
	}

	if addr.Is4() || addr.Is4In6() {
		b := addr.As4()
		b[3] = 0
		return netip.AddrFrom4(b).String()
	}

	b := addr.As16()
	for i := 8; i < 16; i++ {
		b[i] = 0
	}
	return netip.AddrFrom16(b).String()
}
