// Package testmail classifies email addresses and phone numbers against
// Clerk's test-mode conventions.
//
// Clerk special-cases identifiers carrying a test marker: no real
// verification message is sent, and a fixed magic code is accepted in its
// place. The predicates here decide whether an identifier will trigger that
// bypass. They never error; anything that does not match classifies false.
package testmail

import "strings"

// Marker is the plus-addressing tag Clerk recognizes in the local part of a
// test email address. Matching is case-sensitive.
const Marker = "+clerk_test"

// MagicCode is the verification code Clerk accepts for test email addresses
// in place of a real one-time code.
const MagicCode = "424242"

// MagicPhoneCode is the verification code Clerk accepts for test phone
// numbers.
const MagicPhoneCode = "424242"

// IsTestEmail reports whether addr will trigger Clerk's verification bypass.
//
// The local part (before the last '@') must contain the contiguous marker
// "+clerk_test". Additional characters after the marker are allowed; Clerk
// ignores them but they are useful for tagging roles, e.g.
// "user+clerk_test_admin@example.com". Malformed addresses classify false
// rather than erroring.
func IsTestEmail(addr string) bool {
	at := strings.LastIndexByte(addr, '@')
	if at <= 0 {
		return false
	}
	return strings.Contains(addr[:at], Marker)
}

// Role extracts the role tag from a test email address of the form
// "local+clerk_test_<role>@domain". It returns "" when addr is not a test
// email or carries no role suffix. The tag is local bookkeeping only; Clerk
// ignores everything after the marker.
func Role(addr string) string {
	at := strings.LastIndexByte(addr, '@')
	if at <= 0 {
		return ""
	}
	local := addr[:at]

	i := strings.Index(local, Marker)
	if i < 0 {
		return ""
	}

	rest := local[i+len(Marker):]
	if !strings.HasPrefix(rest, "_") {
		return ""
	}
	return rest[1:]
}

// IsTestPhone reports whether number falls in Clerk's fictional test range:
// a North American number of the form +1 (XXX) 555-01XX. Formatting
// characters (spaces, dashes, dots, parentheses) are ignored.
func IsTestPhone(number string) bool {
	var digits []byte
	for i := 0; i < len(number); i++ {
		c := number[i]
		switch {
		case c >= '0' && c <= '9':
			digits = append(digits, c)
		case c == '+' && i == 0:
			// leading country-code prefix
		case c == ' ' || c == '-' || c == '.' || c == '(' || c == ')':
			// formatting
		default:
			return false
		}
	}

	// 1 XXX 555 01XX, with the country code optional.
	switch len(digits) {
	case 11:
		if digits[0] != '1' {
			return false
		}
		digits = digits[1:]
	case 10:
	default:
		return false
	}

	return string(digits[3:8]) == "55501"
}
