// Package phonenumber normalizes and classifies phone numbers for the OTP
// service (spec.md §4.3 step 1, §2 C6). It is pure string logic: no I/O, no
// external phone-number library, since the accepted format is a single
// regional mobile pattern rather than general E.164 parsing.
package phonenumber

import "regexp"

// mobilePattern matches an Iranian mobile number, optionally prefixed with
// "+98" or "0098", or given in local "09xxxxxxxxx" form.
var mobilePattern = regexp.MustCompile(`^(?:\+98|0098|0)?9\d{9}$`)

var nonDigitExceptPlus = regexp.MustCompile(`[^\d+]`)

// Normalize strips formatting characters and rewrites the number into a
// canonical "+989xxxxxxxxx" form. It does not validate the result; call
// Valid separately.
func Normalize(raw string) string {
	s := nonDigitExceptPlus.ReplaceAllString(raw, "")
	switch {
	case len(s) >= 2 && s[:2] == "00":
		s = "+" + s[2:]
	case len(s) > 0 && s[0] == '0':
		s = "+98" + s[1:]
	case len(s) > 0 && s[0] != '+':
		s = "+98" + s
	}
	return s
}

// Valid reports whether raw, once normalized, is a well-formed mobile number.
func Valid(raw string) bool {
	return mobilePattern.MatchString(raw)
}

var (
	repeatedDigitRun = regexp.MustCompile(`(\d)\1{5,}`)
	wellKnownTestNumbers = map[string]bool{
		"+989123456789": true,
		"+989111111111": true,
		"+989000000000": true,
	}
)

// SuspiciousPattern flags phone numbers with an audit-worthy shape: a run of
// six or more repeated digits, a monotone ascending/descending run of six
// digits, or a well-known test pattern. It never blocks — callers only log
// the finding (spec.md §4.3 step 2).
func SuspiciousPattern(normalized string) (reason string, suspicious bool) {
	if wellKnownTestNumbers[normalized] {
		return "well_known_test_pattern", true
	}
	if repeatedDigitRun.MatchString(normalized) {
		return "repeated_digit_run", true
	}
	if hasMonotoneRun(normalized, 6) {
		return "monotone_sequence", true
	}
	return "", false
}

// hasMonotoneRun reports whether normalized contains a run of n consecutive
// digits that strictly increase or decrease by one at every step.
func hasMonotoneRun(normalized string, n int) bool {
	digits := make([]byte, 0, len(normalized))
	for i := 0; i < len(normalized); i++ {
		c := normalized[i]
		if c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	if len(digits) < n {
		return false
	}
	for start := 0; start+n <= len(digits); start++ {
		ascending, descending := true, true
		for i := start + 1; i < start+n; i++ {
			diff := int(digits[i]) - int(digits[i-1])
			if diff != 1 {
				ascending = false
			}
			if diff != -1 {
				descending = false
			}
		}
		if ascending || descending {
			return true
		}
	}
	return false
}
