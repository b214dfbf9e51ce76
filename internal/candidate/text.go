package candidate

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold prepares free text for case-insensitive comparison: trimmed, NFC composed, case folded.
func Fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return cases.Fold().String(norm.NFC.String(s))
}

// LeadingInt reads the integer prefix of s the way user entered numbers usually look
// ("5", " 12 years", "-3", "7.5"). ok is false when s does not start with digits.
// Prefixes too large for an int saturate at math.MaxInt.
func LeadingInt(s string) (n int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	sign := 1
	switch s[0] {
	case '-':
		sign = -1
		s = s[1:]
	case '+':
		s = s[1:]
	}

	digits := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		digits++
		if n > (math.MaxInt-9)/10 {
			n = math.MaxInt
			continue
		}
		n = n*10 + int(r-'0')
	}

	if digits == 0 {
		return 0, false
	}
	return sign * n, true
}
