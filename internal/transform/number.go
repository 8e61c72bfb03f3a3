package transform

import (
	"math"
	"strconv"
	"strings"
)

// SanitizeNumber strips everything but digits from free-text input. Negative
// signs and decimal points are dropped on purpose: amounts are entered as
// whole units.
func SanitizeNumber(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatMoney renders a digit string with thousands separators for display.
// The stored value stays unformatted; this is presentation only.
func FormatMoney(s string) string {
	digits := SanitizeNumber(s)
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return "0"
	}

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// numberToText renders a backend numeric value as editable text. Unusable
// values (NaN, infinities, negatives) coerce to "0" so the editor always
// starts from something valid.
func numberToText(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
