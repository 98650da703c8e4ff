// Package isbn validates and normalizes ISBN-10 and ISBN-13 identifiers.
// The catalog stores every ISBN in its 13-digit form.
package isbn

import (
	"strings"
)

// Clean strips everything except digits and the ISBN-10 check character X
func Clean(s string) string {
	var b strings.Builder
	for _, c := range strings.TrimSpace(s) {
		switch {
		case c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == 'x' || c == 'X':
			b.WriteRune('X')
		}
	}
	return b.String()
}

// IsValid10 reports whether s is a valid ISBN-10 (check digit may be X)
func IsValid10(s string) bool {
	if len(s) != 10 {
		return false
	}

	total := 0
	for i := 0; i < 9; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		total += int(s[i]-'0') * (10 - i)
	}

	switch last := s[9]; {
	case last == 'X' || last == 'x':
		total += 10
	case last >= '0' && last <= '9':
		total += int(last - '0')
	default:
		return false
	}

	return total%11 == 0
}

// IsValid13 reports whether s is a valid ISBN-13
func IsValid13(s string) bool {
	if len(s) != 13 {
		return false
	}
	for i := 0; i < 13; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return checkDigit13(s[:12]) == s[12]
}

// checkDigit13 computes the ISBN-13 check digit for a 12-digit prefix
func checkDigit13(prefix string) byte {
	total := 0
	for i := 0; i < 12; i++ {
		d := int(prefix[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		total += d
	}
	return byte('0' + (10-total%10)%10)
}

// Convert10To13 converts a valid ISBN-10 to its 978-prefixed ISBN-13 form
func Convert10To13(isbn10 string) (string, bool) {
	if !IsValid10(isbn10) {
		return "", false
	}
	prefix := "978" + isbn10[:9]
	return prefix + string(checkDigit13(prefix)), true
}

// Normalize validates s and returns the ISBN-13 form.
// Hyphens and spaces are ignored; ISBN-10 input is converted.
func Normalize(s string) (string, bool) {
	cleaned := Clean(s)
	switch len(cleaned) {
	case 10:
		return Convert10To13(cleaned)
	case 13:
		if IsValid13(cleaned) {
			return cleaned, true
		}
	}
	return "", false
}
