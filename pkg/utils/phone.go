package utils

import (
	"errors"
	"strings"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone reduces a user-typed number to E.164 ("+" and 8-15 digits).
// Ten-digit numbers without a country code are taken as North American (+1).
func NormalizePhone(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidPhone
	}
	plus := strings.HasPrefix(s, "+")

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return "", ErrInvalidPhone
		}
	}
	digits := b.String()

	if !plus {
		switch {
		case len(digits) == 10:
			digits = "1" + digits
		case len(digits) == 11 && digits[0] == '1':
		default:
			return "", ErrInvalidPhone
		}
	}
	if len(digits) < 8 || len(digits) > 15 || digits[0] == '0' {
		return "", ErrInvalidPhone
	}
	return "+" + digits, nil
}
