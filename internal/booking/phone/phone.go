// Package phone validates and canonicalizes Russian mobile phone numbers.
package phone

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidPhone is returned for any input outside the accepted formats.
var ErrInvalidPhone = errors.New("invalid phone number")

var (
	reCanonical = regexp.MustCompile(`^\+7\d{10}$`)
	reWithSeven = regexp.MustCompile(`^7\d{10}$`)
	reWithEight = regexp.MustCompile(`^8\d{10}$`)
	reBareTen   = regexp.MustCompile(`^\d{10}$`)
)

// Normalize converts a phone number to the +7XXXXXXXXXX form.
// Accepted inputs (spaces and dashes are ignored):
//   - +7XXXXXXXXXX
//   - 7XXXXXXXXXX
//   - 8XXXXXXXXXX
//   - XXXXXXXXXX
//
// Returns ErrInvalidPhone for anything else.
func Normalize(raw string) (string, error) {
	p := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))

	switch {
	case reCanonical.MatchString(p):
		return p, nil
	case reWithSeven.MatchString(p):
		return "+" + p, nil
	case reWithEight.MatchString(p):
		return "+7" + p[1:], nil
	case reBareTen.MatchString(p):
		return "+7" + p, nil
	}
	return "", ErrInvalidPhone
}

// Digits returns the canonical number without the leading plus, as SMS gateways expect it.
func Digits(canonical string) string {
	return strings.TrimPrefix(canonical, "+")
}
