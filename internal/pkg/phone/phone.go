// Package phone rewrites locally typed phone numbers into the +<country><number>
// form used as an OTP identity. It applies a domestic dialing policy, it is not a
// general E.164 validator.
package phone

import (
	"errors"
	"regexp"
	"strings"
)

// DefaultCountryCode is assumed for numbers typed without one.
const DefaultCountryCode = "62"

var (
	ErrEmpty         = errors.New("phone number is required")
	ErrInvalidFormat = errors.New("Invalid phone number format")

	separators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
	e164       = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)
)

// Normalize converts raw into +<countryCode><subscriber>.
//
//	"0812-3456-789"  -> "+628123456789"
//	"628123456789"   -> "+628123456789"
//	"8123456789"     -> "+628123456789"
//	"+14155550100"   -> "+14155550100"
func Normalize(raw, countryCode string) (string, error) {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	s := separators.Replace(strings.TrimSpace(raw))
	if s == "" {
		return "", ErrEmpty
	}

	switch {
	case strings.HasPrefix(s, "+"):
	case strings.HasPrefix(s, "08"):
		s = "+" + countryCode + s[1:]
	case strings.HasPrefix(s, countryCode):
		s = "+" + s
	default:
		s = "+" + countryCode + strings.TrimLeft(s, "0")
	}

	if !e164.MatchString(s) {
		return "", ErrInvalidFormat
	}
	return s, nil
}
