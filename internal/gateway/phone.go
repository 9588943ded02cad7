package gateway

import (
	"errors"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "BR"

var nonDigits = regexp.MustCompile(`\D`)

var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone reduces any representation of a number to the digits of its
// E.164 form without the leading "+". National numbers are read as Brazilian.
// Only valid numbers are accepted, so the result always normalizes to itself.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	digits := nonDigits.ReplaceAllString(raw, "")
	if strings.HasPrefix(digits, "00") {
		digits = digits[2:]
		raw = "+" + digits
	}
	if len(digits) < 8 {
		return "", ErrInvalidPhone
	}

	if strings.HasPrefix(raw, "+") {
		if num, ok := parseValid("+" + digits); ok {
			return format(num), nil
		}
		return "", ErrInvalidPhone
	}

	// já normalizado: 55 + DDD + número
	if strings.HasPrefix(digits, "55") {
		if num, ok := parseValid("+" + digits); ok {
			return format(num), nil
		}
	}
	if num, ok := parseValid(digits); ok {
		return format(num), nil
	}
	// digits may already be a normalized foreign number
	if num, ok := parseValid("+" + digits); ok {
		return format(num), nil
	}
	return "", ErrInvalidPhone
}

func parseValid(s string) (*phonenumbers.PhoneNumber, bool) {
	num, err := phonenumbers.Parse(s, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return nil, false
	}
	return num, true
}

func format(num *phonenumbers.PhoneNumber) string {
	return strings.TrimPrefix(phonenumbers.Format(num, phonenumbers.E164), "+")
}
