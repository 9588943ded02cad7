package gateway

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")

	centsPattern   = regexp.MustCompile(`^\d+$`)
	decimalPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)
	brlDotDecimal  = regexp.MustCompile(`^\d+\.\d{1,2}$`)
)

// FromCents converts an integer amount in centavos ("9990") to reais (99.90).
func FromCents(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !centsPattern.MatchString(s) {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Shift(-2), nil
}

// FromBRL parses locale formatted strings such as "R$ 1.234,56", "1234,56" or "99.90".
func FromBRL(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, s)

	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		if strings.Count(s, ",") > 1 {
			return decimal.Zero, ErrInvalidAmount
		}
		s = strings.Replace(s, ",", ".", 1)
	case brlDotDecimal.MatchString(s):
		// "99.90": a lone dot followed by centavos is a decimal point
	default:
		s = strings.ReplaceAll(s, ".", "")
	}

	if !decimalPattern.MatchString(s) {
		return decimal.Zero, ErrInvalidAmount
	}
	return exact(s)
}

// FromNumber keeps the JSON literal as is, avoiding float64 rounding.
func FromNumber(n json.Number) (decimal.Decimal, error) {
	s := strings.TrimSpace(n.String())
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	return exact(s)
}

func exact(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.Equal(d.Round(2)) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
