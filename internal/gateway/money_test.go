package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromCents(t *testing.T) {
	d, err := FromCents("9990")
	require.NoError(t, err)
	assert.Equal(t, "99.9", d.String())

	d, err = FromCents("5")
	require.NoError(t, err)
	assert.Equal(t, "0.05", d.String())

	for _, bad := range []string{"", "99.90", "-100", "12a"} {
		_, err := FromCents(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

func TestFromBRL(t *testing.T) {
	cases := map[string]string{
		"R$ 1.234,56":    "1234.56",
		"R$ 97,00":       "97",
		"R$\u00a0197,90": "197.9",
		"1234,5":         "1234.5",
		"99.90":          "99.9",
		"1.234.567":      "1234567",
		"R$ 10":          "10",
	}
	for in, want := range cases {
		d, err := FromBRL(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, d.String(), in)
	}

	for _, bad := range []string{"", "R$", "abc", "1,2,3", "-5,00", "R$ 1,999"} {
		_, err := FromBRL(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

func TestFromNumberDoesNotRound(t *testing.T) {
	d, err := FromNumber(json.Number("99.90"))
	require.NoError(t, err)
	assert.Equal(t, "99.9", d.String())

	_, err = FromNumber(json.Number("10.005"))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = FromNumber(json.Number("-1"))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = FromNumber("")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
