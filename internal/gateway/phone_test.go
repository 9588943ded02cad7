package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhoneConverges(t *testing.T) {
	raws := []string{
		"11987654321",
		"+55 11 98765-4321",
		"(11) 98765-4321",
		"5511987654321",
		"+5511987654321",
		"0055 11 98765 4321",
	}

	for _, raw := range raws {
		t.Run(raw, func(t *testing.T) {
			got, err := NormalizePhone(raw)
			require.NoError(t, err)
			assert.Equal(t, "5511987654321", got)
		})
	}
}

func TestNormalizePhoneIsIdempotent(t *testing.T) {
	raws := []string{
		"11987654321",
		"+55 (21) 3555-1234",
		"5511999999999",
		"+1 (415) 555-2671",
		"+351 912 345 678",
		"(55) 99123-4567",
		"5555991234567",
		"0055 11 98765 4321",
	}

	for _, raw := range raws {
		once, err := NormalizePhone(raw)
		require.NoError(t, err, raw)

		twice, err := NormalizePhone(once)
		require.NoError(t, err, once)
		assert.Equal(t, once, twice, "normalize(normalize(%q))", raw)
	}
}

func TestNormalizePhoneKeepsScenarioNumber(t *testing.T) {
	got, err := NormalizePhone("5511999999999")
	require.NoError(t, err)
	assert.Equal(t, "5511999999999", got)
}

func TestNormalizePhoneAreaCode55(t *testing.T) {
	got, err := NormalizePhone("(55) 99123-4567")
	require.NoError(t, err)
	assert.Equal(t, "5555991234567", got)
}

func TestNormalizePhoneRejectsGarbage(t *testing.T) {
	// números locais sem DDD não identificam um lead
	for _, raw := range []string{"", "abc", "123", "+", "----", "12345678", "987654321", "5512345678"} {
		_, err := NormalizePhone(raw)
		assert.ErrorIs(t, err, ErrInvalidPhone, raw)
	}
}
