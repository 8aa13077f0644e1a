package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/truebittech/retail_backend/utils"
)

func TestFormatPhoneE164(t *testing.T) {
	formatted, err := utils.FormatPhoneE164("+91 98765 43210")
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", formatted)

	_, err = utils.FormatPhoneE164("")
	assert.Error(t, err)

	_, err = utils.FormatPhoneE164("12345")
	assert.Error(t, err)
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, utils.IsValidEmail("store@example.com"))
	assert.False(t, utils.IsValidEmail("not-an-email"))
	assert.False(t, utils.IsValidEmail(""))
}

func TestNilIfEmpty(t *testing.T) {
	assert.Nil(t, utils.NilIfEmpty(0))
	assert.Nil(t, utils.NilIfEmpty(""))

	id := utils.NilIfEmpty(42)
	require.NotNil(t, id)
	assert.Equal(t, 42, *id)

	s := utils.NilIfEmpty("SA001")
	require.NotNil(t, s)
	assert.Equal(t, "SA001", *s)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hashed, err := utils.HashPassword("TrueBit@2024")
	require.NoError(t, err)

	assert.NoError(t, utils.ComparePassword(string(hashed), "TrueBit@2024"))
	assert.Error(t, utils.ComparePassword(string(hashed), "wrong-password"))
}
