package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflake(t *testing.T) {
	assert.True(t, Snowflake("123456789012345678"))
	assert.True(t, Snowflake("12345678901234567"))
	assert.True(t, Snowflake("1234567890123456789"))

	assert.False(t, Snowflake(""))
	assert.False(t, Snowflake("1234567890123456"))     // too short
	assert.False(t, Snowflake("12345678901234567890")) // too long
	assert.False(t, Snowflake("12345678901234567a"))
	assert.False(t, Snowflake("<@123456789012345678>"))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "hello", SanitizeInput("  hello  "))
	assert.Equal(t, "@everyone", SanitizeInput("<@everyone>"))
	assert.Equal(t, "", SanitizeInput("<>"))
}

func TestNewValidationError(t *testing.T) {
	assert.NoError(t, NewValidationError(nil))
	assert.NoError(t, NewValidationError([]string{}))

	err := NewValidationError([]string{"a is required", "b is invalid"})
	require.Error(t, err)
	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Len(t, verr.Violations, 2)
	assert.Contains(t, err.Error(), "a is required")
}
