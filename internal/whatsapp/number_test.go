package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidNumber(t *testing.T) {
	valid := []string{
		"628123456789",
		"08123456789",
		"+628123456789",
		"0812-3456-789",
		"0812 3456 789",
		"62812345678901", // upper length bound
	}
	for _, n := range valid {
		assert.True(t, ValidNumber(n), n)
	}

	invalid := []string{
		"",
		"8123456789",      // missing prefix
		"628023456789",    // operator block cannot start with 0
		"62812345",        // too short
		"628123456789012", // too long
		"62-812-abc-789",
		"14155552671", // non-Indonesian
	}
	for _, n := range invalid {
		assert.False(t, ValidNumber(n), n)
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "628123456789", FormatNumber("08123456789"))
	assert.Equal(t, "628123456789", FormatNumber("628123456789"))
	assert.Equal(t, "628123456789", FormatNumber("+62 812-3456-789"))
}
