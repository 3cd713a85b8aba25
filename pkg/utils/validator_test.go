package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"ops@acme.io", false},
		{"first.last+tag@sub.example.co.in", false},
		{"no-at-sign.example.com", true},
		{"two@@example.com", true},
		{"space in@example.com", true},
		{"missing@tld", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone   string
		wantErr bool
	}{
		{"+91 98765 43210", false},
		{"555-123-4567", false},
		{"0123456789", false},
		{"12345", true},
		{"+1 (555) 123-4567", true},
		{"phone: 5551234567", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			err := ValidatePhone(tt.phone)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestValidateAmountAndPercent(t *testing.T) {
	assert.NoError(t, ValidateAmount(0.01))
	assert.Error(t, ValidateAmount(0))
	assert.Error(t, ValidateAmount(-10))

	assert.NoError(t, ValidatePercent(0))
	assert.NoError(t, ValidatePercent(100))
	assert.Error(t, ValidatePercent(-0.5))
	assert.Error(t, ValidatePercent(100.01))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Go Advanced", SanitizeString("  Go\x00 Advanced\x7f "))
	assert.True(t, IsBlank(" \t\n"))
	assert.False(t, IsBlank(" x "))
}
