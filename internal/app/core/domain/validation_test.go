package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"a@gmail.com", true},
		{"First.Last+tag@GMAIL.COM", true},
		{"user_1-x@protonmail.com", true},
		{"x@unknownmail.com", false},
		{"", false},
		{"   ", false},
		{"no-at-sign.gmail.com", false},
		{"bad char@gmail.com", false},
		{"@gmail.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidEmail(tt.email))
		})
	}
}

func TestInvalidEmailMessage(t *testing.T) {
	assert.Equal(t, "email cannot be empty", InvalidEmailMessage(" "))
	assert.Equal(t, "email format is invalid: not-an-email", InvalidEmailMessage("not-an-email"))
	assert.Equal(t,
		"email domain is not supported: unknownmail.com. Please use a common email provider.",
		InvalidEmailMessage("x@UnknownMail.com"))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("b@yahoo.com"))

	err := ValidateEmail("x@unknownmail.com")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	assert.Equal(t, KindInvalidEmail, KindOf(err))
	assert.Contains(t, err.Error(), "unknownmail.com")
}

func TestEmailPolicy_CustomDomains(t *testing.T) {
	p := NewEmailPolicy([]string{" Example.COM "})
	assert.True(t, p.IsValid("ops@example.com"))
	assert.False(t, p.IsValid("ops@gmail.com"))

	fallback := NewEmailPolicy(nil)
	assert.True(t, fallback.IsValid("ops@gmail.com"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "dup@gmail.com", NormalizeEmail("  Dup@Gmail.com "))
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount(decimal.RequireFromString("0.01")))
	assert.ErrorIs(t, ValidateAmount(decimal.Zero), ErrInvalidArgument)
	assert.ErrorIs(t, ValidateAmount(decimal.RequireFromString("-10.00")), ErrAmountMustBePositive)

	assert.NoError(t, ValidateInitialBalance(decimal.Zero))
	assert.ErrorIs(t, ValidateInitialBalance(decimal.RequireFromString("-1")), ErrNegativeInitialBalance)
}
