package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{
			name: "valid request",
			req: RegisterRequest{
				Email:    "user@example.com",
				Username: "johndoe",
				Password: "SecurePass123!",
			},
			wantErr: false,
		},
		{
			name: "invalid email",
			req: RegisterRequest{
				Email:    "not-an-email",
				Username: "johndoe",
				Password: "SecurePass123!",
			},
			wantErr: true,
		},
		{
			name: "weak password no special char",
			req: RegisterRequest{
				Email:    "user@example.com",
				Username: "johndoe",
				Password: "SecurePass123",
			},
			wantErr: true,
		},
		{
			name: "weak password too short",
			req: RegisterRequest{
				Email:    "user@example.com",
				Username: "johndoe",
				Password: "Sp1!",
			},
			wantErr: true,
		},
		{
			name: "username too short",
			req: RegisterRequest{
				Email:    "user@example.com",
				Username: "jo",
				Password: "SecurePass123!",
			},
			wantErr: true,
		},
		{
			name: "username not alphanumeric",
			req: RegisterRequest{
				Email:    "user@example.com",
				Username: "john doe!",
				Password: "SecurePass123!",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSlugValidation(t *testing.T) {
	valid := []string{"acme", "acme-store", "store-2024", "a"}
	for _, slug := range valid {
		req := CreateCategoryRequest{Name: "Electronics", Slug: slug}
		assert.NoError(t, req.Validate(), slug)
	}

	invalid := []string{"Acme", "acme store", "acme_store", "-acme", "acme-", ""}
	for _, slug := range invalid {
		req := CreateCategoryRequest{Name: "Electronics", Slug: slug}
		assert.Error(t, req.Validate(), slug)
	}
}

func TestCreateCouponRequestValidation(t *testing.T) {
	valid := CreateCouponRequest{
		BrandID:     "b-1",
		CategoryID:  "c-1",
		Title:       "20% off sitewide",
		DiscountPct: 20,
	}
	assert.NoError(t, valid.Validate())

	overLimit := valid
	overLimit.DiscountPct = 101
	assert.Error(t, overLimit.Validate())

	missingBrand := valid
	missingBrand.BrandID = ""
	assert.Error(t, missingBrand.Validate())
}

func TestFormatValidationErrors(t *testing.T) {
	req := RegisterRequest{Email: "bad", Username: "x", Password: "weak"}
	err := req.Validate()
	require.Error(t, err)

	fieldErrors := FormatValidationErrors(err)
	require.Len(t, fieldErrors, 3)

	fields := make(map[string]string)
	for _, fe := range fieldErrors {
		fields[fe.Field] = fe.Message
	}

	assert.Equal(t, "Invalid email format", fields["Email"])
	assert.Contains(t, fields["Username"], "at least 3")
	assert.Contains(t, fields["Password"], "8 characters")
}

func TestAggregateValidationMessage(t *testing.T) {
	req := LoginRequest{Email: "bad", Password: ""}
	err := req.Validate()
	require.Error(t, err)

	msg := AggregateValidationMessage(err)
	assert.Contains(t, msg, "Validation failed: ")
	assert.Contains(t, msg, "Invalid email format")
	assert.Contains(t, msg, "Password is required")
}

func TestAggregateValidationMessageFallback(t *testing.T) {
	assert.Equal(t, "Validation failed", AggregateValidationMessage(assert.AnError))
}
