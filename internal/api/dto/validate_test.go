package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateLoginRequest(t *testing.T) {
	assert.Nil(t, Validate(LoginRequest{Email: "jane@example.com", Password: "secret"}))

	errs := Validate(LoginRequest{Email: "not-an-email"})
	assert.Equal(t, "must be a valid email address", errs["email"])
	assert.Equal(t, "is required", errs["password"])

	errs = Validate(LoginRequest{})
	assert.Equal(t, "is required", errs["email"])
}
