package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Str0ng!Passw0rd")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("Str0ng!Passw0rd", hash))
	assert.False(t, CheckPasswordHash("wrong-password", hash))
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Str0ng!Passw0rd", false},
		{"too short", "S1!a", true},
		{"no uppercase", "str0ng!passw0rd", true},
		{"no lowercase", "STR0NG!PASSW0RD", true},
		{"no digit", "Strong!Password", true},
		{"no special", "Str0ngPassw0rd", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasswordStrength(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
