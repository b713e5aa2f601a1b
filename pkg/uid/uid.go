package uid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// GenerateSessionID generates a cryptographically secure random session ID
func GenerateSessionID() (string, error) {
	bytes := make([]byte, 32) // 256 bits
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate session ID: %v", err)
	}
	return hex.EncodeToString(bytes), nil
}

// GenerateTokenID returns a unique ID for tracking a refresh token
func GenerateTokenID() string {
	return "tok_" + uuid.NewString()
}
