package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// RandomToken returns length random bytes as URL-safe base64.
func RandomToken(length int) (string, error) {
	if length <= 0 {
		length = 32
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
