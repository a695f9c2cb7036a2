package util

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateToken returns a random hex token for email confirmation links.
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
