package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// UIDLength is the number of digits in a generated short user id.
const UIDLength = 12

// GenerateUID returns a random numeric-string identifier. The digits double as
// the user's score in the Redis rank index, so the value must stay numeric.
func GenerateUID() (string, error) {
	const digits = "0123456789"
	buf := make([]byte, UIDLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", fmt.Errorf("failed to generate uid: %w", err)
		}
		buf[i] = digits[n.Int64()]
	}
	return string(buf), nil
}

// GenerateResetToken returns a cryptographically random hex token for
// password-reset links.
func GenerateResetToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
