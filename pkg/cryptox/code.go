package cryptox

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// GenerateNumericCode creates a cryptographically secure numeric code of the
// given number of digits, zero-padded. Suitable for email verification and
// password reset codes.
func GenerateNumericCode(digits int) (string, error) {
	if digits <= 0 || digits > 18 {
		return "", fmt.Errorf("code length must be between 1 and 18 digits, got %d", digits)
	}

	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate random code: %w", err)
	}

	return fmt.Sprintf("%0*d", digits, n), nil
}

// GenerateHexCode creates a cryptographically secure lowercase hex code of the
// given character length. Length must be even. Used for backup codes.
func GenerateHexCode(length int) (string, error) {
	if length <= 0 || length%2 != 0 {
		return "", fmt.Errorf("hex code length must be positive and even, got %d", length)
	}

	buf := make([]byte, length/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random code: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
