package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	otpMin = 100000
	otpMax = 999999
)

var otpSpan = big.NewInt(otpMax - otpMin + 1)

// NewOTPCode returns a uniformly random 6-digit numeric code in [100000, 999999].
// The lower bound keeps the leading digit non-zero, so no padding is needed.
func NewOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpan)
	if err != nil {
		return "", fmt.Errorf("generate otp code: %w", err)
	}
	return fmt.Sprintf("%d", otpMin+n.Int64()), nil
}
