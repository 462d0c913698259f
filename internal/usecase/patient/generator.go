package patient

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
)

const (
	HealthCareNumberDigits = 14
	OTPDigits              = 6

	otpMin = 100000
	otpMax = 999999
)

var healthCareNumberSpace = new(big.Int).Exp(big.NewInt(10), big.NewInt(HealthCareNumberDigits), nil)

// GenerateHealthCareNumber returns a uniformly random, zero-padded
// 14-digit number. Uniqueness is enforced by the store, not here.
func GenerateHealthCareNumber() (string, error) {
	n, err := rand.Int(rand.Reader, healthCareNumberSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate health care number: %w", err)
	}
	return fmt.Sprintf("%0*d", HealthCareNumberDigits, n.Int64()), nil
}

// GenerateOTP returns a code drawn uniformly from [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}
