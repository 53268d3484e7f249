package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

const (
	OTPLength = 6
	// OTPHashCost is the bcrypt work factor (2^10 rounds).
	OTPHashCost = 10
)

var (
	otpUpperBound = big.NewInt(1_000_000)
	phonePattern  = regexp.MustCompile(`^[0-9]{10}$`)
)

// GenerateOTP returns a uniformly random 6 digit code, leading zeros kept.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpUpperBound)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPLength, n.Int64()), nil
}

// HashOTP hashes a code with a per-hash random salt.
func HashOTP(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), OTPHashCost)
	if err != nil {
		return "", fmt.Errorf("hash otp: %w", err)
	}
	return string(hash), nil
}

// CompareOTP reports whether code matches hash. Codes are never compared in plaintext.
func CompareOTP(code, hash string) bool {
	if code == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

// IsValidPhone accepts exactly ten digits.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
