package utils

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// PasswordSpecialChars is the set of symbols a password may (and must) draw from.
const PasswordSpecialChars = "@$!%*?&"

var ErrWeakPassword = errors.New("password must be at least 8 characters long, include uppercase letters, " +
	"lowercase letters, numbers, and special characters")

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares in constant time via bcrypt.
func CheckPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// ValidatePassword enforces: at least 8 characters drawn from letters, digits
// and @$!%*?&, with at least one lowercase, uppercase, digit and special.
func ValidatePassword(password string) error {
	var (
		hasUpper   = false
		hasLower   = false
		hasNumber  = false
		hasSpecial = false
	)

	if len(password) < 8 {
		return ErrWeakPassword
	}

	for _, char := range password {
		switch {
		case char > unicode.MaxASCII:
			return ErrWeakPassword
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		case strings.ContainsRune(PasswordSpecialChars, char):
			hasSpecial = true
		default:
			return ErrWeakPassword
		}
	}

	if !hasUpper || !hasLower || !hasNumber || !hasSpecial {
		return ErrWeakPassword
	}

	return nil
}
