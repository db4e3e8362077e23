package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor used for passwords and security answers.
const BcryptCost = 12

// MinPasswordLength is the shortest password the policy accepts.
const MinPasswordLength = 8

// MaxPasswordBytes is the longest input bcrypt will hash.
const MaxPasswordBytes = 72

// PasswordSymbols is the punctuation set that satisfies the symbol rule.
const PasswordSymbols = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

// Messages reported by ValidatePassword, one per rule.
const (
	MsgPasswordTooShort  = "password must be at least 8 characters long"
	MsgPasswordTooLong   = "password must be at most 72 bytes long"
	MsgPasswordLowercase = "password must contain at least one lowercase letter"
	MsgPasswordUppercase = "password must contain at least one uppercase letter"
	MsgPasswordDigit     = "password must contain at least one number"
	MsgPasswordSymbol    = "password must contain at least one special character"
)

// PasswordValidation is the outcome of ValidatePassword.
type PasswordValidation struct {
	Valid  bool
	Errors []string
}

// ValidatePassword checks every strength rule independently so callers can
// show all violations at once.
func ValidatePassword(pwd string) PasswordValidation {
	errs := make([]string, 0, 5)

	if utf8.RuneCountInString(pwd) < MinPasswordLength {
		errs = append(errs, MsgPasswordTooShort)
	}
	if len(pwd) > MaxPasswordBytes {
		errs = append(errs, MsgPasswordTooLong)
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, ch := range pwd {
		switch {
		case ch >= 'a' && ch <= 'z':
			hasLower = true
		case ch >= 'A' && ch <= 'Z':
			hasUpper = true
		case ch >= '0' && ch <= '9':
			hasDigit = true
		case strings.ContainsRune(PasswordSymbols, ch):
			hasSymbol = true
		}
	}
	if !hasLower {
		errs = append(errs, MsgPasswordLowercase)
	}
	if !hasUpper {
		errs = append(errs, MsgPasswordUppercase)
	}
	if !hasDigit {
		errs = append(errs, MsgPasswordDigit)
	}
	if !hasSymbol {
		errs = append(errs, MsgPasswordSymbol)
	}

	return PasswordValidation{Valid: len(errs) == 0, Errors: errs}
}

// HashPassword hashes with bcrypt at BcryptCost. Every call uses a fresh salt.
func HashPassword(password string) (string, error) {
	return HashPasswordCost(password, BcryptCost)
}

// HashPasswordCost is HashPassword with an explicit work factor.
func HashPasswordCost(password string, cost int) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
// Empty input on either side never matches.
func CheckPassword(password, stored string) bool {
	if password == "" || stored == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// NewActivationCode returns an opaque single-use activation code (32 hex chars).
func NewActivationCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewRecoveryCode returns a numeric code in [1000, 9999].
func NewRecoveryCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return fmt.Sprintf("%d", 1000+n.Int64()), nil
}
