package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	// MinPasswordLength is the shortest password accepted for local accounts.
	MinPasswordLength = 8
	// MaxPasswordBytes is the longest password the hash function accepts.
	MaxPasswordBytes = 72
)

// ErrWeakPassword is wrapped by every password policy violation.
var ErrWeakPassword = errors.New("weak password")

var (
	ErrPasswordEmpty     = fmt.Errorf("%w: password cannot be empty", ErrWeakPassword)
	ErrPasswordTooShort  = fmt.Errorf("%w: password must be at least %d characters long", ErrWeakPassword, MinPasswordLength)
	ErrPasswordNoUpper   = fmt.Errorf("%w: password must contain at least one uppercase letter", ErrWeakPassword)
	ErrPasswordNoLower   = fmt.Errorf("%w: password must contain at least one lowercase letter", ErrWeakPassword)
	ErrPasswordNoDigit   = fmt.Errorf("%w: password must contain at least one digit", ErrWeakPassword)
	ErrPasswordNoSpecial = fmt.Errorf("%w: password must contain at least one special character", ErrWeakPassword)
	ErrPasswordTooLong   = fmt.Errorf("%w: password must be at most %d bytes long", ErrWeakPassword, MaxPasswordBytes)
	ErrPasswordNulByte   = fmt.Errorf("%w: password must not contain NUL characters", ErrWeakPassword)
)

// ValidatePassword applies the complexity policy and returns the first rule
// that fails, checked in the order emptiness, length, uppercase, lowercase,
// digit, special character. Length limits of the hash function and NUL bytes
// are checked last.
func ValidatePassword(pw string) error {
	if strings.TrimSpace(pw) == "" {
		return ErrPasswordEmpty
	}
	if len([]rune(pw)) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r):
			special = true
		}
	}

	switch {
	case !upper:
		return ErrPasswordNoUpper
	case !lower:
		return ErrPasswordNoLower
	case !digit:
		return ErrPasswordNoDigit
	case !special:
		return ErrPasswordNoSpecial
	case len(pw) > MaxPasswordBytes:
		return ErrPasswordTooLong
	case strings.ContainsRune(pw, 0):
		return ErrPasswordNulByte
	}
	return nil
}
