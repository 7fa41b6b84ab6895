package password

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the bcrypt cost used for stored passwords
	DefaultCost = 12

	// MinLength is the shortest accepted password, in characters
	MinLength = 8
)

// ErrTooShort is returned by Check for passwords under MinLength
var ErrTooShort = fmt.Errorf("password must be at least %d characters", MinLength)

// Check reports whether plain is acceptable as a new password
func Check(plain string) error {
	if utf8.RuneCountInString(plain) < MinLength {
		return ErrTooShort
	}
	return nil
}

// Hash returns the bcrypt hash of plain
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plain matches hash
func Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// HashToken returns the hex sha256 of a refresh token. Only this digest is stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
