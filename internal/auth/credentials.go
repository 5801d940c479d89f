package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// Salted SHA-256 credentials, stored as hex. The token layer is stateless;
// credentials are only touched at login and registration.

func NewSalt() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func HashPassword(saltHex, password string) string {
	sum := sha256.Sum256([]byte(saltHex + ":" + password))
	return hex.EncodeToString(sum[:])
}

func VerifyPassword(saltHex, hashHex, password string) bool {
	got := HashPassword(saltHex, password)
	return subtle.ConstantTimeCompare([]byte(got), []byte(hashHex)) == 1
}

func ValidatePassword(password string) error {
	if len(password) < 8 || len(password) > 256 {
		return errors.New("password length must be 8..256")
	}
	return nil
}
