package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the bcrypt input limit; longer inputs are rejected
// rather than silently truncated.
const MaxPasswordBytes = 72

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrPasswordEmpty   = errors.New("password is required")
	ErrPasswordTooLong = errors.New("password exceeds maximum length of 72 bytes")
)

// HashPassword creates a salted bcrypt hash of the password.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrPasswordEmpty
	}
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a password with its hash.
func CheckPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return err
	}
	return nil
}

// dummyHasher holds a hash compared against when a username is unknown, so
// unknown users and wrong passwords take the same time to reject.
type dummyHasher struct {
	once sync.Once
	cost int
	hash string
}

func (d *dummyHasher) compare(password string) {
	d.once.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), d.cost)
		if err == nil {
			d.hash = string(h)
		}
	})
	_ = bcrypt.CompareHashAndPassword([]byte(d.hash), []byte(password))
}

// GenerateSessionSecret creates a random 32-byte secret for cookie signing.
func GenerateSessionSecret() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
