package ident

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// passwordHashCost is the bcrypt work factor. Raising it slows every login
// and registration; existing hashes keep the cost they were created with.
const passwordHashCost = 12

// HashPassword will generate a salted password hash. Two calls with the same
// input produce different outputs; the salt is embedded in the result.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyPassword
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext password against
// the stored hash. A mismatch returns ErrMismatchedHashAndPassword; any other
// error means the stored hash is malformed.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}
