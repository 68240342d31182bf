package auth

import (
	"errors"

	"connectx/apperr"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns a password into an opaque credential and checks a
// password against one. Compare must take the same time whether or not the
// password matches.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

type BcryptHasher struct {
	Cost int
}

func (b BcryptHasher) Hash(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", &apperr.ValidationError{Fields: map[string]string{
			"password": "Password must be at most 72 bytes",
		}}
	}
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
