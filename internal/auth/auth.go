// Package auth provides minimal password validation helpers.
//
// It intentionally avoids policy decisions and storage concerns.
package auth

import (
	"crypto/subtle"
	"errors"
)

var ErrInvalidPassword = errors.New("auth: invalid password")

// Validator validates a connection password.
type Validator interface {
	Validate(password string) error
}

// StaticPassword is a simple validator for a single shared password.
// It is intended only for development and proofs of concept.
type StaticPassword struct {
	Password string
}

func (s StaticPassword) Validate(password string) error {
	if s.Password == "" {
		return ErrInvalidPassword
	}
	if subtle.ConstantTimeCompare([]byte(s.Password), []byte(password)) != 1 {
		return ErrInvalidPassword
	}
	return nil
}

// FuncValidator adapts a function into a Validator.
type FuncValidator func(password string) error

func (f FuncValidator) Validate(password string) error {
	return f(password)
}
