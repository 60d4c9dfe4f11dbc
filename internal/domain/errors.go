package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrUnauthorized   = errors.New("invalid credentials")
	ErrInvalidInput   = errors.New("invalid input")

	// The password and missing-field errors all match ErrInvalidInput
	// but carry distinct messages for the caller.
	ErrMissingFields    = fmt.Errorf("%w: missing required fields", ErrInvalidInput)
	ErrPasswordTooShort = fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("%w: password must be at most 72 bytes", ErrInvalidInput)
)
