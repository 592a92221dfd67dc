package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired session")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateLogin     = errors.New("login already in use")
	ErrUserInUse          = errors.New("user is assigned to cases")
	ErrValidation         = errors.New("validation failed")
)

// ValidationError carries the user-facing reason for a rejected input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
