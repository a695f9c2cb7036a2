package auth

import "errors"

// Auth-related errors
var (
	// Validation errors
	ErrEmptyEmail   = errors.New("email cannot be empty")
	ErrInvalidEmail = errors.New("email address is not valid")
	ErrWeakPassword = errors.New("password must be at least 6 characters")

	// Business logic errors
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrInvalidToken       = errors.New("invalid or expired confirmation token")
	ErrAlreadyConfirmed   = errors.New("email is already confirmed")
	ErrUserNotFound       = errors.New("user not found")
)
