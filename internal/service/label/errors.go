package label

import "errors"

// Label-related errors
var (
	// Validation errors
	ErrEmptyName      = errors.New("label name cannot be empty")
	ErrNameTooLong    = errors.New("label name cannot exceed 20 characters")
	ErrInvalidColor   = errors.New("label color must come from the predefined palette")
	ErrInvalidLabelID = errors.New("invalid label ID")
	ErrInvalidUserID  = errors.New("invalid user ID")

	// Business logic errors
	ErrDuplicateName = errors.New("a label with this name already exists")
	ErrLabelNotFound = errors.New("label not found")
)
