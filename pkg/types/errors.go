package types

import "errors"

// Domain errors for type validation
var (
	ErrMissingDocumentID = errors.New("document ID is required")
	ErrMissingTitle      = errors.New("document title is required")
	ErrEmptyContent      = errors.New("content cannot be empty")
	ErrInvalidScore      = errors.New("score must be non-negative")
	ErrMissingResultID   = errors.New("result ID is required")
)
