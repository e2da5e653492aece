package service

import "errors"

// Every operation returns exactly one of these outcomes (or succeeds).
// Business-rule failures are expected results, never logged as exceptional;
// ErrInternal is the only failure that hides detail from the caller.
var (
	ErrUnauthenticated   = errors.New("invalid credentials")
	ErrUnauthorized      = errors.New("unauthorized access")
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrValidation        = errors.New("invalid request")
	ErrInternal          = errors.New("internal failure")
)
