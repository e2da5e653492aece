package store

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateUsername is returned when registering a username that is
	// already taken. Detection happens on the insert itself via the unique
	// constraint, never as a separate pre-check.
	ErrDuplicateUsername = errors.New("username already exists")
)
