package services

import "errors"

var (
	// ErrNotFound is returned when the record a caller asked for does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNotOwned is returned when a caller tries to touch a notification that
	// belongs to someone else.
	ErrNotOwned = errors.New("notification not found or unauthorized")
)
