package karma

import "errors"

var (
	// ErrNotFound is returned when a code does not exist.
	ErrNotFound = errors.New("karma: code not found")
	// ErrExpired is returned when a code's expiry has passed.
	ErrExpired = errors.New("karma: code has expired")
	// ErrAlreadySpent is returned when a code already has a current vote.
	ErrAlreadySpent = errors.New("karma: code already spent")
	// ErrDirectionLocked is returned when a vote direction conflicts with
	// a code's locked vote_type.
	ErrDirectionLocked = errors.New("karma: vote direction does not match locked type")
)
