// Package models defines the data structures for the match engine.
package models

import (
	"errors"
)

// Common errors
var (
	ErrEmptyUserID         = errors.New("user_id cannot be empty")
	ErrPreferencesNotFound = errors.New("preferences not found")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrInactiveProfile     = errors.New("profile is not active")
	ErrInvalidDateOfBirth  = errors.New("date_of_birth must be formatted as YYYY-MM-DD")
	ErrInvalidGender       = errors.New("gender must be male or female")
	ErrProposalNotFound    = errors.New("proposal not found")
	ErrInvalidTransition   = errors.New("proposal cannot move to the requested status")
	ErrNotProposalParty    = errors.New("user is not allowed to act on this proposal")
	ErrCannotProposeSelf   = errors.New("cannot send a proposal to yourself")
	ErrAlreadyProposed     = errors.New("a pending proposal already exists for this profile")
	ErrInvalidFilter       = errors.New("type must be one of sent, received, all")
)
