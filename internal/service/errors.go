package service

import "errors"

var (
	// ErrEventNotFound is returned when an event id is unknown.
	ErrEventNotFound = errors.New("event not found")

	// ErrParticipantNotFound is returned when a participant id is unknown.
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrEmailTaken is returned when signing up with an email already in use.
	ErrEmailTaken = errors.New("email is already registered")

	// ErrSelfDelete is returned when an admin tries to delete their own account.
	ErrSelfDelete = errors.New("cannot delete your own account")
)
