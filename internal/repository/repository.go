// Package repository persists events, participants and registrations. It is
// the durable side of the admission engine: every Commit* method is a single
// database transaction that either applies completely or not at all.
package repository

import (
	"context"
	"errors"

	"github.com/Shivanand-hulikatti/event-admission/internal/admission"
	"github.com/Shivanand-hulikatti/event-admission/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when a unique key is already taken.
var ErrAlreadyExists = errors.New("already exists")

// ErrCapacityExceeded is returned when a commit would store more active
// registrations than the event has seats.
var ErrCapacityExceeded = errors.New("active registrations exceed capacity")

// Repository is the storage contract shared by the Postgres and SQLite
// backends.
type Repository interface {
	admission.Committer

	CreateEvent(ctx context.Context, ev model.Event) error
	GetEvent(ctx context.Context, id string) (model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)

	CreateParticipant(ctx context.Context, p model.Participant) error
	GetParticipant(ctx context.Context, id string) (model.Participant, error)
	GetParticipantByEmail(ctx context.Context, email string) (model.Participant, error)
	ListParticipants(ctx context.Context) ([]model.Participant, error)
	CountParticipantsByRole(ctx context.Context, role model.Role) (int, error)
	DeleteParticipant(ctx context.Context, id string) error

	ListRegistrations(ctx context.Context) ([]model.Registration, error)
	CountRegistrations(ctx context.Context, eventID string) (int, error)

	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Repository = (*Postgres)(nil)
	_ Repository = (*SQLite)(nil)

	_ admission.RegistrationCounter = Repository(nil)
)
