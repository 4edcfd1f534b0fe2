// Package model defines the core domain types for the event admission system.
package model

import "time"

// Event is a capacity-bounded event participants can register for.
type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	TotalSeats  int       `json:"total_seats"`
	ActiveCount int       `json:"active_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsUpcoming reports whether the event falls on a calendar day strictly after
// the day of now. An event dated today is not upcoming.
func (e *Event) IsUpcoming(now time.Time) bool {
	return Day(e.Date).After(Day(now))
}

// Day truncates t to midnight UTC of its own calendar date, so dates from
// different locations compare by year, month and day only.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Participant is a person that can hold registrations.
type Participant struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Registration links one participant to one event.
type Registration struct {
	ID            string    `json:"id"`
	EventID       string    `json:"event_id"`
	ParticipantID string    `json:"participant_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Seats is a point-in-time view of an event's seat accounting.
type Seats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Available int `json:"available"`
}

// EventRequest is the payload for creating or editing an event.
type EventRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	Date       string `json:"date" validate:"required,datefmt"`
	TotalSeats int    `json:"total_seats" validate:"gt=0,lte=100000"`
}

// SignupRequest is the payload for self-service account creation.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,personname"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

// CreateParticipantRequest is the administrative account creation payload.
type CreateParticipantRequest struct {
	SignupRequest
	Role string `json:"role" validate:"required,role"`
}

// LoginRequest is the payload for exchanging credentials for a token.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries a signed bearer token.
type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *Participant `json:"user"`
}

// EventView is an event together with its seat availability.
type EventView struct {
	Event
	Seats Seats `json:"seats"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}
