// Package query serves read-only views of registration state. Every view is
// built from snapshots the admission engine publishes at the end of each
// commit, so reads never wait for admissions and never mix a seat count with
// a registration list from a different moment.
package query

import (
	"sort"
	"time"

	"github.com/Shivanand-hulikatti/event-admission/internal/admission"
	"github.com/Shivanand-hulikatti/event-admission/internal/model"
)

// SnapshotSource is implemented by *admission.Engine.
type SnapshotSource interface {
	Snapshot(eventID string) (*admission.Snapshot, bool)
	Snapshots() []*admission.Snapshot
}

// Facade answers seat and registration queries.
type Facade struct {
	src SnapshotSource
}

// New returns a Facade reading from src.
func New(src SnapshotSource) *Facade {
	return &Facade{src: src}
}

// Seats returns total, active and available seats for an event.
func (f *Facade) Seats(eventID string) (model.Seats, bool) {
	snap, ok := f.src.Snapshot(eventID)
	if !ok {
		return model.Seats{}, false
	}
	return snap.Seats, true
}

// AvailableSeats returns the number of free seats for an event.
func (f *Facade) AvailableSeats(eventID string) (int, bool) {
	seats, ok := f.Seats(eventID)
	return seats.Available, ok
}

// IsFull reports whether an event has no free seats.
func (f *Facade) IsFull(eventID string) (bool, bool) {
	seats, ok := f.Seats(eventID)
	return ok && seats.Available == 0, ok
}

// Event returns an event with its seat availability.
func (f *Facade) Event(eventID string) (model.EventView, bool) {
	snap, ok := f.src.Snapshot(eventID)
	if !ok {
		return model.EventView{}, false
	}
	return model.EventView{Event: snap.Event, Seats: snap.Seats}, true
}

// Events returns every event ordered by date, then name.
func (f *Facade) Events() []model.EventView {
	snaps := f.src.Snapshots()
	views := make([]model.EventView, 0, len(snaps))
	for _, snap := range snaps {
		views = append(views, model.EventView{Event: snap.Event, Seats: snap.Seats})
	}
	sort.Slice(views, func(i, j int) bool {
		a, b := views[i].Event, views[j].Event
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return views
}

// OpenEvents returns the events still taking registrations at now: dated
// after today with at least one free seat. Ordered like Events.
func (f *Facade) OpenEvents(now time.Time) []model.EventView {
	all := f.Events()
	open := all[:0]
	for _, v := range all {
		if v.Seats.Available > 0 && v.Event.IsUpcoming(now) {
			open = append(open, v)
		}
	}
	return open
}

// ForEvent returns an event's registrations, most recent first.
func (f *Facade) ForEvent(eventID string) ([]model.Registration, bool) {
	snap, ok := f.src.Snapshot(eventID)
	if !ok {
		return nil, false
	}
	out := make([]model.Registration, len(snap.Registrations))
	copy(out, snap.Registrations)
	return out, true
}

// ForParticipant returns a participant's registrations across all events,
// most recent first. Each event contributes its own latest snapshot.
func (f *Facade) ForParticipant(participantID string) []model.Registration {
	var out []model.Registration
	for _, snap := range f.src.Snapshots() {
		for _, reg := range snap.Registrations {
			if reg.ParticipantID == participantID {
				out = append(out, reg)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
