package admission

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
)

// EventEdit carries the administratively editable event fields.
type EventEdit struct {
	Name       string
	Date       time.Time
	TotalSeats int
}

// Resize changes an event's capacity. A capacity below the number of active
// registrations is rejected and nothing changes.
func (e *Engine) Resize(ctx context.Context, eventID string, totalSeats int) (model.Outcome, error) {
	const op = "resize"
	st, err := e.enter(ctx, eventID)
	if err != nil {
		return e.entryFailure(op, err)
	}
	defer st.unlock()

	return e.edit(ctx, op, st, EventEdit{
		Name:       st.event.Name,
		Date:       st.event.Date,
		TotalSeats: totalSeats,
	})
}

// Edit changes an event's name, date and capacity together.
func (e *Engine) Edit(ctx context.Context, eventID string, change EventEdit) (model.Outcome, error) {
	const op = "edit"
	st, err := e.enter(ctx, eventID)
	if err != nil {
		return e.entryFailure(op, err)
	}
	defer st.unlock()
	return e.edit(ctx, op, st, change)
}

func (e *Engine) edit(ctx context.Context, op string, st *eventState, change EventEdit) (model.Outcome, error) {
	counts := st.ledger.Counts()
	if change.TotalSeats < counts.Active || change.TotalSeats < 0 {
		return e.reject(op, model.ReasonCapacityBelowActive), nil
	}

	next := st.event
	next.Name = change.Name
	next.Date = change.Date
	next.TotalSeats = change.TotalSeats
	next.ActiveCount = counts.Active
	if err := e.commit.CommitEvent(context.WithoutCancel(ctx), next); err != nil {
		return model.Outcome{}, e.collaboratorFault(op, st.event.ID, err)
	}
	if err := st.ledger.Resize(change.TotalSeats); err != nil {
		e.consistencyFault("ledger refused a capacity checked inside its section",
			"event_id", st.event.ID, "error", err)
	}
	st.event = next
	e.publish(st)
	return e.accept(op, model.Updated()), nil
}

// DeleteEvent removes an event and all of its registrations.
func (e *Engine) DeleteEvent(ctx context.Context, eventID string) (model.Outcome, error) {
	const op = "delete_event"
	st, err := e.enter(ctx, eventID)
	if err != nil {
		return e.entryFailure(op, err)
	}
	defer st.unlock()

	if err := e.commit.CommitEventDeletion(context.WithoutCancel(ctx), eventID); err != nil {
		return model.Outcome{}, e.collaboratorFault(op, eventID, err)
	}
	removed := e.store.RemoveEvent(eventID)
	st.deleted = true
	e.mu.Lock()
	delete(e.events, eventID)
	e.mu.Unlock()
	e.obs.Forget(eventID)

	e.log.Info("event deleted", "event_id", eventID, "registrations_removed", len(removed))
	return e.accept(op, model.Outcome{Status: model.StatusRemoved, Message: "Event deleted"}), nil
}

// RetireParticipant stops participantID from being admitted to any event.
// Registrations it already holds are kept until PurgeParticipant.
func (e *Engine) RetireParticipant(participantID string) {
	e.mu.Lock()
	e.retired[participantID] = struct{}{}
	e.mu.Unlock()
}

// ReinstateParticipant undoes RetireParticipant.
func (e *Engine) ReinstateParticipant(participantID string) {
	e.mu.Lock()
	delete(e.retired, participantID)
	e.mu.Unlock()
}

func (e *Engine) isRetired(participantID string) bool {
	e.mu.RLock()
	_, ok := e.retired[participantID]
	e.mu.RUnlock()
	return ok
}

// PurgeParticipant retires a participant and then withdraws every
// registration it holds, visiting each event's section in turn. A register
// that passed the retirement check before it took effect still holds its
// section, so the visit that follows sees its registration. It returns how
// many registrations were removed. The participant stays retired even when
// an error is returned.
func (e *Engine) PurgeParticipant(ctx context.Context, participantID string) (int, error) {
	const op = "purge_participant"
	e.RetireParticipant(participantID)

	removed := 0
	for _, id := range e.eventIDs() {
		st, err := e.enter(ctx, id)
		if err != nil {
			if errors.Is(err, errUnknownEvent) {
				continue
			}
			return removed, err
		}
		reg, ok := e.store.Lookup(participantID, id)
		if !ok {
			st.unlock()
			continue
		}
		err = e.release(ctx, st, reg)
		st.unlock()
		if err != nil {
			return removed, e.collaboratorFault(op, id, err)
		}
		e.accept(op, model.Withdrawn(reg))
		removed++
	}
	return removed, nil
}

// Mismatch describes an event whose ledger disagrees with the registration
// set, or whose active count exceeds its capacity. StorageActive is set only
// when the audit also counted durable registrations.
type Mismatch struct {
	EventID       string `json:"event_id"`
	TotalSeats    int    `json:"total_seats"`
	LedgerActive  int    `json:"ledger_active"`
	StoreActive   int    `json:"store_active"`
	StorageActive *int   `json:"storage_active,omitempty"`
}

// RegistrationCounter counts durable registrations per event.
type RegistrationCounter interface {
	CountRegistrations(ctx context.Context, eventID string) (int, error)
}

// Audit checks every tracked event inside its section. When durable is not
// nil the ledger is also compared with the registrations it counts, read
// while the section is held so no commit can land in between. Registrations
// held for an event the engine does not track are reported too.
func (e *Engine) Audit(ctx context.Context, durable RegistrationCounter) ([]Mismatch, error) {
	var out []Mismatch
	ids := e.eventIDs()
	for _, id := range ids {
		st, err := e.enter(ctx, id)
		if err != nil {
			if errors.Is(err, errUnknownEvent) {
				continue
			}
			return out, err
		}
		counts := st.ledger.Counts()
		stored := e.store.CountForEvent(id)
		var persisted *int
		if durable != nil {
			n, err := durable.CountRegistrations(ctx, id)
			if err != nil {
				st.unlock()
				return out, fmt.Errorf("audit %s: %w: %w", id, ErrUnavailable, err)
			}
			persisted = &n
		}
		st.unlock()

		drifted := persisted != nil && *persisted != counts.Active
		if counts.Active != stored || counts.Active > counts.Total || drifted {
			m := Mismatch{EventID: id, TotalSeats: counts.Total, LedgerActive: counts.Active,
				StoreActive: stored, StorageActive: persisted}
			args := []any{"event_id", id, "total", counts.Total,
				"ledger_active", counts.Active, "store_active", stored}
			if persisted != nil {
				args = append(args, "storage_active", *persisted)
			}
			e.consistencyFault("audit mismatch", args...)
			out = append(out, m)
		}
	}

	for _, id := range e.store.Events() {
		e.mu.RLock()
		_, tracked := e.events[id]
		e.mu.RUnlock()
		if tracked {
			continue
		}
		n := e.store.CountForEvent(id)
		e.consistencyFault("registrations held for untracked event", "event_id", id, "store_active", n)
		out = append(out, Mismatch{EventID: id, StoreActive: n})
	}
	return out, nil
}

// Load hydrates the engine from persisted state. Registrations are restored
// into the store and each ledger is rebuilt from the registrations actually
// present; a stored count that disagrees is reported as a mismatch.
func (e *Engine) Load(events []model.Event, regs []model.Registration) ([]Mismatch, error) {
	byEvent := make(map[string]int, len(events))
	for _, ev := range events {
		byEvent[ev.ID] = 0
	}
	for _, reg := range regs {
		if _, ok := byEvent[reg.EventID]; !ok {
			e.consistencyFault("registration for unknown event skipped",
				"registration_id", reg.ID, "event_id", reg.EventID)
			continue
		}
		if err := e.store.Restore(reg); err != nil {
			e.consistencyFault("duplicate registration skipped", "registration_id", reg.ID, "error", err)
			continue
		}
		byEvent[reg.EventID]++
	}

	var out []Mismatch
	for _, ev := range events {
		actual := byEvent[ev.ID]
		if actual != ev.ActiveCount || actual > ev.TotalSeats {
			out = append(out, Mismatch{
				EventID:      ev.ID,
				TotalSeats:   ev.TotalSeats,
				LedgerActive: ev.ActiveCount,
				StoreActive:  actual,
			})
			e.consistencyFault("stored active count disagrees with registrations",
				"event_id", ev.ID, "stored", ev.ActiveCount, "registrations", actual)
		}
		ev.ActiveCount = actual
		if err := e.Track(ev); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (e *Engine) eventIDs() []string {
	e.mu.RLock()
	ids := make([]string, 0, len(e.events))
	for id := range e.events {
		ids = append(ids, id)
	}
	e.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
