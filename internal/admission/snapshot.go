package admission

import "github.com/Shivanand-hulikatti/event-admission/internal/model"

// Snapshot is an event's committed state captured at the end of one engine
// operation. Seats and Registrations always belong to the same instant.
// Snapshots are shared between readers and must not be modified.
type Snapshot struct {
	Event         model.Event
	Seats         model.Seats
	Registrations []model.Registration
	Version       uint64
}

// publish captures st into a new snapshot. Must be called while holding the
// event's section.
func (e *Engine) publish(st *eventState) {
	counts := st.ledger.Counts()
	ev := st.event
	ev.ActiveCount = counts.Active
	ev.TotalSeats = counts.Total
	st.version++
	st.snap.Store(&Snapshot{
		Event: ev,
		Seats: model.Seats{
			Total:     counts.Total,
			Active:    counts.Active,
			Available: counts.Available(),
		},
		Registrations: e.store.ListForEvent(ev.ID),
		Version:       st.version,
	})
	e.obs.Active(ev.ID, counts.Active)
}

// Snapshot returns the latest committed state of an event.
func (e *Engine) Snapshot(eventID string) (*Snapshot, bool) {
	e.mu.RLock()
	st, ok := e.events[eventID]
	e.mu.RUnlock()
	if !ok {
		return nil, false
	}
	snap := st.snap.Load()
	return snap, snap != nil
}

// Snapshots returns the latest committed state of every tracked event.
func (e *Engine) Snapshots() []*Snapshot {
	e.mu.RLock()
	states := make([]*eventState, 0, len(e.events))
	for _, st := range e.events {
		states = append(states, st)
	}
	e.mu.RUnlock()

	snaps := make([]*Snapshot, 0, len(states))
	for _, st := range states {
		if snap := st.snap.Load(); snap != nil {
			snaps = append(snaps, snap)
		}
	}
	return snaps
}
