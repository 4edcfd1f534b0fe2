// Package registration holds the authoritative set of active registrations,
// indexed by (participant, event) for uniqueness and by event and participant
// for enumeration.
package registration

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/google/uuid"
)

// ErrDuplicate is returned when the pair already holds a registration.
var ErrDuplicate = errors.New("duplicate registration")

// ErrNotFound is returned when no registration matches.
var ErrNotFound = errors.New("registration not found")

type pair struct {
	participantID string
	eventID       string
}

type entry struct {
	reg model.Registration
	seq uint64
}

// Store is an in-process registration set. Every method is safe for
// concurrent use and each one is atomic on its own; callers needing a
// check-then-insert across calls must serialise per event themselves.
type Store struct {
	mu            sync.RWMutex
	byID          map[string]entry
	byPair        map[pair]string
	byEvent       map[string]map[string]struct{}
	byParticipant map[string]map[string]struct{}
	seq           uint64

	now   func() time.Time
	newID func() string
}

// Option customises a Store.
type Option func(*Store)

// WithClock sets the source of creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator sets the source of registration ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// NewStore returns an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		byID:          make(map[string]entry),
		byPair:        make(map[pair]string),
		byEvent:       make(map[string]map[string]struct{}),
		byParticipant: make(map[string]map[string]struct{}),
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HasActive reports whether the participant holds a registration for the event.
func (s *Store) HasActive(participantID, eventID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byPair[pair{participantID, eventID}]
	return ok
}

// Lookup returns the pair's registration, if any.
func (s *Store) Lookup(participantID, eventID string) (model.Registration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPair[pair{participantID, eventID}]
	if !ok {
		return model.Registration{}, false
	}
	return s.byID[id].reg, true
}

// Insert records a new registration for the pair.
func (s *Store) Insert(participantID, eventID string) (model.Registration, error) {
	reg := model.Registration{
		EventID:       eventID,
		ParticipantID: participantID,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byPair[pair{participantID, eventID}]; ok {
		return model.Registration{}, ErrDuplicate
	}
	reg.ID = s.newID()
	reg.CreatedAt = s.now()
	s.addLocked(reg)
	return reg, nil
}

// Restore adds a previously persisted registration, keeping its id and
// timestamp.
func (s *Store) Restore(reg model.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byPair[pair{reg.ParticipantID, reg.EventID}]; ok {
		return fmt.Errorf("restore %s: %w", reg.ID, ErrDuplicate)
	}
	if _, ok := s.byID[reg.ID]; ok {
		return fmt.Errorf("restore %s: id already present: %w", reg.ID, ErrDuplicate)
	}
	s.addLocked(reg)
	return nil
}

func (s *Store) addLocked(reg model.Registration) {
	s.seq++
	s.byID[reg.ID] = entry{reg: reg, seq: s.seq}
	s.byPair[pair{reg.ParticipantID, reg.EventID}] = reg.ID
	addIndex(s.byEvent, reg.EventID, reg.ID)
	addIndex(s.byParticipant, reg.ParticipantID, reg.ID)
}

func (s *Store) removeLocked(reg model.Registration) {
	delete(s.byID, reg.ID)
	delete(s.byPair, pair{reg.ParticipantID, reg.EventID})
	dropIndex(s.byEvent, reg.EventID, reg.ID)
	dropIndex(s.byParticipant, reg.ParticipantID, reg.ID)
}

// RemoveByPair deletes the pair's registration, returning it and whether
// anything was removed.
func (s *Store) RemoveByPair(participantID, eventID string) (model.Registration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byPair[pair{participantID, eventID}]
	if !ok {
		return model.Registration{}, false
	}
	reg := s.byID[id].reg
	s.removeLocked(reg)
	return reg, true
}

// RemoveByID deletes a registration by id and returns it so the caller can
// release the owning event's seat.
func (s *Store) RemoveByID(id string) (model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return model.Registration{}, ErrNotFound
	}
	s.removeLocked(e.reg)
	return e.reg, nil
}

// RemoveEvent deletes every registration of an event and returns them.
func (s *Store) RemoveEvent(eventID string) []model.Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	regs := s.collectLocked(s.byEvent[eventID])
	for _, reg := range regs {
		s.removeLocked(reg)
	}
	return regs
}

// Get returns a registration by id.
func (s *Store) Get(id string) (model.Registration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	return e.reg, ok
}

// ListForEvent returns the event's registrations, most recent first.
func (s *Store) ListForEvent(eventID string) []model.Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectLocked(s.byEvent[eventID])
}

// ListForParticipant returns the participant's registrations, most recent
// first.
func (s *Store) ListForParticipant(participantID string) []model.Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectLocked(s.byParticipant[participantID])
}

// CountForEvent returns the number of registrations held for the event.
func (s *Store) CountForEvent(eventID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byEvent[eventID])
}

// Events returns the ids of every event holding at least one registration.
func (s *Store) Events() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.byEvent))
	for id := range s.byEvent {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Store) collectLocked(ids map[string]struct{}) []model.Registration {
	entries := make([]entry, 0, len(ids))
	for id := range ids {
		entries = append(entries, s.byID[id])
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.reg.CreatedAt.Equal(b.reg.CreatedAt) {
			return a.reg.CreatedAt.After(b.reg.CreatedAt)
		}
		return a.seq > b.seq
	})
	regs := make([]model.Registration, len(entries))
	for i, e := range entries {
		regs[i] = e.reg
	}
	return regs
}

func addIndex(idx map[string]map[string]struct{}, key, id string) {
	set, ok := idx[key]
	if !ok {
		set = make(map[string]struct{})
		idx[key] = set
	}
	set[id] = struct{}{}
}

func dropIndex(idx map[string]map[string]struct{}, key, id string) {
	set, ok := idx[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(idx, key)
	}
}
