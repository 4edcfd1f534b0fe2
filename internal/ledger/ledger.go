// Package ledger holds the seat accounting for a single event.
package ledger

import (
	"errors"
	"sync"
)

// ErrBelowActive is returned by Resize when the new capacity would be lower
// than the number of seats already held.
var ErrBelowActive = errors.New("capacity below active registrations")

// ErrNegativeCapacity is returned for capacities below zero.
var ErrNegativeCapacity = errors.New("capacity must not be negative")

// Counts is a consistent copy of a ledger's state.
type Counts struct {
	Total  int
	Active int
}

// Available returns the free seats in c, never negative.
func (c Counts) Available() int {
	if c.Active >= c.Total {
		return 0
	}
	return c.Total - c.Active
}

// Ledger tracks total and held seats for one event. All methods are safe for
// concurrent use; TryReserve never admits more holders than there are seats.
type Ledger struct {
	mu     sync.Mutex
	total  int
	active int
}

// New returns a ledger with the given capacity and seats already held.
// Negative inputs are treated as zero.
func New(total, active int) *Ledger {
	if total < 0 {
		total = 0
	}
	if active < 0 {
		active = 0
	}
	return &Ledger{total: total, active: active}
}

// TryReserve holds one seat if any is free.
func (l *Ledger) TryReserve() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active >= l.total {
		return false
	}
	l.active++
	return true
}

// Release frees one seat. Releasing at zero is a no-op that returns false so
// the caller can report the accounting error.
func (l *Ledger) Release() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active <= 0 {
		l.active = 0
		return false
	}
	l.active--
	return true
}

// Available returns the number of free seats.
func (l *Ledger) Available() int {
	return l.Counts().Available()
}

// Resize changes the capacity. Existing holders are never evicted: a
// capacity lower than the active count is refused and nothing changes.
func (l *Ledger) Resize(total int) error {
	if total < 0 {
		return ErrNegativeCapacity
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if total < l.active {
		return ErrBelowActive
	}
	l.total = total
	return nil
}

// Counts returns total and active seats read together.
func (l *Ledger) Counts() Counts {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Counts{Total: l.total, Active: l.active}
}
