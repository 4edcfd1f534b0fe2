package admission

import (
	"context"
	"sync/atomic"

	"github.com/Shivanand-hulikatti/event-admission/internal/ledger"
	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"golang.org/x/sync/semaphore"
)

// eventState is everything the engine keeps for one event. sem is the
// per-event exclusive section, a weight-one semaphore so waiting can be
// abandoned when the caller's context ends. event and deleted are only
// touched while the section is held.
type eventState struct {
	sem     *semaphore.Weighted
	ledger  *ledger.Ledger
	event   model.Event
	deleted bool
	version uint64
	snap    atomic.Pointer[Snapshot]
}

func newEventState(ev model.Event) *eventState {
	return &eventState{
		sem:    semaphore.NewWeighted(1),
		ledger: ledger.New(ev.TotalSeats, ev.ActiveCount),
		event:  ev,
	}
}

// lock enters the section or gives up when ctx is done. A caller that gives
// up has not touched any state.
func (s *eventState) lock(ctx context.Context) error {
	if s.sem.TryAcquire(1) {
		return nil
	}
	return s.sem.Acquire(ctx, 1)
}

func (s *eventState) unlock() {
	s.sem.Release(1)
}
