package admission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/Shivanand-hulikatti/event-admission/internal/registration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDiskOnFire = errors.New("disk on fire")

// fakeCommitter records commits and can be told to fail or to stall.
type fakeCommitter struct {
	mu       sync.Mutex
	fail     error
	delay    time.Duration
	admitted map[string]model.Registration
	counts   map[string]int
	events   map[string]model.Event
	deleted  []string

	// When set, CommitAdmission signals entered and waits for hold.
	entered chan struct{}
	hold    chan struct{}
}

func newFakeCommitter() *fakeCommitter {
	return &fakeCommitter{
		admitted: make(map[string]model.Registration),
		counts:   make(map[string]int),
		events:   make(map[string]model.Event),
	}
}

func (f *fakeCommitter) setFail(err error) {
	f.mu.Lock()
	f.fail = err
	f.mu.Unlock()
}

func (f *fakeCommitter) begin() error {
	f.mu.Lock()
	delay, err := f.delay, f.fail
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return err
}

func (f *fakeCommitter) CommitAdmission(_ context.Context, reg model.Registration, active int) error {
	if hold := f.hold; hold != nil {
		f.entered <- struct{}{}
		<-hold
	}
	if err := f.begin(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.admitted[reg.ID] = reg
	f.counts[reg.EventID] = active
	return nil
}

func (f *fakeCommitter) CommitRelease(_ context.Context, reg model.Registration, active int) error {
	if err := f.begin(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.admitted, reg.ID)
	f.counts[reg.EventID] = active
	return nil
}

func (f *fakeCommitter) CommitEvent(_ context.Context, ev model.Event) error {
	if err := f.begin(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[ev.ID] = ev
	return nil
}

func (f *fakeCommitter) CommitEventDeletion(_ context.Context, eventID string) error {
	if err := f.begin(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, eventID)
	return nil
}

func (f *fakeCommitter) CountRegistrations(_ context.Context, eventID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, reg := range f.admitted {
		if reg.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (f *fakeCommitter) count(eventID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[eventID]
}

var today = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

type fixture struct {
	engine *Engine
	store  *registration.Store
	commit *fakeCommitter
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := registration.NewStore()
	commit := newFakeCommitter()
	opts = append([]Option{
		WithClock(func() time.Time { return today }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	return &fixture{engine: New(store, commit, opts...), store: store, commit: commit}
}

func (f *fixture) event(t *testing.T, id string, seats int, date time.Time) {
	t.Helper()
	require.NoError(t, f.engine.Track(model.Event{ID: id, Name: id, Date: date, TotalSeats: seats}))
}

func (f *fixture) seats(t *testing.T, eventID string) model.Seats {
	t.Helper()
	snap, ok := f.engine.Snapshot(eventID)
	require.True(t, ok)
	return snap.Seats
}

// requireConsistent checks the core invariant for one event.
func (f *fixture) requireConsistent(t *testing.T, eventID string) {
	t.Helper()
	snap, ok := f.engine.Snapshot(eventID)
	require.True(t, ok)
	assert.Equal(t, f.store.CountForEvent(eventID), snap.Seats.Active)
	assert.Len(t, snap.Registrations, snap.Seats.Active)
	assert.LessOrEqual(t, snap.Seats.Active, snap.Seats.Total)
	assert.GreaterOrEqual(t, snap.Seats.Active, 0)
	mismatches, err := f.engine.Audit(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

var tomorrow = today.AddDate(0, 0, 1)

func TestRegister_SingleSeatScenario(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.event(t, "ev", 1, tomorrow)
	ctx := context.Background()

	o, err := f.engine.Register(ctx, "A", "ev")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAdmitted, o.Status)
	require.NotNil(t, o.Registration)
	assert.Equal(t, 0, f.seats(t, "ev").Available)

	o, err = f.engine.Register(ctx, "B", "ev")
	require.NoError(t, err)
	assert.Equal(t, model.Rejected(model.ReasonEventFull), o)

	o, err = f.engine.Withdraw(ctx, "A", "ev")
	require.NoError(t, err)
	assert.Equal(t, model.StatusWithdrawn, o.Status)
	assert.Equal(t, 1, f.seats(t, "ev").Available)

	o, err = f.engine.Register(ctx, "B", "ev")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAdmitted, o.Status)
	f.requireConsistent(t, "ev")
	assert.Equal(t, 1, f.commit.count("ev"))
}

func TestRegister_Rejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("already registered", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.event(t, "ev", 5, tomorrow)
		_, err := f.engine.Register(ctx, "A", "ev")
		require.NoError(t, err)
		o, err := f.engine.Register(ctx, "A", "ev")
		require.NoError(t, err)
		assert.Equal(t, model.ReasonAlreadyRegistered, o.Reason)
		assert.Equal(t, 1, f.seats(t, "ev").Active)
	})

	t.Run("event dated today", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.event(t, "ev", 5, time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC))
		o, err := f.engine.Register(ctx, "A", "ev")
		require.NoError(t, err)
		assert.Equal(t, model.ReasonEventExpired, o.Reason)
		assert.Equal(t, 0, f.seats(t, "ev").Active)
	})

	t.Run("event in the past", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.event(t, "ev", 5, today.AddDate(0, -1, 0))
		o, err := f.engine.Register(ctx, "A", "ev")
		require.NoError(t, err)
		assert.Equal(t, model.ReasonEventExpired, o.Reason)
	})

	t.Run("zero seats", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.event(t, "ev", 0, tomorrow)
		o, err := f.engine.Register(ctx, "A", "ev")
		require.NoError(t, err)
		assert.Equal(t, model.ReasonEventFull, o.Reason)
	})

	t.Run("unknown event", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		o, err := f.engine.Register(ctx, "A", "missing")
		require.NoError(t, err)
		assert.Equal(t, model.ReasonNotFound, o.Reason)
	})
}

func TestRegister_ExpiryUsesClockLocation(t *testing.T) {
	t.Parallel()
	// 2026-03-10 22:00 UTC is already 2026-03-11 in Tokyo.
	tokyo := time.FixedZone("JST", 9*60*60)
	f := newFixture(t, WithClock(func() time.Time { return time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC).In(tokyo) }))
	f.event(t, "ev", 3, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC))

	o, err := f.engine.Register(context.Background(), "A", "ev")
	require.NoError(t, err)
	assert.Equal(t, model.ReasonEventExpired, o.Reason)
}

func TestRegister_ExistingRegistrationSurvivesExpiry(t *testing.T) {
	t.Parallel()
	now := today
	var mu sync.Mutex
	f := newFixture(t, WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}))
	f.event(t, "ev", 2, tomorrow)
	ctx := context.Background()

	_, err := f.engine.Register(ctx, "A", "ev")
	require.NoError(t, err)

	mu.Lock()
	now = tomorrow.AddDate(0, 0, 1)
	mu.Unlock()

	o, err := f.engine.Register(ctx, "B", "ev")
	require.NoError(t, err)
	assert.Equal(t, model.ReasonEventExpired, o.Reason)
	assert.True(t, f.store.HasActive("A", "ev"))
	assert.Equal(t, 1, f.seats(t, "ev").Active)
}

func TestRegister_NoOverbookingUnderConcurrency(t *testing.T) {
	t.Parallel()
	const seats, attempts = 10, 60
	f := newFixture(t)
	f.commit.delay = 200 * time.Microsecond
	f.event(t, "ev", seats, tomorrow)

	results := make(chan model.Outcome, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o, err := f.engine.Register(context.Background(), fmt.Sprintf("p%d", i), "ev")
			if err != nil {
				t.Errorf("register p%d: %v", i, err)
				return
			}
			results <- o
		}(i)
	}
	wg.Wait()
	close(results)

	admitted, full := 0, 0
	for o := range results {
		switch {
		case o.Status == model.StatusAdmitted:
			admitted++
		case o.Reason == model.ReasonEventFull:
			full++
		default:
			t.Errorf("unexpected outcome %+v", o)
		}
	}
	assert.Equal(t, seats, admitted)
	assert.Equal(t, attempts-seats, full)
	f.requireConsistent(t, "ev")
	assert.Equal(t, seats, f.commit.count("ev"))
}

func TestRegister_NoDoubleRegistrationUnderConcurrency(t *testing.T) {
	t.Parallel()
	const attempts = 25
	f := newFixture(t)
	f.event(t, "ev", 100, tomorrow)

	results := make(chan model.Outcome, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := f.engine.Register(context.Background(), "same", "ev")
			if err == nil {
				results <- o
			}
		}()
	}
	wg.Wait()
	close(results)

	admitted := 0
	for o := range results {
		if o.OK() {
			admitted++
			continue
		}
		assert.Equal(t, model.ReasonAlreadyRegistered, o.Reason)
	}
	assert.Equal(t, 1, admitted)
	f.requireConsistent(t, "ev")
}

func TestRegister_MixedConcurrentTraffic(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.event(t, "ev", 3, tomorrow)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := fmt.Sprintf("p%d", i%4)
			for j := 0; j < 30; j++ {
				if j%2 == 0 {
					_, _ = f.engine.Register(ctx, p, "ev")
				} else {
					_, _ = f.engine.Withdraw(ctx, p, "ev")
				}
			}
		}(i)
	}
	wg.Wait()
	f.requireConsistent(t, "ev")
}

func TestEvents_DoNotBlockEachOther(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.event(t, "slow", 5, tomorrow)
	f.event(t, "fast", 5, tomorrow)

	// Hold the slow event's section as a long commit would.
	slow, err := f.engine.enter(context.Background(), "slow")
	require.NoError(t, err)
	defer slow.unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	o, err := f.engine.Register(ctx, "A", "fast")
	require.NoError(t, err)
	assert.True(t, o.OK())
}

func TestRegister_TimeoutWhileWaitingHasNoEffect(t *testing.T) {
	t.Parallel()
	f := newFixture(t, WithLockTimeout(20*time.Millisecond))
	f.event(t, "ev", 5, tomorrow)

	held, err := f.engine.enter(context.Background(), "ev")
	require.NoError(t, err)

	_, err = f.engine.Register(context.Background(), "A", "ev")
	require.ErrorIs(t, err, ErrBusy)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.engine.Withdraw(ctx, "A", "ev")
	require.ErrorIs(t, err, context.Canceled)

	held.unlock()
	assert.False(t, f.store.HasActive("A", "ev"))
	assert.Equal(t, 0, f.seats(t, "ev").Active)
}

func TestRegister_CommitFailureRollsBack(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.event(t, "ev", 1, tomorrow)
	f.commit.setFail(errDiskOnFire)

	o, err := f.engine.Register(context.Background(), "A", "ev")
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, errDiskOnFire)
	assert.Equal(t, model.Outcome{}, o)
	assert.False(t, f.store.HasActive("A", "ev"))
	assert.Equal(t, 1, f.seats(t, "ev").Available)

	f.commit.setFail(nil)
	o, err = f.engine.Register(context.Background(), "A", "ev")
	require.NoError(t, err)
	assert.True(t, o.OK())
	f.requireConsistent(t, "ev")
}

func TestWithdraw_CommitFailureKeepsRegistration(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.event(t, "ev", 2, tomorrow)
	_, err := f.engine.Register(context.Background(), "A", "ev")
	require.NoError(t, err)

	f.commit.setFail(errDiskOnFire)
	_, err = f.engine.Withdraw(context.Background(), "A", "ev")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, f.store.HasActive("A", "ev"))
	assert.Equal(t, 1, f.seats(t, "ev").Active)
	f.requireConsistent(t, "ev")
}

func TestWithdraw_RoundTripRestoresState(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.event(t, "ev", 3, tomorrow)
	ctx := context.Background()
	_, err := f.engine.Register(ctx, "X", "ev")
	require.NoError(t, err)

	before, _ := f.engine.Snapshot("ev")

	_, err = f.engine.Register(ctx, "A", "ev")
	require.NoError(t, err)
	o, err := f.engine.Withdraw(ctx, "A", "ev")
	require.NoError(t, err)
	require.Equal(t, model.StatusWithdrawn, o.Status)

	after, _ := f.engine.Snapshot("ev")
	assert.Equal(t, before.Seats, after.Seats)
	assert.Equal(t, before.Registrations, after.Registrations)
}

func TestWithdraw_NotRegisteredIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.event(t, "ev", 3, tomorrow)
	before, _ := f.engine.Snapshot("ev")

	for i := 0; i < 3; i++ {
		o, err := f.engine.Withdraw(context.Background(), "nobody", "ev")
		require.NoError(t, err)
		assert.Equal(t, model.ReasonNotRegistered, o.Reason)
	}
	after, _ := f.engine.Snapshot("ev")
	assert.Equal(t, before, after, "a rejection must not publish a new snapshot")
}

func TestAdminRemove(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.event(t, "ev", 2, tomorrow)
	ctx := context.Background()
	o, err := f.engine.Register(ctx, "A", "ev")
	require.NoError(t, err)
	id := o.Registration.ID

	o, err = f.engine.AdminRemove(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRemoved, o.Status)
	assert.Equal(t, "ev", o.Registration.EventID)
	assert.Equal(t, 2, f.seats(t, "ev").Available)

	o, err = f.engine.AdminRemove(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ReasonNotFound, o.Reason)
	f.requireConsistent(t, "ev")
}

func TestResize(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.event(t, "ev", 3, tomorrow)
	ctx := context.Background()
	for _, p := range []string{"A", "B", "C"} {
		_, err := f.engine.Register(ctx, p, "ev")
		require.NoError(t, err)
	}

	o, err := f.engine.Resize(ctx, "ev", 2)
	require.NoError(t, err)
	assert.Equal(t, model.ReasonCapacityBelowActive, o.Reason)
	assert.Equal(t, model.Seats{Total: 3, Active: 3, Available: 0}, f.seats(t, "ev"))

	o, err = f.engine.Resize(ctx, "ev", 5)
	require.NoError(t, err)
	assert.Equal(t, model.StatusUpdated, o.Status)
	assert.Equal(t, model.Seats{Total: 5, Active: 3, Available: 2}, f.seats(t, "ev"))
	assert.Equal(t, 5, f.commit.events["ev"].TotalSeats)
}

func TestEdit_ChangesDetails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.event(t, "ev", 3, tomorrow)
	later := tomorrow.AddDate(0, 1, 0)

	o, err := f.engine.Edit(context.Background(), "ev", EventEdit{Name: "Renamed", Date: later, TotalSeats: 4})
	require.NoError(t, err)
	require.True(t, o.OK())

	snap, _ := f.engine.Snapshot("ev")
	assert.Equal(t, "Renamed", snap.Event.Name)
	assert.Equal(t, later, snap.Event.Date)
	assert.Equal(t, 4, snap.Seats.Total)
}

func TestDeleteEvent_CascadesRegistrations(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.event(t, "ev", 3, tomorrow)
	ctx := context.Background()
	_, err := f.engine.Register(ctx, "A", "ev")
	require.NoError(t, err)

	o, err := f.engine.DeleteEvent(ctx, "ev")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRemoved, o.Status)
	assert.False(t, f.store.HasActive("A", "ev"))
	_, ok := f.engine.Snapshot("ev")
	assert.False(t, ok)
	assert.Equal(t, []string{"ev"}, f.commit.deleted)

	o, err = f.engine.Register(ctx, "B", "ev")
	require.NoError(t, err)
	assert.Equal(t, model.ReasonNotFound, o.Reason)
}

func TestPurgeParticipant(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.event(t, "e1", 3, tomorrow)
	f.event(t, "e2", 3, tomorrow)
	ctx := context.Background()
	for _, ev := range []string{"e1", "e2"} {
		_, err := f.engine.Register(ctx, "A", ev)
		require.NoError(t, err)
	}
	_, err := f.engine.Register(ctx, "B", "e1")
	require.NoError(t, err)

	n, err := f.engine.PurgeParticipant(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, f.store.ListForParticipant("A"))
	assert.Equal(t, 1, f.seats(t, "e1").Active)
	assert.Equal(t, 0, f.seats(t, "e2").Active)
}

func TestRegister_RejectsRetiredParticipant(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.event(t, "ev", 2, tomorrow)
	ctx := context.Background()

	f.engine.RetireParticipant("A")
	o, err := f.engine.Register(ctx, "A", "ev")
	require.NoError(t, err)
	assert.Equal(t, model.ReasonParticipantRemoved, o.Reason)
	assert.Equal(t, 0, f.seats(t, "ev").Active)

	f.engine.ReinstateParticipant("A")
	o, err = f.engine.Register(ctx, "A", "ev")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAdmitted, o.Status)
	f.requireConsistent(t, "ev")
}

func TestPurgeParticipant_WithdrawsAdmissionInFlight(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.event(t, "e1", 1, tomorrow)
	f.event(t, "e2", 1, tomorrow)
	ctx := context.Background()

	f.commit.entered = make(chan struct{})
	f.commit.hold = make(chan struct{})
	registered := make(chan model.Outcome, 1)
	go func() {
		o, _ := f.engine.Register(ctx, "A", "e1")
		registered <- o
	}()
	<-f.commit.entered

	purged := make(chan int, 1)
	go func() {
		n, err := f.engine.PurgeParticipant(ctx, "A")
		assert.NoError(t, err)
		purged <- n
	}()
	require.Eventually(t, func() bool { return f.engine.isRetired("A") }, time.Second, time.Millisecond)

	o, err := f.engine.Register(ctx, "A", "e2")
	require.NoError(t, err)
	assert.Equal(t, model.ReasonParticipantRemoved, o.Reason)

	close(f.commit.hold)
	assert.Equal(t, model.StatusAdmitted, (<-registered).Status)
	assert.Equal(t, 1, <-purged)

	assert.Empty(t, f.store.ListForParticipant("A"))
	for _, ev := range []string{"e1", "e2"} {
		assert.Equal(t, 0, f.seats(t, ev).Active)
		assert.Equal(t, 0, f.commit.count(ev))
	}
	mismatches, err := f.engine.Audit(ctx, f.commit)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestAudit_ComparesLedgerWithDurableRegistrations(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.event(t, "ev", 2, tomorrow)
	ctx := context.Background()
	o, err := f.engine.Register(ctx, "A", "ev")
	require.NoError(t, err)

	mismatches, err := f.engine.Audit(ctx, f.commit)
	require.NoError(t, err)
	assert.Empty(t, mismatches)

	f.commit.mu.Lock()
	delete(f.commit.admitted, o.Registration.ID)
	f.commit.mu.Unlock()

	zero := 0
	mismatches, err = f.engine.Audit(ctx, f.commit)
	require.NoError(t, err)
	assert.Equal(t, []Mismatch{{EventID: "ev", TotalSeats: 2, LedgerActive: 1, StoreActive: 1, StorageActive: &zero}}, mismatches)
}

func TestLoad_RebuildsLedgerFromRegistrations(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	events := []model.Event{
		{ID: "ok", Date: tomorrow, TotalSeats: 3, ActiveCount: 1},
		{ID: "drifted", Date: tomorrow, TotalSeats: 3, ActiveCount: 3},
	}
	regs := []model.Registration{
		{ID: "r1", EventID: "ok", ParticipantID: "A"},
		{ID: "r2", EventID: "drifted", ParticipantID: "A"},
		{ID: "r3", EventID: "ghost", ParticipantID: "A"},
	}

	mismatches, err := f.engine.Load(events, regs)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, Mismatch{EventID: "drifted", TotalSeats: 3, LedgerActive: 3, StoreActive: 1}, mismatches[0])

	assert.Equal(t, 1, f.seats(t, "drifted").Active)
	f.requireConsistent(t, "ok")
	f.requireConsistent(t, "drifted")
}

func TestTrack_RejectsDuplicate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.event(t, "ev", 1, tomorrow)
	err := f.engine.Track(model.Event{ID: "ev"})
	require.ErrorIs(t, err, ErrEventExists)
}

func TestAudit_ReportsRegistrationsForUntrackedEvents(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.event(t, "ev", 1, tomorrow)
	require.NoError(t, f.store.Restore(model.Registration{ID: "r1", EventID: "orphan", ParticipantID: "A"}))

	mismatches, err := f.engine.Audit(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []Mismatch{{EventID: "orphan", StoreActive: 1}}, mismatches)
}
