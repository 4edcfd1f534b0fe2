package query

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-admission/internal/admission"
	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/Shivanand-hulikatti/event-admission/internal/registration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopCommitter struct{}

func (nopCommitter) CommitAdmission(context.Context, model.Registration, int) error { return nil }
func (nopCommitter) CommitRelease(context.Context, model.Registration, int) error   { return nil }
func (nopCommitter) CommitEvent(context.Context, model.Event) error                 { return nil }
func (nopCommitter) CommitEventDeletion(context.Context, string) error              { return nil }

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newEngine(t *testing.T) *admission.Engine {
	t.Helper()
	var tick time.Duration
	var mu sync.Mutex
	store := registration.NewStore(registration.WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick += time.Second
		return now.Add(tick)
	}))
	return admission.New(store, nopCommitter{},
		admission.WithClock(func() time.Time { return now }),
		admission.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestFacade_SeatViews(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	require.NoError(t, e.Track(model.Event{ID: "ev", Name: "Go Meetup", Date: now.AddDate(0, 0, 7), TotalSeats: 2}))
	f := New(e)

	avail, ok := f.AvailableSeats("ev")
	require.True(t, ok)
	assert.Equal(t, 2, avail)

	for _, p := range []string{"a", "b"} {
		_, err := e.Register(context.Background(), p, "ev")
		require.NoError(t, err)
	}
	full, ok := f.IsFull("ev")
	require.True(t, ok)
	assert.True(t, full)

	view, ok := f.Event("ev")
	require.True(t, ok)
	assert.Equal(t, 2, view.ActiveCount)
	assert.Equal(t, model.Seats{Total: 2, Active: 2, Available: 0}, view.Seats)

	_, ok = f.Seats("missing")
	assert.False(t, ok)
	full, ok = f.IsFull("missing")
	assert.False(t, ok)
	assert.False(t, full)
}

func TestFacade_Listings(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	require.NoError(t, e.Track(model.Event{ID: "late", Name: "B", Date: now.AddDate(0, 1, 0), TotalSeats: 5}))
	require.NoError(t, e.Track(model.Event{ID: "soon", Name: "A", Date: now.AddDate(0, 0, 1), TotalSeats: 5}))
	f := New(e)
	ctx := context.Background()

	_, err := e.Register(ctx, "alice", "late")
	require.NoError(t, err)
	_, err = e.Register(ctx, "bob", "soon")
	require.NoError(t, err)
	_, err = e.Register(ctx, "alice", "soon")
	require.NoError(t, err)

	events := f.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "soon", events[0].ID)

	regs, ok := f.ForEvent("soon")
	require.True(t, ok)
	require.Len(t, regs, 2)
	assert.Equal(t, "alice", regs[0].ParticipantID)

	mine := f.ForParticipant("alice")
	require.Len(t, mine, 2)
	assert.Equal(t, "soon", mine[0].EventID)
	assert.Equal(t, "late", mine[1].EventID)

	regs[0].ParticipantID = "mallory"
	again, _ := f.ForEvent("soon")
	assert.Equal(t, "alice", again[0].ParticipantID, "callers get a copy")
}

func TestFacade_OpenEvents(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	for _, ev := range []model.Event{
		{ID: "later", Name: "C", Date: now.AddDate(0, 0, 9), TotalSeats: 3},
		{ID: "full", Name: "B", Date: now.AddDate(0, 0, 2), TotalSeats: 1},
		{ID: "today", Name: "A", Date: now, TotalSeats: 3},
		{ID: "next", Name: "D", Date: now.AddDate(0, 0, 1), TotalSeats: 3},
	} {
		require.NoError(t, e.Track(ev))
	}
	_, err := e.Register(context.Background(), "alice", "full")
	require.NoError(t, err)
	f := New(e)

	var ids []string
	for _, v := range f.OpenEvents(now) {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []string{"next", "later"}, ids)
	assert.Len(t, f.Events(), 4)

	assert.Empty(t, f.OpenEvents(now.AddDate(0, 1, 0)))
}

func TestFacade_ReadsNeverSeeTornState(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	require.NoError(t, e.Track(model.Event{ID: "ev", Date: now.AddDate(0, 0, 3), TotalSeats: 4}))
	f := New(e)
	ctx := context.Background()

	stop := make(chan struct{})
	var writers sync.WaitGroup
	for i := 0; i < 4; i++ {
		writers.Add(1)
		go func(i int) {
			defer writers.Done()
			p := fmt.Sprintf("p%d", i)
			for {
				select {
				case <-stop:
					return
				default:
				}
				_, _ = e.Register(ctx, p, "ev")
				_, _ = e.Withdraw(ctx, p, "ev")
			}
		}(i)
	}

	for i := 0; i < 2000; i++ {
		snap, ok := e.Snapshot("ev")
		require.True(t, ok)
		require.Equal(t, snap.Seats.Active, len(snap.Registrations))
		require.Equal(t, snap.Seats.Total-snap.Seats.Active, snap.Seats.Available)
		_ = f.ForParticipant("p0")
	}
	close(stop)
	writers.Wait()
}
