// Package admission decides registration requests for capacity-bounded
// events. The Engine is the only component allowed to change registration
// state: every register, withdraw and removal for one event runs inside that
// event's exclusive section, so the seat ledger and the registration set move
// together and never drift apart. Different events never wait on each other.
package admission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/Shivanand-hulikatti/event-admission/internal/registration"
)

// ErrUnavailable wraps persistence failures during a commit. The request had
// no effect and may be retried.
var ErrUnavailable = errors.New("registration service unavailable")

// ErrBusy is returned when the caller's context ended while waiting for an
// event's section. The request had no effect.
var ErrBusy = errors.New("event is busy")

// ErrEventExists is returned by Track for an id that is already tracked.
var ErrEventExists = errors.New("event already tracked")

var errUnknownEvent = errors.New("unknown event")

// Committer is the persistence collaborator. Each call is one durable
// transaction: on error nothing it was asked to write may remain visible.
type Committer interface {
	// CommitAdmission stores reg and sets the event's active count.
	CommitAdmission(ctx context.Context, reg model.Registration, activeCount int) error
	// CommitRelease deletes reg and sets the event's active count.
	CommitRelease(ctx context.Context, reg model.Registration, activeCount int) error
	// CommitEvent stores the event's name, date and capacity.
	CommitEvent(ctx context.Context, ev model.Event) error
	// CommitEventDeletion deletes the event and its registrations.
	CommitEventDeletion(ctx context.Context, eventID string) error
}

// Observer receives engine activity, typically for metrics.
type Observer interface {
	Outcome(op string, o model.Outcome)
	Fault(kind string)
	LockWait(d time.Duration)
	Active(eventID string, n int)
	Forget(eventID string)
}

const (
	faultCollaborator = "collaborator"
	faultConsistency  = "consistency"
)

// Engine is the admission engine.
type Engine struct {
	mu      sync.RWMutex
	events  map[string]*eventState
	retired map[string]struct{}

	store       *registration.Store
	commit      Committer
	obs         Observer
	log         *slog.Logger
	now         func() time.Time
	lockTimeout time.Duration
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock sets the clock used to decide whether an event is still open.
// The returned time's location decides what "today" means.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithObserver attaches an Observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.obs = o }
}

// WithLockTimeout bounds how long a request waits for an event's section.
// Zero means wait for as long as the request context allows.
func WithLockTimeout(d time.Duration) Option {
	return func(e *Engine) { e.lockTimeout = d }
}

// New returns an Engine over store, persisting through commit.
func New(store *registration.Store, commit Committer, opts ...Option) *Engine {
	e := &Engine{
		events:  make(map[string]*eventState),
		retired: make(map[string]struct{}),
		store:   store,
		commit:  commit,
		obs:     nopObserver{},
		log:     slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Track starts managing an event. Its ledger starts from ev.TotalSeats and
// ev.ActiveCount.
func (e *Engine) Track(ev model.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.events[ev.ID]; ok {
		return fmt.Errorf("track %s: %w", ev.ID, ErrEventExists)
	}
	st := newEventState(ev)
	e.events[ev.ID] = st
	// Nobody else can see st yet.
	_ = st.lock(context.Background())
	e.publish(st)
	st.unlock()
	return nil
}

// enter looks up the event and acquires its section. The returned state must
// be released with unlock.
func (e *Engine) enter(ctx context.Context, eventID string) (*eventState, error) {
	e.mu.RLock()
	st, ok := e.events[eventID]
	e.mu.RUnlock()
	if !ok {
		return nil, errUnknownEvent
	}

	waitCtx := ctx
	if e.lockTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, e.lockTimeout)
		defer cancel()
	}
	start := time.Now()
	err := st.lock(waitCtx)
	e.obs.LockWait(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBusy, eventID, err)
	}
	if st.deleted {
		st.unlock()
		return nil, errUnknownEvent
	}
	return st, nil
}

// Register admits participantID to eventID or says why not.
func (e *Engine) Register(ctx context.Context, participantID, eventID string) (model.Outcome, error) {
	const op = "register"
	st, err := e.enter(ctx, eventID)
	if err != nil {
		return e.entryFailure(op, err)
	}
	defer st.unlock()

	if e.isRetired(participantID) {
		return e.reject(op, model.ReasonParticipantRemoved), nil
	}
	if e.store.HasActive(participantID, eventID) {
		return e.reject(op, model.ReasonAlreadyRegistered), nil
	}
	if st.ledger.Available() == 0 {
		return e.reject(op, model.ReasonEventFull), nil
	}
	if !st.event.IsUpcoming(e.now()) {
		return e.reject(op, model.ReasonEventExpired), nil
	}

	if !st.ledger.TryReserve() {
		return e.reject(op, model.ReasonEventFull), nil
	}
	reg, err := e.store.Insert(participantID, eventID)
	if err != nil {
		e.releaseSeat(st)
		e.consistencyFault("registration store refused insert after uniqueness check",
			"event_id", eventID, "participant_id", participantID, "error", err)
		return e.reject(op, model.ReasonAlreadyRegistered), nil
	}

	active := st.ledger.Counts().Active
	if err := e.commit.CommitAdmission(context.WithoutCancel(ctx), reg, active); err != nil {
		if _, rmErr := e.store.RemoveByID(reg.ID); rmErr != nil {
			e.consistencyFault("rollback lost registration", "registration_id", reg.ID, "error", rmErr)
		}
		e.releaseSeat(st)
		return model.Outcome{}, e.collaboratorFault(op, eventID, err)
	}

	e.publish(st)
	return e.accept(op, model.Admitted(reg)), nil
}

// Withdraw removes participantID's registration for eventID and frees its
// seat.
func (e *Engine) Withdraw(ctx context.Context, participantID, eventID string) (model.Outcome, error) {
	const op = "withdraw"
	st, err := e.enter(ctx, eventID)
	if err != nil {
		return e.entryFailure(op, err)
	}
	defer st.unlock()

	reg, ok := e.store.Lookup(participantID, eventID)
	if !ok {
		return e.reject(op, model.ReasonNotRegistered), nil
	}
	if err := e.release(ctx, st, reg); err != nil {
		return model.Outcome{}, e.collaboratorFault(op, eventID, err)
	}
	return e.accept(op, model.Withdrawn(reg)), nil
}

// AdminRemove deletes a registration by id and frees its seat.
func (e *Engine) AdminRemove(ctx context.Context, registrationID string) (model.Outcome, error) {
	const op = "admin_remove"
	reg, ok := e.store.Get(registrationID)
	if !ok {
		return e.reject(op, model.ReasonNotFound), nil
	}
	st, err := e.enter(ctx, reg.EventID)
	if err != nil {
		return e.entryFailure(op, err)
	}
	defer st.unlock()

	// The registration may have been withdrawn while we waited.
	reg, ok = e.store.Get(registrationID)
	if !ok {
		return e.reject(op, model.ReasonNotFound), nil
	}
	if err := e.release(ctx, st, reg); err != nil {
		return model.Outcome{}, e.collaboratorFault(op, reg.EventID, err)
	}
	return e.accept(op, model.Removed(reg)), nil
}

// release persists the removal of reg first, then applies it in memory. Must
// be called while holding the section of reg's event.
func (e *Engine) release(ctx context.Context, st *eventState, reg model.Registration) error {
	active := st.ledger.Counts().Active - 1
	if active < 0 {
		active = 0
	}
	if err := e.commit.CommitRelease(context.WithoutCancel(ctx), reg, active); err != nil {
		return err
	}
	if _, err := e.store.RemoveByID(reg.ID); err != nil {
		e.consistencyFault("registration vanished inside its event section",
			"registration_id", reg.ID, "error", err)
	}
	e.releaseSeat(st)
	e.publish(st)
	return nil
}

func (e *Engine) releaseSeat(st *eventState) {
	if !st.ledger.Release() {
		e.consistencyFault("seat released below zero", "event_id", st.event.ID)
	}
}

func (e *Engine) entryFailure(op string, err error) (model.Outcome, error) {
	if errors.Is(err, errUnknownEvent) {
		return e.reject(op, model.ReasonNotFound), nil
	}
	return model.Outcome{}, err
}

func (e *Engine) reject(op string, reason model.Reason) model.Outcome {
	o := model.Rejected(reason)
	e.log.Debug("request rejected", "op", op, "reason", reason)
	e.obs.Outcome(op, o)
	return o
}

func (e *Engine) accept(op string, o model.Outcome) model.Outcome {
	e.obs.Outcome(op, o)
	return o
}

func (e *Engine) collaboratorFault(op, eventID string, err error) error {
	e.log.Error("commit failed, request rolled back", "op", op, "event_id", eventID, "error", err)
	e.obs.Fault(faultCollaborator)
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

func (e *Engine) consistencyFault(msg string, args ...any) {
	e.log.Error("consistency fault: "+msg, args...)
	e.obs.Fault(faultConsistency)
}

type nopObserver struct{}

func (nopObserver) Outcome(string, model.Outcome) {}
func (nopObserver) Fault(string)                  {}
func (nopObserver) LockWait(time.Duration)        {}
func (nopObserver) Active(string, int)            {}
func (nopObserver) Forget(string)                 {}
