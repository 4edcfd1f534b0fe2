// Package service implements business logic, validation, and orchestration
// between HTTP handlers, the admission engine and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-admission/internal/admission"
	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/Shivanand-hulikatti/event-admission/internal/query"
	"github.com/Shivanand-hulikatti/event-admission/internal/repository"
	"github.com/Shivanand-hulikatti/event-admission/internal/validation"
	"github.com/google/uuid"
)

// EventService orchestrates event-related business operations.
type EventService struct {
	repo     repository.Repository
	engine   *admission.Engine
	query    *query.Facade
	validate *validation.Validator
	now      func() time.Time
	log      *slog.Logger
}

// EventServiceConfig holds the dependencies of an EventService.
type EventServiceConfig struct {
	Repo      repository.Repository
	Engine    *admission.Engine
	Query     *query.Facade
	Validator *validation.Validator
	Clock     func() time.Time
	Logger    *slog.Logger
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(cfg EventServiceConfig) *EventService {
	s := &EventService{
		repo:     cfg.Repo,
		engine:   cfg.Engine,
		query:    cfg.Query,
		validate: cfg.Validator,
		now:      cfg.Clock,
		log:      cfg.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.validate == nil {
		s.validate = validation.New()
	}
	return s
}

// Hydrate loads persisted events and registrations into the engine. It must
// run once before the service takes traffic.
func (s *EventService) Hydrate(ctx context.Context) ([]admission.Mismatch, error) {
	events, err := s.repo.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("hydrate: %w", err)
	}
	regs, err := s.repo.ListRegistrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("hydrate: %w", err)
	}
	mismatches, err := s.engine.Load(events, regs)
	if err != nil {
		return mismatches, fmt.Errorf("hydrate: %w", err)
	}
	s.log.Info("engine hydrated", "events", len(events), "registrations", len(regs), "mismatches", len(mismatches))
	return mismatches, nil
}

// CreateEvent validates the request, persists the event and starts tracking
// its seats.
func (s *EventService) CreateEvent(ctx context.Context, req model.EventRequest) (model.EventView, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return model.EventView{}, err
	}
	date, err := validation.ParseFutureDate(req.Date, s.now())
	if err != nil {
		return model.EventView{}, err
	}

	ev := model.Event{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Date:       date,
		TotalSeats: req.TotalSeats,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.CreateEvent(ctx, ev); err != nil {
		return model.EventView{}, fmt.Errorf("create event: %w", err)
	}
	if err := s.engine.Track(ev); err != nil {
		return model.EventView{}, fmt.Errorf("create event: %w", err)
	}
	s.log.Info("event created", "event_id", ev.ID, "total_seats", ev.TotalSeats)

	if view, ok := s.query.Event(ev.ID); ok {
		return view, nil
	}
	return model.EventView{Event: ev, Seats: model.Seats{Total: ev.TotalSeats, Available: ev.TotalSeats}}, nil
}

// UpdateEvent changes an event's name, date and capacity.
func (s *EventService) UpdateEvent(ctx context.Context, id string, req model.EventRequest) (model.Outcome, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return model.Outcome{}, err
	}
	date, err := validation.ParseDate(req.Date)
	if err != nil {
		return model.Outcome{}, err
	}
	return s.engine.Edit(ctx, id, admission.EventEdit{
		Name:       req.Name,
		Date:       date,
		TotalSeats: req.TotalSeats,
	})
}

// DeleteEvent removes an event and its registrations.
func (s *EventService) DeleteEvent(ctx context.Context, id string) (model.Outcome, error) {
	return s.engine.DeleteEvent(ctx, id)
}

// ListEvents returns all events with their seat availability.
func (s *EventService) ListEvents() []model.EventView {
	return s.query.Events()
}

// OpenEvents returns the events participants can still register for, ordered
// by date.
func (s *EventService) OpenEvents() []model.EventView {
	return s.query.OpenEvents(s.now())
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(id string) (model.EventView, error) {
	view, ok := s.query.Event(id)
	if !ok {
		return model.EventView{}, ErrEventNotFound
	}
	return view, nil
}

// Register admits a participant to an event, or reports why not.
func (s *EventService) Register(ctx context.Context, participantID, eventID string) (model.Outcome, error) {
	if err := s.requireParticipant(ctx, participantID); err != nil {
		return model.Outcome{}, err
	}
	return s.engine.Register(ctx, participantID, eventID)
}

// Withdraw cancels a participant's registration for an event.
func (s *EventService) Withdraw(ctx context.Context, participantID, eventID string) (model.Outcome, error) {
	return s.engine.Withdraw(ctx, participantID, eventID)
}

// RemoveRegistration deletes any registration by id.
func (s *EventService) RemoveRegistration(ctx context.Context, registrationID string) (model.Outcome, error) {
	return s.engine.AdminRemove(ctx, registrationID)
}

// ListRegistrations returns all registrations for an event, most recent first.
func (s *EventService) ListRegistrations(eventID string) ([]model.Registration, error) {
	regs, ok := s.query.ForEvent(eventID)
	if !ok {
		return nil, ErrEventNotFound
	}
	return regs, nil
}

// ParticipantRegistrations returns a participant's registrations, most recent
// first.
func (s *EventService) ParticipantRegistrations(participantID string) []model.Registration {
	return s.query.ForParticipant(participantID)
}

// Audit checks every event's seat count against its in-memory and stored
// registrations.
func (s *EventService) Audit(ctx context.Context) ([]admission.Mismatch, error) {
	return s.engine.Audit(ctx, s.repo)
}

func (s *EventService) requireParticipant(ctx context.Context, id string) error {
	if _, err := s.repo.GetParticipant(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrParticipantNotFound
		}
		return fmt.Errorf("%w: %w", admission.ErrUnavailable, err)
	}
	return nil
}
