// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Shivanand-hulikatti/event-admission/internal/admission"
	"github.com/Shivanand-hulikatti/event-admission/internal/auth"
	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/Shivanand-hulikatti/event-admission/internal/service"
	"github.com/Shivanand-hulikatti/event-admission/internal/validation"
	"github.com/go-chi/chi/v5"
)

// EventHandler holds the event and registration HTTP handlers.
type EventHandler struct {
	svc *service.EventService
	log *slog.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService, log *slog.Logger) *EventHandler {
	return &EventHandler{svc: svc, log: log}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// outcomeStatus maps an engine outcome onto an HTTP status code.
func outcomeStatus(o model.Outcome) int {
	switch o.Status {
	case model.StatusAdmitted:
		return http.StatusCreated
	case model.StatusRejected:
	default:
		return http.StatusOK
	}
	switch o.Reason {
	case model.ReasonNotFound, model.ReasonNotRegistered, model.ReasonParticipantRemoved:
		return http.StatusNotFound
	case model.ReasonAlreadyRegistered, model.ReasonEventFull:
		return http.StatusConflict
	case model.ReasonEventExpired:
		return http.StatusGone
	case model.ReasonCapacityBelowActive:
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

func writeOutcome(w http.ResponseWriter, o model.Outcome) {
	writeJSON(w, outcomeStatus(o), o)
}

// writeServiceError maps service and collaborator errors onto responses.
// Internal details are logged, never returned.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "validation failed", Fields: verrs.Messages()})
	case errors.Is(err, validation.ErrDateNotInFuture):
		writeError(w, http.StatusBadRequest, "Please enter a valid future date (YYYY-MM-DD)")
	case errors.Is(err, service.ErrEventNotFound), errors.Is(err, service.ErrParticipantNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSelfDelete):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, admission.ErrBusy):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "event is busy, please try again")
	case errors.Is(err, admission.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "registration service unavailable, please try again")
	default:
		log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// CreateEvent handles POST /events
// Creates a new event with the given name, date, and seat count.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.EventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	view, err := h.svc.CreateEvent(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// UpdateEvent handles PUT /events/{id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.EventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	o, err := h.svc.UpdateEvent(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeOutcome(w, o)
}

// DeleteEvent handles DELETE /events/{id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.DeleteEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeOutcome(w, o)
}

// ListEvents handles GET /events
// Returns a JSON array of all events with seat availability. With ?open=true
// only upcoming events that still have free seats are listed.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	open := false
	if raw := r.URL.Query().Get("open"); raw != "" {
		var err error
		if open, err = strconv.ParseBool(raw); err != nil {
			writeError(w, http.StatusBadRequest, "open must be true or false")
			return
		}
	}
	if open {
		writeJSON(w, http.StatusOK, h.svc.OpenEvents())
		return
	}
	writeJSON(w, http.StatusOK, h.svc.ListEvents())
}

// GetEvent handles GET /events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetEvent(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Register handles POST /events/{id}/register
// Admits the authenticated participant, or explains why not.
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	o, err := h.svc.Register(r.Context(), id.ParticipantID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeOutcome(w, o)
}

// Withdraw handles DELETE /events/{id}/register
func (h *EventHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	o, err := h.svc.Withdraw(r.Context(), id.ParticipantID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeOutcome(w, o)
}

// MyRegistrations handles GET /me/registrations
func (h *EventHandler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	regs := h.svc.ParticipantRegistrations(id.ParticipantID)
	if regs == nil {
		regs = []model.Registration{}
	}
	writeJSON(w, http.StatusOK, regs)
}

// ListRegistrations handles GET /events/{id}/registrations
// Returns all registrations for a given event.
func (h *EventHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.svc.ListRegistrations(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, regs)
}

// RemoveRegistration handles DELETE /registrations/{id}
func (h *EventHandler) RemoveRegistration(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.RemoveRegistration(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeOutcome(w, o)
}

// Audit handles GET /admin/audit
func (h *EventHandler) Audit(w http.ResponseWriter, r *http.Request) {
	mismatches, err := h.svc.Audit(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if mismatches == nil {
		mismatches = []admission.Mismatch{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"consistent": len(mismatches) == 0,
		"mismatches": mismatches,
	})
}

// ─── Health check ─────────────────────────────────────────────────────────────

// Pinger reports whether storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck handles GET /health
func HealthCheck(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
