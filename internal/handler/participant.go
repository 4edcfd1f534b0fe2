package handler

import (
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/event-admission/internal/auth"
	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/Shivanand-hulikatti/event-admission/internal/service"
	"github.com/go-chi/chi/v5"
)

// ParticipantHandler serves account and authentication routes.
type ParticipantHandler struct {
	svc *service.ParticipantService
	log *slog.Logger
}

// NewParticipantHandler constructs a ParticipantHandler.
func NewParticipantHandler(svc *service.ParticipantService, log *slog.Logger) *ParticipantHandler {
	return &ParticipantHandler{svc: svc, log: log}
}

// Signup handles POST /auth/signup
func (h *ParticipantHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	resp, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Login handles POST /auth/login
func (h *ParticipantHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	resp, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /participants
func (h *ParticipantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateParticipantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	p, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// List handles GET /participants
func (h *ParticipantHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if all == nil {
		all = []model.Participant{}
	}
	writeJSON(w, http.StatusOK, all)
}

// Delete handles DELETE /participants/{id}
func (h *ParticipantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())
	released, err := h.svc.Delete(r.Context(), actor.ParticipantID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":                "Participant deleted successfully",
		"registrations_released": released,
	})
}
