package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-admission/internal/admission"
	"github.com/Shivanand-hulikatti/event-admission/internal/auth"
	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/Shivanand-hulikatti/event-admission/internal/repository"
	"github.com/Shivanand-hulikatti/event-admission/internal/validation"
	"github.com/google/uuid"
)

// ParticipantService handles accounts and authentication.
type ParticipantService struct {
	repo     repository.Repository
	engine   *admission.Engine
	tokens   *auth.Tokens
	validate *validation.Validator
	hash     func(string) (string, error)
	log      *slog.Logger
}

// ParticipantServiceConfig holds the dependencies of a ParticipantService.
type ParticipantServiceConfig struct {
	Repo      repository.Repository
	Engine    *admission.Engine
	Tokens    *auth.Tokens
	Validator *validation.Validator
	Logger    *slog.Logger
}

// NewParticipantService constructs a ParticipantService.
func NewParticipantService(cfg ParticipantServiceConfig) *ParticipantService {
	s := &ParticipantService{
		repo:     cfg.Repo,
		engine:   cfg.Engine,
		tokens:   cfg.Tokens,
		validate: cfg.Validator,
		hash:     auth.HashPassword,
		log:      cfg.Logger,
	}
	if s.validate == nil {
		s.validate = validation.New()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates a user account and signs the caller in.
func (s *ParticipantService) Signup(ctx context.Context, req model.SignupRequest) (model.TokenResponse, error) {
	p, err := s.create(ctx, req, model.RoleUser)
	if err != nil {
		return model.TokenResponse{}, err
	}
	return s.issue(p)
}

// Create adds an account with an explicit role.
func (s *ParticipantService) Create(ctx context.Context, req model.CreateParticipantRequest) (model.Participant, error) {
	if err := s.validate.Struct(req); err != nil {
		return model.Participant{}, err
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return model.Participant{}, err
	}
	return s.create(ctx, req.SignupRequest, role)
}

func (s *ParticipantService) create(ctx context.Context, req model.SignupRequest, role model.Role) (model.Participant, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return model.Participant{}, err
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return model.Participant{}, err
	}
	p := model.Participant{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateParticipant(ctx, p); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return model.Participant{}, ErrEmailTaken
		}
		return model.Participant{}, fmt.Errorf("create participant: %w", err)
	}
	s.log.Info("participant created", "participant_id", p.ID, "role", p.Role)
	return p, nil
}

// Login exchanges an email and password for a bearer token.
func (s *ParticipantService) Login(ctx context.Context, req model.LoginRequest) (model.TokenResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return model.TokenResponse{}, err
	}
	p, err := s.repo.GetParticipantByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return model.TokenResponse{}, fmt.Errorf("login: %w", err)
	}
	if err := auth.CheckPassword(p.PasswordHash, req.Password); err != nil {
		return model.TokenResponse{}, err
	}
	return s.issue(p)
}

func (s *ParticipantService) issue(p model.Participant) (model.TokenResponse, error) {
	token, exp, err := s.tokens.Issue(p)
	if err != nil {
		return model.TokenResponse{}, err
	}
	return model.TokenResponse{Token: token, ExpiresAt: exp, User: &p}, nil
}

// Get returns a participant by id.
func (s *ParticipantService) Get(ctx context.Context, id string) (model.Participant, error) {
	p, err := s.repo.GetParticipant(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Participant{}, ErrParticipantNotFound
		}
		return model.Participant{}, fmt.Errorf("get participant: %w", err)
	}
	return p, nil
}

// List returns every participant.
func (s *ParticipantService) List(ctx context.Context) ([]model.Participant, error) {
	return s.repo.ListParticipants(ctx)
}

// Delete withdraws all of a participant's registrations and then deletes the
// account. It returns the number of registrations released.
func (s *ParticipantService) Delete(ctx context.Context, actorID, id string) (int, error) {
	if actorID == id {
		return 0, ErrSelfDelete
	}
	if _, err := s.Get(ctx, id); err != nil {
		return 0, err
	}
	// Retired first so no admission can slip in between the purge and the
	// row delete.
	released, err := s.engine.PurgeParticipant(ctx, id)
	if err != nil {
		s.engine.ReinstateParticipant(id)
		return released, err
	}
	if err := s.repo.DeleteParticipant(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return released, ErrParticipantNotFound
		}
		s.engine.ReinstateParticipant(id)
		return released, fmt.Errorf("delete participant: %w", err)
	}
	s.log.Info("participant deleted", "participant_id", id, "registrations_released", released)
	return released, nil
}
