package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
)

// DefaultAccount is an account created on a fresh database.
type DefaultAccount struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

// Seeder creates default accounts.
type Seeder struct {
	participants *ParticipantService
	log          *slog.Logger
}

// NewSeeder returns a Seeder creating accounts through participants.
func NewSeeder(participants *ParticipantService, log *slog.Logger) *Seeder {
	if log == nil {
		log = slog.Default()
	}
	return &Seeder{participants: participants, log: log}
}

// SeedDefaults creates each account whose role has no participants yet, and
// returns how many were created.
func (s *Seeder) SeedDefaults(ctx context.Context, accounts []DefaultAccount) (int, error) {
	created := 0
	for _, acct := range accounts {
		n, err := s.participants.repo.CountParticipantsByRole(ctx, acct.Role)
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", acct.Role, err)
		}
		if n > 0 {
			continue
		}
		p, err := s.participants.create(ctx, model.SignupRequest{
			Name:     acct.Name,
			Email:    acct.Email,
			Password: acct.Password,
		}, acct.Role)
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", acct.Role, err)
		}
		s.log.Info("default account created", "email", p.Email, "role", p.Role)
		created++
	}
	return created, nil
}
