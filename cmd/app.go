package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Shivanand-hulikatti/event-admission/internal/admission"
	"github.com/Shivanand-hulikatti/event-admission/internal/auth"
	"github.com/Shivanand-hulikatti/event-admission/internal/config"
	"github.com/Shivanand-hulikatti/event-admission/internal/database"
	"github.com/Shivanand-hulikatti/event-admission/internal/logging"
	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/Shivanand-hulikatti/event-admission/internal/query"
	"github.com/Shivanand-hulikatti/event-admission/internal/registration"
	"github.com/Shivanand-hulikatti/event-admission/internal/repository"
	"github.com/Shivanand-hulikatti/event-admission/internal/service"
	"github.com/Shivanand-hulikatti/event-admission/internal/validation"
)

// app holds the wired layers shared by every command.
type app struct {
	cfg          *config.Config
	log          *slog.Logger
	repo         repository.Repository
	engine       *admission.Engine
	tokens       *auth.Tokens
	events       *service.EventService
	participants *service.ParticipantService

	// hydrated lists events whose stored count disagreed with their
	// registrations at startup.
	hydrated []admission.Mismatch
}

// newApp loads configuration, connects storage, wires the layers and
// hydrates the engine. obs may be nil.
func newApp(ctx context.Context, obs admission.Observer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logging.Setup(os.Stderr, cfg.LogLevel)

	repo, err := openRepository(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}

	opts := []admission.Option{
		admission.WithClock(cfg.Clock()),
		admission.WithLogger(log),
		admission.WithLockTimeout(cfg.LockWaitTimeout),
	}
	if obs != nil {
		opts = append(opts, admission.WithObserver(obs))
	}
	engine := admission.New(registration.NewStore(), repo, opts...)
	tokens := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	v := validation.New()

	a := &app{
		cfg:    cfg,
		log:    log,
		repo:   repo,
		engine: engine,
		tokens: tokens,
		events: service.NewEventService(service.EventServiceConfig{
			Repo:      repo,
			Engine:    engine,
			Query:     query.New(engine),
			Validator: v,
			Clock:     cfg.Clock(),
			Logger:    log,
		}),
		participants: service.NewParticipantService(service.ParticipantServiceConfig{
			Repo:      repo,
			Engine:    engine,
			Tokens:    tokens,
			Validator: v,
			Logger:    log,
		}),
	}

	a.hydrated, err = a.events.Hydrate(ctx)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	if len(a.hydrated) > 0 {
		log.Warn("stored seat counts were rebuilt from registrations", "events", len(a.hydrated))
	}
	return a, nil
}

func openRepository(ctx context.Context, cfg database.Config, log *slog.Logger) (repository.Repository, error) {
	switch cfg.Driver {
	case database.DriverPostgres:
		pool, err := database.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info("connected to postgres", "host", cfg.Host, "db", cfg.DBName)
		return repository.NewPostgres(pool), nil
	case database.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		repo, err := repository.NewSQLite(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("opened sqlite", "path", cfg.SQLitePath)
		return repo, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func (a *app) seedDefaults(ctx context.Context) (int, error) {
	seeder := service.NewSeeder(a.participants, a.log)
	return seeder.SeedDefaults(ctx, []service.DefaultAccount{
		{Name: "Admin User", Email: a.cfg.Seed.AdminEmail, Password: a.cfg.Seed.AdminPassword, Role: model.RoleAdmin},
		{Name: "Regular User", Email: a.cfg.Seed.UserEmail, Password: a.cfg.Seed.UserPassword, Role: model.RoleUser},
	})
}

func (a *app) Close() error {
	return a.repo.Close()
}
