package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/uptrace/bun"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

type eventRow struct {
	bun.BaseModel `bun:"table:events"`

	ID          string    `bun:"id,pk"`
	Name        string    `bun:"name,notnull"`
	EventDate   time.Time `bun:"event_date,notnull"`
	TotalSeats  int       `bun:"total_seats,notnull"`
	ActiveCount int       `bun:"active_count,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

type participantRow struct {
	bun.BaseModel `bun:"table:participants"`

	ID           string    `bun:"id,pk"`
	FullName     string    `bun:"full_name,notnull"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Role         string    `bun:"role,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

type registrationRow struct {
	bun.BaseModel `bun:"table:registrations"`

	ID            string    `bun:"id,pk"`
	EventID       string    `bun:"event_id,notnull,unique:event_participant"`
	ParticipantID string    `bun:"participant_id,notnull,unique:event_participant"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

func (r eventRow) toModel() model.Event {
	return model.Event{
		ID:          r.ID,
		Name:        r.Name,
		Date:        r.EventDate.UTC(),
		TotalSeats:  r.TotalSeats,
		ActiveCount: r.ActiveCount,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

func (r participantRow) toModel() (model.Participant, error) {
	role, err := model.ParseRole(r.Role)
	if err != nil {
		return model.Participant{}, fmt.Errorf("participant %s: %w", r.ID, err)
	}
	return model.Participant{
		ID:           r.ID,
		Name:         r.FullName,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         role,
		CreatedAt:    r.CreatedAt.UTC(),
	}, nil
}

func (r registrationRow) toModel() model.Registration {
	return model.Registration{
		ID:            r.ID,
		EventID:       r.EventID,
		ParticipantID: r.ParticipantID,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

// SQLite stores everything in an embedded SQLite database through bun.
type SQLite struct {
	db *bun.DB
}

// NewSQLite wraps db and creates the schema if it does not exist yet.
func NewSQLite(ctx context.Context, db *bun.DB) (*SQLite, error) {
	if err := createSQLiteSchema(ctx, db); err != nil {
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func createSQLiteSchema(ctx context.Context, db *bun.DB) error {
	if err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, m := range []any{
			(*eventRow)(nil),
			(*participantRow)(nil),
		} {
			if _, err := tx.NewCreateTable().
				Model(m).
				IfNotExists().
				Exec(ctx); err != nil {
				return err
			}
		}
		if _, err := tx.NewCreateTable().
			Model((*registrationRow)(nil)).
			IfNotExists().
			ForeignKey(`("event_id") REFERENCES "events" ("id") ON DELETE CASCADE`).
			ForeignKey(`("participant_id") REFERENCES "participants" ("id") ON DELETE CASCADE`).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewCreateIndex().
			Model((*registrationRow)(nil)).
			Index("registrations_participant_idx").
			Column("participant_id").
			IfNotExists().
			Exec(ctx)
		return err
	}); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (r *SQLite) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database.
func (r *SQLite) Close() error {
	return r.db.Close()
}

func isSQLiteUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// CreateEvent inserts a new event.
func (r *SQLite) CreateEvent(ctx context.Context, ev model.Event) error {
	row := eventRow{
		ID:          ev.ID,
		Name:        ev.Name,
		EventDate:   ev.Date.UTC(),
		TotalSeats:  ev.TotalSeats,
		ActiveCount: ev.ActiveCount,
		CreatedAt:   ev.CreatedAt.UTC(),
	}
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		if isSQLiteUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetEvent returns a single event or ErrNotFound.
func (r *SQLite) GetEvent(ctx context.Context, id string) (model.Event, error) {
	var row eventRow
	if err := r.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, ErrNotFound
		}
		return model.Event{}, fmt.Errorf("get event: %w", err)
	}
	return row.toModel(), nil
}

// ListEvents returns all events ordered by date.
func (r *SQLite) ListEvents(ctx context.Context) ([]model.Event, error) {
	var rows []eventRow
	if err := r.db.NewSelect().
		Model(&rows).
		Order("event_date ASC", "name ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	events := make([]model.Event, len(rows))
	for i, row := range rows {
		events[i] = row.toModel()
	}
	return events, nil
}

// CommitEvent stores an event's editable fields.
func (r *SQLite) CommitEvent(ctx context.Context, ev model.Event) error {
	res, err := r.db.NewUpdate().
		Model((*eventRow)(nil)).
		Set("name = ?", ev.Name).
		Set("event_date = ?", ev.Date.UTC()).
		Set("total_seats = ?", ev.TotalSeats).
		Where("id = ?", ev.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return requireAffected(res)
}

// CommitEventDeletion deletes an event and its registrations.
func (r *SQLite) CommitEventDeletion(ctx context.Context, eventID string) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*registrationRow)(nil)).
			Where("event_id = ?", eventID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete event registrations: %w", err)
		}
		res, err := tx.NewDelete().
			Model((*eventRow)(nil)).
			Where("id = ?", eventID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		return requireAffected(res)
	})
}

// CommitAdmission inserts a registration and stores the event's new active
// count in one transaction.
func (r *SQLite) CommitAdmission(ctx context.Context, reg model.Registration, activeCount int) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var ev eventRow
		if err := tx.NewSelect().
			Model(&ev).
			Column("total_seats").
			Where("id = ?", reg.EventID).
			Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("read event: %w", err)
		}
		if activeCount > ev.TotalSeats {
			return ErrCapacityExceeded
		}

		row := registrationRow{
			ID:            reg.ID,
			EventID:       reg.EventID,
			ParticipantID: reg.ParticipantID,
			CreatedAt:     reg.CreatedAt.UTC(),
		}
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			if isSQLiteUniqueViolation(err) {
				return ErrAlreadyExists
			}
			return fmt.Errorf("insert registration: %w", err)
		}
		if _, err := tx.NewUpdate().
			Model((*eventRow)(nil)).
			Set("active_count = ?", activeCount).
			Where("id = ?", reg.EventID).
			Exec(ctx); err != nil {
			return fmt.Errorf("update active_count: %w", err)
		}
		return nil
	})
}

// CommitRelease deletes a registration and stores the event's new active
// count in one transaction.
func (r *SQLite) CommitRelease(ctx context.Context, reg model.Registration, activeCount int) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*registrationRow)(nil)).
			Where("id = ?", reg.ID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete registration: %w", err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}
		if _, err := tx.NewUpdate().
			Model((*eventRow)(nil)).
			Set("active_count = ?", activeCount).
			Where("id = ?", reg.EventID).
			Exec(ctx); err != nil {
			return fmt.Errorf("update active_count: %w", err)
		}
		return nil
	})
}

// ListRegistrations returns every registration, oldest first.
func (r *SQLite) ListRegistrations(ctx context.Context) ([]model.Registration, error) {
	var rows []registrationRow
	if err := r.db.NewSelect().
		Model(&rows).
		Order("created_at ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	regs := make([]model.Registration, len(rows))
	for i, row := range rows {
		regs[i] = row.toModel()
	}
	return regs, nil
}

// CountRegistrations counts the stored registrations for an event.
func (r *SQLite) CountRegistrations(ctx context.Context, eventID string) (int, error) {
	n, err := r.db.NewSelect().
		Model((*registrationRow)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}

// CreateParticipant inserts a participant; a taken email yields
// ErrAlreadyExists.
func (r *SQLite) CreateParticipant(ctx context.Context, p model.Participant) error {
	row := participantRow{
		ID:           p.ID,
		FullName:     p.Name,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Role:         string(p.Role),
		CreatedAt:    p.CreatedAt.UTC(),
	}
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		if isSQLiteUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (r *SQLite) getParticipant(ctx context.Context, column, value string) (model.Participant, error) {
	var row participantRow
	if err := r.db.NewSelect().
		Model(&row).
		Where("? = ?", bun.Ident(column), value).
		Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Participant{}, ErrNotFound
		}
		return model.Participant{}, fmt.Errorf("get participant: %w", err)
	}
	return row.toModel()
}

// GetParticipant returns a participant by id or ErrNotFound.
func (r *SQLite) GetParticipant(ctx context.Context, id string) (model.Participant, error) {
	return r.getParticipant(ctx, "id", id)
}

// GetParticipantByEmail returns a participant by email or ErrNotFound.
func (r *SQLite) GetParticipantByEmail(ctx context.Context, email string) (model.Participant, error) {
	return r.getParticipant(ctx, "email", email)
}

// ListParticipants returns all participants ordered by name.
func (r *SQLite) ListParticipants(ctx context.Context) ([]model.Participant, error) {
	var rows []participantRow
	if err := r.db.NewSelect().
		Model(&rows).
		Order("full_name ASC", "email ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	out := make([]model.Participant, 0, len(rows))
	for _, row := range rows {
		p, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// CountParticipantsByRole counts participants holding role.
func (r *SQLite) CountParticipantsByRole(ctx context.Context, role model.Role) (int, error) {
	n, err := r.db.NewSelect().
		Model((*participantRow)(nil)).
		Where("LOWER(role) = ?", string(role)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return n, nil
}

// DeleteParticipant deletes a participant together with any registrations
// still referencing it.
func (r *SQLite) DeleteParticipant(ctx context.Context, id string) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model((*eventRow)(nil)).
			Set("active_count = MAX(active_count - 1, 0)").
			Where("id IN (?)", tx.NewSelect().
				Model((*registrationRow)(nil)).
				Column("event_id").
				Where("participant_id = ?", id)).
			Exec(ctx); err != nil {
			return fmt.Errorf("release participant seats: %w", err)
		}
		if _, err := tx.NewDelete().
			Model((*registrationRow)(nil)).
			Where("participant_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete participant registrations: %w", err)
		}
		res, err := tx.NewDelete().
			Model((*participantRow)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete participant: %w", err)
		}
		return requireAffected(res)
	})
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
