package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// Postgres stores everything in PostgreSQL through a pgx pool. It uses pgx
// directly (no ORM).
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres constructs a Postgres repository.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// Ping checks the connection.
func (r *Postgres) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Close releases the pool.
func (r *Postgres) Close() error {
	r.db.Close()
	return nil
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// ─── Events ───────────────────────────────────────────────────────────────────

// CreateEvent inserts a new event.
func (r *Postgres) CreateEvent(ctx context.Context, ev model.Event) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, name, event_date, total_seats, active_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.ID, ev.Name, ev.Date, ev.TotalSeats, ev.ActiveCount, ev.CreatedAt,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetEvent returns a single event or ErrNotFound.
func (r *Postgres) GetEvent(ctx context.Context, id string) (model.Event, error) {
	var e model.Event
	err := r.db.QueryRow(ctx,
		`SELECT id, name, event_date, total_seats, active_count, created_at
		 FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Name, &e.Date, &e.TotalSeats, &e.ActiveCount, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Event{}, ErrNotFound
		}
		return model.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// ListEvents returns all events ordered by date.
func (r *Postgres) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, event_date, total_seats, active_count, created_at
		 FROM events
		 ORDER BY event_date ASC, name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Date, &e.TotalSeats, &e.ActiveCount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CommitEvent stores an event's editable fields.
func (r *Postgres) CommitEvent(ctx context.Context, ev model.Event) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE events SET name = $2, event_date = $3, total_seats = $4 WHERE id = $1`,
		ev.ID, ev.Name, ev.Date, ev.TotalSeats,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CommitEventDeletion deletes an event and its registrations.
func (r *Postgres) CommitEventDeletion(ctx context.Context, eventID string) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM registrations WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("delete event registrations: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		err = ErrNotFound
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ─── Registrations ────────────────────────────────────────────────────────────

// CommitAdmission inserts a registration and stores the event's new active
// count in one transaction.
//
// The event row is locked with SELECT … FOR UPDATE before anything is
// written. The engine already serialises admissions per event in process;
// the row lock keeps the same guarantee if a second writer (another process,
// a manual fix-up) touches the same event concurrently, and lets the
// capacity check run against the committed row rather than a stale read.
func (r *Postgres) CommitAdmission(ctx context.Context, reg model.Registration, activeCount int) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var totalSeats int
	err = tx.QueryRow(ctx,
		`SELECT total_seats FROM events WHERE id = $1 FOR UPDATE`,
		reg.EventID,
	).Scan(&totalSeats)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrNotFound
			return err
		}
		return fmt.Errorf("lock event row: %w", err)
	}
	if activeCount > totalSeats {
		err = ErrCapacityExceeded
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO registrations (id, event_id, participant_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		reg.ID, reg.EventID, reg.ParticipantID, reg.CreatedAt,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			err = ErrAlreadyExists
			return err
		}
		return fmt.Errorf("insert registration: %w", err)
	}

	if _, err = tx.Exec(ctx,
		`UPDATE events SET active_count = $2 WHERE id = $1`,
		reg.EventID, activeCount,
	); err != nil {
		return fmt.Errorf("update active_count: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// CommitRelease deletes a registration and stores the event's new active
// count in one transaction.
func (r *Postgres) CommitRelease(ctx context.Context, reg model.Registration, activeCount int) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, reg.ID)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		err = ErrNotFound
		return err
	}
	if _, err = tx.Exec(ctx,
		`UPDATE events SET active_count = $2 WHERE id = $1`,
		reg.EventID, activeCount,
	); err != nil {
		return fmt.Errorf("update active_count: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListRegistrations returns every registration, oldest first.
func (r *Postgres) ListRegistrations(ctx context.Context) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, event_id, participant_id, created_at
		 FROM registrations
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.ParticipantID, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// CountRegistrations counts the stored registrations for an event.
func (r *Postgres) CountRegistrations(ctx context.Context, eventID string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}

// ─── Participants ─────────────────────────────────────────────────────────────

// CreateParticipant inserts a participant; a taken email yields
// ErrAlreadyExists.
func (r *Postgres) CreateParticipant(ctx context.Context, p model.Participant) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO participants (id, full_name, email, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.Email, p.PasswordHash, string(p.Role), p.CreatedAt,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

const participantColumns = `id, full_name, email, password_hash, role, created_at`

func scanParticipant(row pgx.Row) (model.Participant, error) {
	var p model.Participant
	var role string
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &role, &p.CreatedAt); err != nil {
		return model.Participant{}, err
	}
	parsed, err := model.ParseRole(role)
	if err != nil {
		return model.Participant{}, fmt.Errorf("participant %s: %w", p.ID, err)
	}
	p.Role = parsed
	return p, nil
}

// GetParticipant returns a participant by id or ErrNotFound.
func (r *Postgres) GetParticipant(ctx context.Context, id string) (model.Participant, error) {
	p, err := scanParticipant(r.db.QueryRow(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Participant{}, ErrNotFound
		}
		return model.Participant{}, fmt.Errorf("get participant: %w", err)
	}
	return p, nil
}

// GetParticipantByEmail returns a participant by email or ErrNotFound.
func (r *Postgres) GetParticipantByEmail(ctx context.Context, email string) (model.Participant, error) {
	p, err := scanParticipant(r.db.QueryRow(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Participant{}, ErrNotFound
		}
		return model.Participant{}, fmt.Errorf("get participant by email: %w", err)
	}
	return p, nil
}

// ListParticipants returns all participants ordered by name.
func (r *Postgres) ListParticipants(ctx context.Context) ([]model.Participant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+participantColumns+` FROM participants ORDER BY full_name ASC, email ASC`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []model.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountParticipantsByRole counts participants holding role.
func (r *Postgres) CountParticipantsByRole(ctx context.Context, role model.Role) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM participants WHERE LOWER(role) = $1`, string(role),
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return n, nil
}

// DeleteParticipant deletes a participant together with any registrations
// still referencing it.
func (r *Postgres) DeleteParticipant(ctx context.Context, id string) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx,
		`UPDATE events e SET active_count = GREATEST(e.active_count - 1, 0)
		 FROM registrations r
		 WHERE r.event_id = e.id AND r.participant_id = $1`, id,
	); err != nil {
		return fmt.Errorf("release participant seats: %w", err)
	}
	if _, err = tx.Exec(ctx, `DELETE FROM registrations WHERE participant_id = $1`, id); err != nil {
		return fmt.Errorf("delete participant registrations: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		err = ErrNotFound
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
