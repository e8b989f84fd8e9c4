package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrSessionLimit is returned when the user already opened the maximum
// number of sessions for the current day.
var ErrSessionLimit = errors.New("session: daily session limit reached")

// Limits bound session usage. Zero values mean unlimited / never idle out.
type Limits struct {
	MaxSessionsPerDay int
	IdleTimeout       time.Duration
}

type Repository interface {
	EnsureUser(ctx context.Context, userID string) (*User, error)
	SetUserStrikes(ctx context.Context, userID string, strikes int) error
	GetOrCreateSession(ctx context.Context, userID string, limits Limits) (*Session, error)
	TouchSession(ctx context.Context, sessionID uuid.UUID) (messageCount int, err error)
	IncrementOTCAttempts(ctx context.Context, userID string) (int, error)
	RecordEvent(ctx context.Context, userID string, kind EventType, description string) error
	ListEvents(ctx context.Context, userID string, since time.Time) ([]HealthEvent, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

// EnsureUser fetches the user, creating the row on first contact.
func (r *postgresRepo) EnsureUser(ctx context.Context, userID string) (*User, error) {
	query := `
		INSERT INTO users (id, otc_privilege_status, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING id, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(auth_provider, ''),
			abuse_strikes, otc_attempts_used, otc_privilege_status, created_at
	`
	var u User
	err := r.db.QueryRowContext(ctx, query, userID, OTCActive, time.Now()).Scan(
		&u.ID, &u.Email, &u.Phone, &u.AuthProvider,
		&u.AbuseStrikes, &u.OTCAttemptsUsed, &u.OTCPrivilege, &u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	return &u, nil
}

func (r *postgresRepo) SetUserStrikes(ctx context.Context, userID string, strikes int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET abuse_strikes = $2 WHERE id = $1`, userID, strikes)
	if err != nil {
		return fmt.Errorf("set user strikes: %w", err)
	}
	return nil
}

// GetOrCreateSession returns the user's active session, expiring it first
// if it has been idle past the timeout. Creating a replacement counts
// toward the daily cap.
func (r *postgresRepo) GetOrCreateSession(ctx context.Context, userID string, limits Limits) (*Session, error) {
	var s Session
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, message_count, created_at, last_activity
		FROM sessions
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, StatusActive).Scan(
		&s.ID, &s.UserID, &s.Status, &s.MessageCount, &s.CreatedAt, &s.LastActivity,
	)
	switch {
	case err == nil:
		if limits.IdleTimeout > 0 && time.Since(s.LastActivity) > limits.IdleTimeout {
			if _, err := r.db.ExecContext(ctx,
				`UPDATE sessions SET status = $2 WHERE id = $1`, s.ID, StatusTimeout); err != nil {
				return nil, fmt.Errorf("expire session: %w", err)
			}
		} else {
			return &s, nil
		}
	case err != sql.ErrNoRows:
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	if limits.MaxSessionsPerDay > 0 {
		var today int
		err := r.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM sessions
			WHERE user_id = $1 AND created_at >= date_trunc('day', now())
		`, userID).Scan(&today)
		if err != nil {
			return nil, fmt.Errorf("count sessions: %w", err)
		}
		if today >= limits.MaxSessionsPerDay {
			return nil, ErrSessionLimit
		}
	}

	now := time.Now()
	s = Session{
		ID:           uuid.New(),
		UserID:       userID,
		Status:       StatusActive,
		CreatedAt:    now,
		LastActivity: now,
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, status, message_count, created_at, last_activity)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.UserID, s.Status, s.MessageCount, s.CreatedAt, s.LastActivity)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &s, nil
}

// TouchSession bumps the message counter and activity timestamp, returning
// the new count.
func (r *postgresRepo) TouchSession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		UPDATE sessions
		SET message_count = message_count + 1, last_activity = now()
		WHERE id = $1
		RETURNING message_count
	`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("touch session: %w", err)
	}
	return count, nil
}

// IncrementOTCAttempts consumes one self-medication attempt and returns
// the total used.
func (r *postgresRepo) IncrementOTCAttempts(ctx context.Context, userID string) (int, error) {
	var used int
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET otc_attempts_used = otc_attempts_used + 1
		WHERE id = $1
		RETURNING otc_attempts_used
	`, userID).Scan(&used)
	if err != nil {
		return 0, fmt.Errorf("increment otc attempts: %w", err)
	}
	return used, nil
}

func (r *postgresRepo) RecordEvent(ctx context.Context, userID string, kind EventType, description string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO health_events (id, user_id, type, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), userID, kind, description, time.Now())
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

func (r *postgresRepo) ListEvents(ctx context.Context, userID string, since time.Time) ([]HealthEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, description, created_at
		FROM health_events
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at ASC
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []HealthEvent
	for rows.Next() {
		var e HealthEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
