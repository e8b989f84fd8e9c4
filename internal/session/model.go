package session

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	StatusActive  SessionStatus = "ACTIVE"
	StatusClosed  SessionStatus = "CLOSED"
	StatusTimeout SessionStatus = "TIMEOUT"
)

type EventType string

const (
	EventSymptom     EventType = "SYMPTOM"
	EventOTC         EventType = "OTC"
	EventDoctorVisit EventType = "DOCTOR_VISIT"
	EventLab         EventType = "LAB"
	EventEmergency   EventType = "EMERGENCY"
	EventMood        EventType = "MOOD"
)

// OTC privilege states. A user whose self-medication suggestions were
// repeatedly followed by escalation gets the privilege revoked.
const (
	OTCActive  = "ACTIVE"
	OTCRevoked = "REVOKED"
)

// User identifies a patient across sessions. Identities with the "anon_"
// prefix are device-scoped guests and carry tighter message limits.
type User struct {
	ID              string    `json:"id" db:"id"`
	Email           string    `json:"email,omitempty" db:"email"`
	Phone           string    `json:"phone,omitempty" db:"phone"`
	AuthProvider    string    `json:"auth_provider,omitempty" db:"auth_provider"`
	AbuseStrikes    int       `json:"abuse_strikes" db:"abuse_strikes"`
	OTCAttemptsUsed int       `json:"otc_attempts_used" db:"otc_attempts_used"`
	OTCPrivilege    string    `json:"otc_privilege_status" db:"otc_privilege_status"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Session is one conversation window. It times out after a period of
// inactivity and counts toward a daily cap.
type Session struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	UserID       string        `json:"user_id" db:"user_id"`
	Status       SessionStatus `json:"status" db:"status"`
	MessageCount int           `json:"message_count" db:"message_count"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	LastActivity time.Time     `json:"last_activity" db:"last_activity"`
}

// HealthEvent is one entry in the user's health timeline: a reported
// symptom, an OTC suggestion, a handoff, or an emergency escalation.
type HealthEvent struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Type        EventType `json:"type" db:"type"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
