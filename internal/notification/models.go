// Package notification is the append-only ledger of typed alerts derived
// from domain events: invitations, registration activity, published results.
package notification

import "time"

// Level is the visual severity of an alert.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
	LevelSuccess Level = "success"
)

// Kind names the domain event behind an alert.
type Kind string

const (
	KindInvitation           Kind = "invitacion"
	KindRegistrationActivity Kind = "actividad_inscripcion"
	KindResultPublished      Kind = "resultado_publicado"
	KindGeneral              Kind = "general"
)

// Notification is one ledger entry. Entries are append-only; only the read
// flag mutates after creation.
type Notification struct {
	ID        int64
	UserID    int64
	EventID   *int64
	Kind      Kind
	Level     Level
	Title     string
	Message   string
	Read      bool
	ReadAt    *time.Time
	CreatedAt time.Time
}

// ReadFilter restricts list reads; it never affects the ledger itself.
type ReadFilter string

const (
	FilterAll    ReadFilter = "all"
	FilterUnread ReadFilter = "unread"
	FilterRead   ReadFilter = "read"
)

// Query is the read-side filter for listing notifications.
type Query struct {
	UserID int64
	Filter ReadFilter
	Search string
}

// Summary is the badge payload: unread count plus most recent entries.
type Summary struct {
	TotalUnread int
	Recent      []Notification
}
