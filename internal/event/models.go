// Package event holds the federation event aggregate: categories, venues,
// institution invitations and the six-date lifecycle timeline.
package event

import (
	"time"

	dErrors "fedevents/pkg/domain-errors"
)

// Sex restricts who may be enrolled in an event. MX accepts everyone.
type Sex string

const (
	SexFemale Sex = "F"
	SexMale   Sex = "M"
	SexMixed  Sex = "MX"
)

var validSexes = map[Sex]bool{SexFemale: true, SexMale: true, SexMixed: true}

// ParseSex constructs a Sex from external input.
func ParseSex(s string) (Sex, error) {
	v := Sex(s)
	if !validSexes[v] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid event sex, expected F, M or MX")
	}
	return v, nil
}

// Status is the admin-visible lifecycle state of an event. It only moves
// forward; archivado is reachable from anywhere and is terminal.
type Status string

const (
	StatusDraft        Status = "borrador"
	StatusRegistration Status = "inscripcion"
	StatusAudit        Status = "auditoria"
	StatusChampionship Status = "campeonato"
	StatusFinished     Status = "finalizado"
	StatusArchived     Status = "archivado"
)

var validStatuses = map[Status]bool{
	StatusDraft:        true,
	StatusRegistration: true,
	StatusAudit:        true,
	StatusChampionship: true,
	StatusFinished:     true,
	StatusArchived:     true,
}

// ParseStatus normalizes an external status value, falling back to borrador.
func ParseStatus(s string) Status {
	v := Status(s)
	if !validStatuses[v] {
		return StatusDraft
	}
	return v
}

// IsTerminal reports whether no further stage transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusArchived
}

// Category bounds the ages admitted by an event. A category with both
// bounds nil age-unrestricts the whole event, overriding every other
// category's bounds.
type Category struct {
	ID      int64
	SportID int64
	Name    string
	MinAge  *int
	MaxAge  *int
}

// Unbounded reports whether the category admits any age.
func (c Category) Unbounded() bool { return c.MinAge == nil && c.MaxAge == nil }

// Validate enforces min <= max when both bounds are present.
func (c Category) Validate() error {
	if c.MinAge != nil && c.MaxAge != nil && *c.MinAge > *c.MaxAge {
		return dErrors.New(dErrors.CodeValidation, "category minimum age exceeds maximum age")
	}
	return nil
}

// Scenario is a venue assigned to the event, possibly ad hoc (no registered
// location behind it).
type Scenario struct {
	ID         int64
	LocationID *int64
	Name       string
}

// InvitationState tracks whether an institution answered its invitation.
type InvitationState string

const (
	InvitationPending  InvitationState = "pendiente"
	InvitationAccepted InvitationState = "aceptada"
	InvitationRejected InvitationState = "rechazada"
)

// AuditState is the compliance verdict on an institution's registration.
type AuditState string

const (
	AuditPending    AuditState = "pendiente"
	AuditApproved   AuditState = "aprobada"
	AuditCorrection AuditState = "correccion"
	AuditRejected   AuditState = "rechazada"
)

// Invitation links an institution to an event and carries its audit verdict.
type Invitation struct {
	ID                      int64
	EventID                 int64
	InstitutionID           int64
	State                   InvitationState
	AuditState              AuditState
	RejectionReason         string
	ChampionshipEnabled     bool
	ExtendedRegistrationEnd *time.Time
	LastSubmittedAt         *time.Time
	CreatedAt               time.Time
}

// Timeline holds the six lifecycle dates. Nil means not scheduled yet.
// Dates are day-precision, stored as UTC midnight.
type Timeline struct {
	RegistrationStart *time.Time
	RegistrationEnd   *time.Time
	AuditStart        *time.Time
	AuditEnd          *time.Time
	ChampionshipStart *time.Time
	ChampionshipEnd   *time.Time
}

// Complete reports whether all six dates are set.
func (t Timeline) Complete() bool {
	return t.RegistrationStart != nil && t.RegistrationEnd != nil &&
		t.AuditStart != nil && t.AuditEnd != nil &&
		t.ChampionshipStart != nil && t.ChampionshipEnd != nil
}

// Event is the aggregate root for one federation sporting event.
type Event struct {
	ID          int64
	AdminID     int64
	Title       string
	Description string
	Sex         Sex
	SportID     int64
	Categories  []Category
	Scenarios   []Scenario
	Invitations []Invitation
	Timeline    Timeline
	Status      Status
	CoverImage  string
	PlanningDoc string
	Deleted     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InvitationFor returns the invitation belonging to an institution, or nil.
func (e *Event) InvitationFor(institutionID int64) *Invitation {
	for i := range e.Invitations {
		if e.Invitations[i].InstitutionID == institutionID {
			return &e.Invitations[i]
		}
	}
	return nil
}

// EffectiveRegistrationEnd resolves the registration deadline for one
// institution: a per-institution extension wins over the general end, but is
// clamped to the audit end and never shortens the general window.
func (e *Event) EffectiveRegistrationEnd(inv *Invitation) *time.Time {
	general := e.Timeline.RegistrationEnd
	if inv == nil || inv.ExtendedRegistrationEnd == nil {
		return general
	}
	extension := *inv.ExtendedRegistrationEnd
	if auditEnd := e.Timeline.AuditEnd; auditEnd != nil && extension.After(*auditEnd) {
		extension = *auditEnd
	}
	if general != nil && extension.Before(*general) {
		return general
	}
	return &extension
}
