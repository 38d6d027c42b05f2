// Package stage derives the current lifecycle stage of an event and gates
// every mutation on it. The stage is a tagged union computed by one pure
// function; the admin-set status stays authoritative over elapsed time.
package stage

import (
	"time"

	"fedevents/internal/event"
)

// Kind discriminates the stage union.
type Kind string

const (
	KindDraft        Kind = "borrador"
	KindOpen         Kind = "inscripcion"
	KindAudit        Kind = "auditoria"
	KindChampionship Kind = "campeonato"
	KindClosed       Kind = "closed"
)

// Window is the date range backing a non-draft, non-closed stage.
type Window struct {
	Start time.Time
	End   time.Time
}

// Stage is the resolved lifecycle stage. Window is set for Open, Audit and
// Championship; ClosedAs is set for Closed (finalizado or archivado).
type Stage struct {
	Kind     Kind
	Window   *Window
	ClosedAs event.Status
}

// Status flattens the union back into the stored status vocabulary.
func (s Stage) Status() event.Status {
	switch s.Kind {
	case KindOpen:
		return event.StatusRegistration
	case KindAudit:
		return event.StatusAudit
	case KindChampionship:
		return event.StatusChampionship
	case KindClosed:
		return s.ClosedAs
	default:
		return event.StatusDraft
	}
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func between(today time.Time, start, end *time.Time) bool {
	return !today.Before(*start) && !today.After(*end)
}

// Current resolves the stage for an event at the given instant.
//
// The admin-set status wins in two cases: archivado is unconditional, and an
// incomplete timeline falls back to whatever status is stored. Otherwise the
// date windows decide; days between windows resolve to the draft kind.
func Current(ev *event.Event, now time.Time) Stage {
	if ev.Status == event.StatusArchived {
		return Stage{Kind: KindClosed, ClosedAs: event.StatusArchived}
	}

	tl := ev.Timeline
	if !tl.Complete() {
		return fromStatus(ev.Status, tl)
	}

	today := day(now)
	switch {
	case today.Before(*tl.RegistrationStart):
		return Stage{Kind: KindDraft}
	case between(today, tl.RegistrationStart, tl.RegistrationEnd):
		return Stage{Kind: KindOpen, Window: &Window{*tl.RegistrationStart, *tl.RegistrationEnd}}
	case between(today, tl.AuditStart, tl.AuditEnd):
		return Stage{Kind: KindAudit, Window: &Window{*tl.AuditStart, *tl.AuditEnd}}
	case between(today, tl.ChampionshipStart, tl.ChampionshipEnd):
		return Stage{Kind: KindChampionship, Window: &Window{*tl.ChampionshipStart, *tl.ChampionshipEnd}}
	case today.After(*tl.ChampionshipEnd):
		return Stage{Kind: KindClosed, ClosedAs: event.StatusFinished}
	default:
		return Stage{Kind: KindDraft}
	}
}

func fromStatus(status event.Status, tl event.Timeline) Stage {
	switch status {
	case event.StatusRegistration:
		return Stage{Kind: KindOpen, Window: window(tl.RegistrationStart, tl.RegistrationEnd)}
	case event.StatusAudit:
		return Stage{Kind: KindAudit, Window: window(tl.AuditStart, tl.AuditEnd)}
	case event.StatusChampionship:
		return Stage{Kind: KindChampionship, Window: window(tl.ChampionshipStart, tl.ChampionshipEnd)}
	case event.StatusFinished:
		return Stage{Kind: KindClosed, ClosedAs: event.StatusFinished}
	case event.StatusArchived:
		return Stage{Kind: KindClosed, ClosedAs: event.StatusArchived}
	default:
		return Stage{Kind: KindDraft}
	}
}

func window(start, end *time.Time) *Window {
	if start == nil || end == nil {
		return nil
	}
	return &Window{*start, *end}
}

// CanEditRegistration reports whether an institution may mutate its
// registration (enrollment or documents) right now.
//
// During inscripcion the effective registration end (including any extension)
// must not have passed. During auditoria edits stay open while the audit
// verdict is pendiente, correccion or aprobada. An extension window keeps
// edits open outside those stages.
func CanEditRegistration(s Stage, ev *event.Event, inv *event.Invitation, now time.Time) bool {
	today := day(now)
	effectiveEnd := ev.EffectiveRegistrationEnd(inv)
	switch s.Kind {
	case KindOpen:
		return effectiveEnd == nil || !today.After(*effectiveEnd)
	case KindAudit:
		if inv != nil {
			switch inv.AuditState {
			case event.AuditPending, event.AuditCorrection, event.AuditApproved:
				return true
			}
		}
		return false
	case KindDraft:
		// An extension can outlive the general registration window; the days
		// between registration end and audit start resolve to the draft kind.
		general := ev.Timeline.RegistrationEnd
		return general != nil && effectiveEnd != nil &&
			today.After(*general) && !today.After(*effectiveEnd)
	default:
		return false
	}
}

// CanUploadDocuments shares the registration-edit gate.
func CanUploadDocuments(s Stage, ev *event.Event, inv *event.Invitation, now time.Time) bool {
	return CanEditRegistration(s, ev, inv, now)
}

// CanRegisterResult reports whether match results may be entered at this
// stage. Timing and institution checks are the match recorder's concern.
func CanRegisterResult(s Stage) bool {
	if s.Kind == KindChampionship {
		return true
	}
	return s.Kind == KindClosed && s.ClosedAs == event.StatusFinished
}

// DeleteDisposition decides how an event delete request is honored: events
// that ever reached inscripcion keep their history and are archived instead
// of removed.
type DeleteDisposition int

const (
	HardDelete DeleteDisposition = iota
	Archive
)

// DispositionFor returns Archive for any status past borrador.
func DispositionFor(resolved event.Status) DeleteDisposition {
	if resolved == event.StatusDraft {
		return HardDelete
	}
	return Archive
}
