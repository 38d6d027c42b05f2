// Package timeline derives the dependent dates of an event's lifecycle from
// its anchors. Every field carries a three-way state so cascade logic only
// ever overwrites values it derived itself; dates a user typed stay put.
package timeline

import "time"

// DefaultOffsetDays is assumed for any gap or duration never observed.
const DefaultOffsetDays = 3

// DefaultRegToAuditGapDays applies when the registration end is edited
// directly and no registration-end to audit-start gap was ever observed.
const DefaultRegToAuditGapDays = 1

// State tags how a field value came to be.
type State int

const (
	Unset State = iota
	Derived
	Manual
)

// Field is one date slot in the timeline form.
type Field struct {
	State State
	Value time.Time
}

// SetManual marks a user-typed value.
func SetManual(value time.Time) Field { return Field{State: Manual, Value: value} }

func derived(value time.Time) Field { return Field{State: Derived, Value: value} }

// IsSet reports whether the field holds a value.
func (f Field) IsSet() bool { return f.State != Unset }

// Date builds a day-precision UTC date.
func Date(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

// Form is the six-date timeline under edit.
type Form struct {
	RegistrationStart Field
	RegistrationEnd   Field
	AuditStart        Field
	AuditEnd          Field
	ChampionshipStart Field
	ChampionshipEnd   Field
}

// Offsets are the gap durations, in days, between consecutive timeline
// anchors. They are re-observed continuously from whatever well-formed pairs
// exist; an incomplete pair keeps the last valid offset.
type Offsets struct {
	RegistrationDays int
	RegToAuditGap    int
	AuditDays        int
	AuditToChampGap  int
	ChampionshipDays int

	// RegToAuditKnown distinguishes an observed gap from the default, because
	// the direct registration-end edit path falls back to one day, not three.
	RegToAuditKnown bool
}

// DefaultOffsets returns the all-unknown starting point.
func DefaultOffsets() Offsets {
	return Offsets{
		RegistrationDays: DefaultOffsetDays,
		RegToAuditGap:    DefaultOffsetDays,
		AuditDays:        DefaultOffsetDays,
		AuditToChampGap:  DefaultOffsetDays,
		ChampionshipDays: DefaultOffsetDays,
	}
}

func daysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

func observePair(current int, start, end Field) (int, bool) {
	if !start.IsSet() || !end.IsSet() {
		return current, false
	}
	gap := daysBetween(start.Value, end.Value)
	if gap < 0 {
		return current, false
	}
	return gap, true
}

// Observe refreshes every offset from the form's well-formed date pairs,
// keeping the previous value where a pair is incomplete or inverted.
func (o Offsets) Observe(f Form) Offsets {
	o.RegistrationDays, _ = observePair(o.RegistrationDays, f.RegistrationStart, f.RegistrationEnd)
	if gap, ok := observePair(o.RegToAuditGap, f.RegistrationEnd, f.AuditStart); ok {
		o.RegToAuditGap = gap
		o.RegToAuditKnown = true
	}
	o.AuditDays, _ = observePair(o.AuditDays, f.AuditStart, f.AuditEnd)
	o.AuditToChampGap, _ = observePair(o.AuditToChampGap, f.AuditEnd, f.ChampionshipStart)
	o.ChampionshipDays, _ = observePair(o.ChampionshipDays, f.ChampionshipStart, f.ChampionshipEnd)
	return o
}

func addDays(t time.Time, days int) time.Time { return t.AddDate(0, 0, days) }

// overwrite decides whether a downstream field may take a derived value:
// empty and previously derived fields always may; a manual field only when
// the anchor itself changed value, which forces a full re-cascade.
func overwrite(f Field, anchorChanged bool) bool {
	return f.State != Manual || anchorChanged
}

// Cascade derives the five downstream dates by sequential addition from the
// registration start anchor. Fields the user set manually are left untouched
// unless anchorChanged forces a re-cascade; kept manual values feed the
// additions for everything after them.
func Cascade(f Form, o Offsets, anchorChanged bool) Form {
	if !f.RegistrationStart.IsSet() {
		return f
	}

	if overwrite(f.RegistrationEnd, anchorChanged) {
		f.RegistrationEnd = derived(addDays(f.RegistrationStart.Value, o.RegistrationDays))
	}
	if f.RegistrationEnd.IsSet() && overwrite(f.AuditStart, anchorChanged) {
		f.AuditStart = derived(addDays(f.RegistrationEnd.Value, o.RegToAuditGap))
	}
	return cascadeFromAudit(f, o, anchorChanged)
}

func cascadeFromAudit(f Form, o Offsets, anchorChanged bool) Form {
	if f.AuditStart.IsSet() && overwrite(f.AuditEnd, anchorChanged) {
		f.AuditEnd = derived(addDays(f.AuditStart.Value, o.AuditDays))
	}
	if f.AuditEnd.IsSet() && overwrite(f.ChampionshipStart, anchorChanged) {
		f.ChampionshipStart = derived(addDays(f.AuditEnd.Value, o.AuditToChampGap))
	}
	if f.ChampionshipStart.IsSet() && overwrite(f.ChampionshipEnd, anchorChanged) {
		f.ChampionshipEnd = derived(addDays(f.ChampionshipStart.Value, o.ChampionshipDays))
	}
	return f
}

// ApplyRegistrationEndEdit records a direct edit of the registration end and
// recomputes the audit start with the previously observed gap (one day when
// unknown), bumping it to at least one day past the new end when the
// computed value would not be strictly greater. Downstream dates re-derive
// from there; manual ones stay.
func ApplyRegistrationEndEdit(f Form, newEnd time.Time, o Offsets) Form {
	f.RegistrationEnd = SetManual(newEnd)

	if f.AuditStart.State != Manual {
		gap := DefaultRegToAuditGapDays
		if o.RegToAuditKnown {
			gap = o.RegToAuditGap
		}
		auditStart := addDays(newEnd, gap)
		if !auditStart.After(newEnd) {
			auditStart = addDays(newEnd, 1)
		}
		f.AuditStart = derived(auditStart)
	}
	return cascadeFromAudit(f, o, false)
}
