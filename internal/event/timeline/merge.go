package timeline

import (
	"time"

	"fedevents/internal/event"
	dErrors "fedevents/pkg/domain-errors"
)

// Update is a partial timeline edit; nil fields keep the stored date.
type Update struct {
	RegistrationStart *time.Time
	RegistrationEnd   *time.Time
	AuditStart        *time.Time
	AuditEnd          *time.Time
	ChampionshipStart *time.Time
	ChampionshipEnd   *time.Time
}

func spanDays(start, end *time.Time) (int, bool) {
	if start == nil || end == nil {
		return 0, false
	}
	return daysBetween(*start, *end), true
}

func pick(patch, current *time.Time) *time.Time {
	if patch != nil {
		return patch
	}
	return current
}

func datePtr(t time.Time) *time.Time { return &t }

// MergeUpdate folds a partial edit into a stored timeline, preserving the
// durations and gaps observed on the stored dates: untouched downstream
// dates shift to keep their spans when an upstream date moves. The merged
// result must pass Validate.
func MergeUpdate(current event.Timeline, patch Update) (event.Timeline, error) {
	auditDuration, hasAuditDuration := spanDays(current.AuditStart, current.AuditEnd)
	champDuration, hasChampDuration := spanDays(current.ChampionshipStart, current.ChampionshipEnd)
	gapRegAudit, hasGapRegAudit := spanDays(current.RegistrationEnd, current.AuditStart)
	gapAuditChamp, hasGapAuditChamp := spanDays(current.AuditEnd, current.ChampionshipStart)

	registrationEndUpdated := patch.RegistrationEnd != nil
	auditStartUpdated := patch.AuditStart != nil
	auditEndUpdated := patch.AuditEnd != nil
	champStartUpdated := patch.ChampionshipStart != nil
	champEndUpdated := patch.ChampionshipEnd != nil

	registrationEnd := pick(patch.RegistrationEnd, current.RegistrationEnd)
	registrationStart := pick(patch.RegistrationStart, current.RegistrationStart)

	auditStart := pick(patch.AuditStart, current.AuditStart)
	auditEnd := pick(patch.AuditEnd, current.AuditEnd)

	if !auditStartUpdated {
		switch {
		case auditEndUpdated && hasAuditDuration && auditEnd != nil:
			auditStart = datePtr(addDays(*auditEnd, -auditDuration))
		case hasGapRegAudit && registrationEnd != nil:
			auditStart = datePtr(addDays(*registrationEnd, gapRegAudit))
		case registrationEndUpdated && registrationEnd != nil &&
			auditStart != nil && !auditStart.After(*registrationEnd):
			auditStart = datePtr(addDays(*registrationEnd, 1))
		}
	}
	if !auditEndUpdated && hasAuditDuration && auditStart != nil {
		auditEnd = datePtr(addDays(*auditStart, auditDuration))
	}

	champStart := pick(patch.ChampionshipStart, current.ChampionshipStart)
	champEnd := pick(patch.ChampionshipEnd, current.ChampionshipEnd)
	if !champStartUpdated && hasGapAuditChamp && auditEnd != nil {
		champStart = datePtr(addDays(*auditEnd, gapAuditChamp))
	}
	if !champEndUpdated && hasChampDuration && champStart != nil {
		champEnd = datePtr(addDays(*champStart, champDuration))
	}

	merged := event.Timeline{
		RegistrationStart: registrationStart,
		RegistrationEnd:   registrationEnd,
		AuditStart:        auditStart,
		AuditEnd:          auditEnd,
		ChampionshipStart: champStart,
		ChampionshipEnd:   champEnd,
	}
	if err := Validate(merged); err != nil {
		return event.Timeline{}, err
	}
	return merged, nil
}

// Validate enforces the window invariants: registration end strictly after
// its start, audit strictly after registration, championship strictly after
// audit, and every window's end at or after its start.
func Validate(tl event.Timeline) error {
	if tl.RegistrationStart == nil || tl.RegistrationEnd == nil {
		return dErrors.New(dErrors.CodeValidation, "registration opening and closing dates are required")
	}
	if !tl.RegistrationStart.Before(*tl.RegistrationEnd) {
		return dErrors.New(dErrors.CodeValidation, "registration must open before it closes")
	}
	if tl.AuditStart == nil || tl.AuditEnd == nil {
		return dErrors.New(dErrors.CodeValidation, "audit window dates are required")
	}
	if !tl.AuditStart.Before(*tl.AuditEnd) {
		return dErrors.New(dErrors.CodeValidation, "audit must start before it ends")
	}
	if !tl.AuditStart.After(*tl.RegistrationEnd) {
		return dErrors.New(dErrors.CodeValidation, "audit must start after registration closes")
	}
	if tl.ChampionshipStart == nil || tl.ChampionshipEnd == nil {
		return dErrors.New(dErrors.CodeValidation, "championship dates are required")
	}
	if !tl.ChampionshipStart.Before(*tl.ChampionshipEnd) {
		return dErrors.New(dErrors.CodeValidation, "championship must start before it ends")
	}
	if !tl.ChampionshipStart.After(*tl.AuditEnd) {
		return dErrors.New(dErrors.CodeValidation, "championship must start after the audit ends")
	}
	return nil
}
