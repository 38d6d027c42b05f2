// Package eligibility evaluates whether a student qualifies for an event
// from its sex restriction and category age ranges.
package eligibility

import (
	"time"

	"fedevents/internal/event"
	dErrors "fedevents/pkg/domain-errors"
)

// Range is one category's admitted age span; nil bounds are open ends.
type Range struct {
	Min *int
	Max *int
}

func (r Range) contains(age int) bool {
	if r.Min != nil && age < *r.Min {
		return false
	}
	if r.Max != nil && age > *r.Max {
		return false
	}
	return true
}

// Bounds is the event-wide age admission rule. A student qualifies when
// inside any one range; Unrestricted admits every age.
type Bounds struct {
	Unrestricted bool
	Ranges       []Range
}

// Admits reports whether the bounds accept the given age.
func (b Bounds) Admits(age int) bool {
	if b.Unrestricted {
		return true
	}
	for _, r := range b.Ranges {
		if r.contains(age) {
			return true
		}
	}
	return false
}

// MinMax flattens the ranges for display: minimum of minimums, maximum of
// maximums. Second return is false when unrestricted or empty.
func (b Bounds) MinMax() (minAge, maxAge *int, ok bool) {
	if b.Unrestricted || len(b.Ranges) == 0 {
		return nil, nil, false
	}
	for _, r := range b.Ranges {
		if r.Min != nil && (minAge == nil || *r.Min < *minAge) {
			minAge = r.Min
		}
		if r.Max != nil && (maxAge == nil || *r.Max > *maxAge) {
			maxAge = r.Max
		}
	}
	return minAge, maxAge, true
}

// AgeBounds computes the event's age rule from its categories. Any category
// with both bounds nil is an explicit no-filtering escape hatch: the whole
// event becomes unrestricted regardless of the other categories.
func AgeBounds(categories []event.Category) Bounds {
	ranges := make([]Range, 0, len(categories))
	for _, c := range categories {
		if c.Unbounded() {
			return Bounds{Unrestricted: true}
		}
		ranges = append(ranges, Range{Min: c.MinAge, Max: c.MaxAge})
	}
	return Bounds{Ranges: ranges}
}

// Age is the whole years elapsed between birth and reference, counting the
// reference day itself: someone born exactly N years before the reference
// date is N on that date.
func Age(birth, reference time.Time) int {
	years := reference.Year() - birth.Year()
	if reference.Month() < birth.Month() ||
		(reference.Month() == birth.Month() && reference.Day() < birth.Day()) {
		years--
	}
	return years
}

// ReferenceDate picks the instant ages are evaluated at: the first scheduled
// date of championship, audit, registration end, registration start, or now.
func ReferenceDate(ev *event.Event, now time.Time) time.Time {
	tl := ev.Timeline
	for _, candidate := range []*time.Time{
		tl.ChampionshipStart, tl.AuditStart, tl.RegistrationEnd, tl.RegistrationStart,
	} {
		if candidate != nil {
			return *candidate
		}
	}
	return now
}

// Check validates one student against the event's sex and age rules,
// returning a coded error naming the failed rule.
func Check(studentSex event.Sex, birth time.Time, ev *event.Event, reference time.Time) error {
	if ev.Sex != event.SexMixed && studentSex != ev.Sex {
		return dErrors.New(dErrors.CodeValidation, "student sex does not match the event restriction")
	}
	bounds := AgeBounds(ev.Categories)
	if len(bounds.Ranges) == 0 && !bounds.Unrestricted {
		return nil
	}
	if bounds.Unrestricted {
		return nil
	}
	if birth.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "student has no valid birth date on record")
	}
	if !bounds.Admits(Age(birth, reference)) {
		return dErrors.New(dErrors.CodeValidation,
			"student is outside the age range admitted by the event categories")
	}
	return nil
}

// IsEligible is the boolean form of Check.
func IsEligible(studentSex event.Sex, birth time.Time, ev *event.Event, reference time.Time) bool {
	return Check(studentSex, birth, ev, reference) == nil
}
