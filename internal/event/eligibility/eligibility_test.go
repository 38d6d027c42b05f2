package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fedevents/internal/event"
	dErrors "fedevents/pkg/domain-errors"
)

func intPtr(v int) *int { return &v }

func datePtr(t time.Time) *time.Time { return &t }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeCountsTheBirthdayItself(t *testing.T) {
	birth := date(2010, time.June, 15)

	assert.Equal(t, 13, Age(birth, date(2024, time.June, 14)))
	assert.Equal(t, 14, Age(birth, date(2024, time.June, 15)))
	assert.Equal(t, 14, Age(birth, date(2024, time.June, 16)))
}

func TestAgeBounds(t *testing.T) {
	t.Run("union of ranges", func(t *testing.T) {
		b := AgeBounds([]event.Category{
			{MinAge: intPtr(10), MaxAge: intPtr(12)},
			{MinAge: intPtr(15), MaxAge: intPtr(17)},
		})

		assert.True(t, b.Admits(11))
		assert.False(t, b.Admits(13))
		assert.True(t, b.Admits(15))
		assert.False(t, b.Admits(18))
	})

	t.Run("open ended range", func(t *testing.T) {
		b := AgeBounds([]event.Category{{MinAge: intPtr(16)}})

		assert.False(t, b.Admits(15))
		assert.True(t, b.Admits(16))
		assert.True(t, b.Admits(90))
	})

	t.Run("one unbounded category unrestricts the event", func(t *testing.T) {
		b := AgeBounds([]event.Category{
			{MinAge: intPtr(10), MaxAge: intPtr(12)},
			{},
		})

		assert.True(t, b.Unrestricted)
		assert.True(t, b.Admits(5))
		assert.True(t, b.Admits(99))
	})
}

func TestMinMax(t *testing.T) {
	b := AgeBounds([]event.Category{
		{MinAge: intPtr(10), MaxAge: intPtr(12)},
		{MinAge: intPtr(8), MaxAge: intPtr(14)},
	})

	minAge, maxAge, ok := b.MinMax()

	require.True(t, ok)
	assert.Equal(t, 8, *minAge)
	assert.Equal(t, 14, *maxAge)

	_, _, ok = Bounds{Unrestricted: true}.MinMax()
	assert.False(t, ok)
}

func TestReferenceDate(t *testing.T) {
	now := date(2024, time.January, 1)

	t.Run("championship start wins", func(t *testing.T) {
		champ := date(2024, time.June, 18)
		ev := &event.Event{Timeline: event.Timeline{
			RegistrationStart: datePtr(date(2024, time.June, 1)),
			ChampionshipStart: &champ,
		}}
		assert.Equal(t, champ, ReferenceDate(ev, now))
	})

	t.Run("falls back to now when nothing is scheduled", func(t *testing.T) {
		assert.Equal(t, now, ReferenceDate(&event.Event{}, now))
	})
}

func TestCheck(t *testing.T) {
	reference := date(2024, time.June, 18)

	ev := &event.Event{
		Sex: event.SexFemale,
		Categories: []event.Category{
			{MinAge: intPtr(12), MaxAge: intPtr(14)},
		},
	}

	t.Run("matching student passes", func(t *testing.T) {
		assert.NoError(t, Check(event.SexFemale, date(2011, time.March, 3), ev, reference))
	})

	t.Run("sex mismatch fails", func(t *testing.T) {
		err := Check(event.SexMale, date(2011, time.March, 3), ev, reference)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("mixed event admits both sexes", func(t *testing.T) {
		mixed := &event.Event{Sex: event.SexMixed, Categories: ev.Categories}
		assert.NoError(t, Check(event.SexMale, date(2011, time.March, 3), mixed, reference))
	})

	t.Run("age outside every range fails", func(t *testing.T) {
		err := Check(event.SexFemale, date(2000, time.March, 3), ev, reference)
		assert.Error(t, err)
	})

	t.Run("missing birth date fails when ages are restricted", func(t *testing.T) {
		err := Check(event.SexFemale, time.Time{}, ev, reference)
		assert.Error(t, err)
	})

	t.Run("no categories means no age rule", func(t *testing.T) {
		open := &event.Event{Sex: event.SexMixed}
		assert.NoError(t, Check(event.SexMale, time.Time{}, open, reference))
	})
}
