package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCascadeFromAnchor(t *testing.T) {
	f := Form{RegistrationStart: SetManual(Date(2024, time.March, 1))}

	got := Cascade(f, DefaultOffsets(), false)

	assert.Equal(t, Date(2024, time.March, 4), got.RegistrationEnd.Value)
	assert.Equal(t, Date(2024, time.March, 7), got.AuditStart.Value)
	assert.Equal(t, Date(2024, time.March, 10), got.AuditEnd.Value)
	assert.Equal(t, Date(2024, time.March, 13), got.ChampionshipStart.Value)
	assert.Equal(t, Date(2024, time.March, 16), got.ChampionshipEnd.Value)

	for _, field := range []Field{
		got.RegistrationEnd, got.AuditStart, got.AuditEnd,
		got.ChampionshipStart, got.ChampionshipEnd,
	} {
		assert.Equal(t, Derived, field.State)
	}
}

func TestCascadeIsIdempotent(t *testing.T) {
	f := Form{RegistrationStart: SetManual(Date(2024, time.March, 1))}
	offsets := DefaultOffsets()

	once := Cascade(f, offsets, false)
	twice := Cascade(once, offsets.Observe(once), false)

	assert.Equal(t, once, twice)
}

func TestCascadeKeepsManualFields(t *testing.T) {
	f := Form{
		RegistrationStart: SetManual(Date(2024, time.March, 1)),
		AuditEnd:          SetManual(Date(2024, time.March, 20)),
	}

	got := Cascade(f, DefaultOffsets(), false)

	assert.Equal(t, Manual, got.AuditEnd.State)
	assert.Equal(t, Date(2024, time.March, 20), got.AuditEnd.Value)
	// Downstream dates derive from the kept manual value.
	assert.Equal(t, Date(2024, time.March, 23), got.ChampionshipStart.Value)
	assert.Equal(t, Date(2024, time.March, 26), got.ChampionshipEnd.Value)
}

func TestCascadeAnchorChangeOverwritesManual(t *testing.T) {
	f := Form{
		RegistrationStart: SetManual(Date(2024, time.April, 1)),
		AuditEnd:          SetManual(Date(2024, time.March, 20)),
	}

	got := Cascade(f, DefaultOffsets(), true)

	assert.Equal(t, Derived, got.AuditEnd.State)
	assert.Equal(t, Date(2024, time.April, 10), got.AuditEnd.Value)
}

func TestCascadeWithoutAnchorIsNoop(t *testing.T) {
	f := Form{AuditStart: SetManual(Date(2024, time.March, 7))}
	assert.Equal(t, f, Cascade(f, DefaultOffsets(), false))
}

func TestObserveRefreshesOffsets(t *testing.T) {
	f := Form{
		RegistrationStart: SetManual(Date(2024, time.March, 1)),
		RegistrationEnd:   SetManual(Date(2024, time.March, 11)),
		AuditStart:        SetManual(Date(2024, time.March, 13)),
	}

	o := DefaultOffsets().Observe(f)

	assert.Equal(t, 10, o.RegistrationDays)
	assert.Equal(t, 2, o.RegToAuditGap)
	assert.True(t, o.RegToAuditKnown)
	// Pairs never observed keep the default.
	assert.Equal(t, DefaultOffsetDays, o.AuditDays)
}

func TestObserveIgnoresInvertedPairs(t *testing.T) {
	f := Form{
		RegistrationStart: SetManual(Date(2024, time.March, 10)),
		RegistrationEnd:   SetManual(Date(2024, time.March, 5)),
	}

	o := DefaultOffsets().Observe(f)

	assert.Equal(t, DefaultOffsetDays, o.RegistrationDays)
}

func TestApplyRegistrationEndEdit(t *testing.T) {
	t.Run("unknown gap defaults to one day", func(t *testing.T) {
		f := Form{
			RegistrationStart: SetManual(Date(2024, time.January, 1)),
			RegistrationEnd:   derived(Date(2024, time.January, 5)),
			AuditStart:        derived(Date(2024, time.January, 8)),
			AuditEnd:          derived(Date(2024, time.January, 11)),
		}
		o := DefaultOffsets()

		got := ApplyRegistrationEndEdit(f, Date(2024, time.January, 10), o)

		require.Equal(t, Manual, got.RegistrationEnd.State)
		assert.Equal(t, Date(2024, time.January, 10), got.RegistrationEnd.Value)
		assert.Equal(t, Date(2024, time.January, 11), got.AuditStart.Value)
		assert.Equal(t, Date(2024, time.January, 14), got.AuditEnd.Value)
	})

	t.Run("observed gap is reused", func(t *testing.T) {
		f := Form{
			RegistrationStart: SetManual(Date(2024, time.January, 1)),
			RegistrationEnd:   SetManual(Date(2024, time.January, 5)),
			AuditStart:        derived(Date(2024, time.January, 9)),
		}
		o := DefaultOffsets().Observe(f)
		require.True(t, o.RegToAuditKnown)

		got := ApplyRegistrationEndEdit(f, Date(2024, time.January, 10), o)

		assert.Equal(t, Date(2024, time.January, 14), got.AuditStart.Value)
		assert.Equal(t, Derived, got.AuditStart.State)
	})

	t.Run("zero gap still lands strictly after the end", func(t *testing.T) {
		f := Form{
			RegistrationEnd: SetManual(Date(2024, time.January, 5)),
			AuditStart:      derived(Date(2024, time.January, 5)),
		}
		o := Offsets{RegToAuditGap: 0, RegToAuditKnown: true}

		got := ApplyRegistrationEndEdit(f, Date(2024, time.January, 10), o)

		assert.Equal(t, Date(2024, time.January, 11), got.AuditStart.Value)
	})

	t.Run("manual audit start is not moved", func(t *testing.T) {
		f := Form{
			RegistrationEnd: derived(Date(2024, time.January, 5)),
			AuditStart:      SetManual(Date(2024, time.January, 20)),
		}

		got := ApplyRegistrationEndEdit(f, Date(2024, time.January, 10), DefaultOffsets())

		assert.Equal(t, Date(2024, time.January, 20), got.AuditStart.Value)
		assert.Equal(t, Manual, got.AuditStart.State)
	})
}
