package stage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fedevents/internal/event"
	dErrors "fedevents/pkg/domain-errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(t time.Time) *time.Time { return &t }

func scheduledEvent() *event.Event {
	return &event.Event{
		ID:     1,
		Status: event.StatusDraft,
		Timeline: event.Timeline{
			RegistrationStart: datePtr(date(2024, time.June, 1)),
			RegistrationEnd:   datePtr(date(2024, time.June, 10)),
			AuditStart:        datePtr(date(2024, time.June, 12)),
			AuditEnd:          datePtr(date(2024, time.June, 15)),
			ChampionshipStart: datePtr(date(2024, time.June, 18)),
			ChampionshipEnd:   datePtr(date(2024, time.June, 25)),
		},
	}
}

func TestCurrentFollowsWindows(t *testing.T) {
	ev := scheduledEvent()

	cases := []struct {
		name string
		now  time.Time
		want Kind
	}{
		{"before registration", date(2024, time.May, 20), KindDraft},
		{"registration opens", date(2024, time.June, 1), KindOpen},
		{"registration closes", date(2024, time.June, 10), KindOpen},
		{"between windows", date(2024, time.June, 11), KindDraft},
		{"audit", date(2024, time.June, 13), KindAudit},
		{"championship", date(2024, time.June, 20), KindChampionship},
		{"after championship", date(2024, time.June, 26), KindClosed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Current(ev, tc.now)
			assert.Equal(t, tc.want, got.Kind)
		})
	}
}

func TestCurrentClosedResolvesToFinished(t *testing.T) {
	got := Current(scheduledEvent(), date(2024, time.July, 1))

	require.Equal(t, KindClosed, got.Kind)
	assert.Equal(t, event.StatusFinished, got.ClosedAs)
	assert.Equal(t, event.StatusFinished, got.Status())
}

func TestCurrentArchivedWinsOverDates(t *testing.T) {
	ev := scheduledEvent()
	ev.Status = event.StatusArchived

	got := Current(ev, date(2024, time.June, 13))

	assert.Equal(t, KindClosed, got.Kind)
	assert.Equal(t, event.StatusArchived, got.ClosedAs)
}

func TestCurrentIncompleteTimelineUsesStoredStatus(t *testing.T) {
	ev := &event.Event{Status: event.StatusAudit}

	got := Current(ev, date(2024, time.June, 13))

	assert.Equal(t, KindAudit, got.Kind)
	assert.Nil(t, got.Window)
}

func TestCanEditRegistration(t *testing.T) {
	ev := scheduledEvent()

	t.Run("open stage inside the window", func(t *testing.T) {
		now := date(2024, time.June, 5)
		s := Current(ev, now)
		assert.True(t, CanEditRegistration(s, ev, nil, now))
	})

	t.Run("audit stage with pending verdict", func(t *testing.T) {
		now := date(2024, time.June, 13)
		s := Current(ev, now)
		inv := &event.Invitation{AuditState: event.AuditPending}
		assert.True(t, CanEditRegistration(s, ev, inv, now))
	})

	t.Run("audit stage with rejected verdict", func(t *testing.T) {
		now := date(2024, time.June, 13)
		s := Current(ev, now)
		inv := &event.Invitation{AuditState: event.AuditRejected}
		assert.False(t, CanEditRegistration(s, ev, inv, now))
	})

	t.Run("audit stage without invitation", func(t *testing.T) {
		now := date(2024, time.June, 13)
		s := Current(ev, now)
		assert.False(t, CanEditRegistration(s, ev, nil, now))
	})

	t.Run("extension keeps edits open between windows", func(t *testing.T) {
		now := date(2024, time.June, 11)
		s := Current(ev, now)
		require.Equal(t, KindDraft, s.Kind)
		inv := &event.Invitation{ExtendedRegistrationEnd: datePtr(date(2024, time.June, 11))}
		assert.True(t, CanEditRegistration(s, ev, inv, now))
		assert.False(t, CanEditRegistration(s, ev, nil, now))
	})

	t.Run("championship stage is closed for edits", func(t *testing.T) {
		now := date(2024, time.June, 20)
		s := Current(ev, now)
		inv := &event.Invitation{AuditState: event.AuditApproved}
		assert.False(t, CanEditRegistration(s, ev, inv, now))
	})
}

func TestCanRegisterResult(t *testing.T) {
	ev := scheduledEvent()

	assert.False(t, CanRegisterResult(Current(ev, date(2024, time.June, 13))))
	assert.True(t, CanRegisterResult(Current(ev, date(2024, time.June, 20))))
	assert.True(t, CanRegisterResult(Current(ev, date(2024, time.July, 1))))

	ev.Status = event.StatusArchived
	assert.False(t, CanRegisterResult(Current(ev, date(2024, time.June, 20))))
}

func TestDispositionFor(t *testing.T) {
	assert.Equal(t, HardDelete, DispositionFor(event.StatusDraft))
	for _, status := range []event.Status{
		event.StatusRegistration, event.StatusAudit,
		event.StatusChampionship, event.StatusFinished,
	} {
		assert.Equal(t, Archive, DispositionFor(status), string(status))
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()

	t.Run("valid transition advances", func(t *testing.T) {
		got, err := Apply(ctx, event.StatusDraft, TransitionOpenRegistration)
		require.NoError(t, err)
		assert.Equal(t, event.StatusRegistration, got)
	})

	t.Run("skipping a stage fails", func(t *testing.T) {
		_, err := Apply(ctx, event.StatusDraft, TransitionStartChamp)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("archive is reachable from anywhere", func(t *testing.T) {
		for _, from := range []event.Status{
			event.StatusDraft, event.StatusRegistration, event.StatusAudit,
			event.StatusChampionship, event.StatusFinished,
		} {
			got, err := Apply(ctx, from, TransitionArchive)
			require.NoError(t, err, string(from))
			assert.Equal(t, event.StatusArchived, got)
		}
	})

	t.Run("archived is terminal", func(t *testing.T) {
		_, err := Apply(ctx, event.StatusArchived, TransitionOpenRegistration)
		assert.Error(t, err)
	})
}

func TestAdvanceTo(t *testing.T) {
	ctx := context.Background()

	t.Run("chains intermediate transitions", func(t *testing.T) {
		got, err := AdvanceTo(ctx, event.StatusDraft, event.StatusChampionship)
		require.NoError(t, err)
		assert.Equal(t, event.StatusChampionship, got)
	})

	t.Run("same status is a noop", func(t *testing.T) {
		got, err := AdvanceTo(ctx, event.StatusAudit, event.StatusAudit)
		require.NoError(t, err)
		assert.Equal(t, event.StatusAudit, got)
	})

	t.Run("moving backwards fails", func(t *testing.T) {
		_, err := AdvanceTo(ctx, event.StatusChampionship, event.StatusRegistration)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}
