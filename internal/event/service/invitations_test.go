package service

import (
	"time"

	"fedevents/internal/audit"
	"fedevents/internal/event"
	"fedevents/internal/notification"
	dErrors "fedevents/pkg/domain-errors"
)

const (
	institutionID int64 = 30
	contactID     int64 = 31
)

func (s *EventServiceSuite) invitedEvent() *event.Event {
	return s.createEvent(date(2024, time.June, 1))
}

func (s *EventServiceSuite) TestInvite() {
	ev := s.invitedEvent()
	inv, err := s.svc.Invite(s.ctx, adminID, ev.ID, institutionID, contactID)
	s.Require().NoError(err)
	s.Equal(event.InvitationPending, inv.State)
	s.Equal(event.AuditPending, inv.AuditState)

	s.Require().Len(s.notifier.sent, 1)
	s.Equal(contactID, s.notifier.sent[0].UserID)
	s.Equal(notification.KindInvitation, s.notifier.sent[0].Kind)
	s.Equal(audit.ActionInvitationSent, s.trail.last().Action)
}

func (s *EventServiceSuite) TestInviteTwiceConflicts() {
	ev := s.invitedEvent()
	_, err := s.svc.Invite(s.ctx, adminID, ev.ID, institutionID, contactID)
	s.Require().NoError(err)

	_, err = s.svc.Invite(s.ctx, adminID, ev.ID, institutionID, contactID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *EventServiceSuite) TestAnswer() {
	ev := s.invitedEvent()
	_, err := s.svc.Invite(s.ctx, adminID, ev.ID, institutionID, contactID)
	s.Require().NoError(err)

	s.Run("accepting a pending invitation", func() {
		inv, err := s.svc.Answer(s.ctx, contactID, ev.ID, institutionID, true)
		s.Require().NoError(err)
		s.Equal(event.InvitationAccepted, inv.State)
	})

	s.Run("answering twice conflicts", func() {
		_, err := s.svc.Answer(s.ctx, contactID, ev.ID, institutionID, false)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown institution", func() {
		_, err := s.svc.Answer(s.ctx, contactID, ev.ID, 999, true)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *EventServiceSuite) TestUninvite() {
	ev := s.invitedEvent()
	_, err := s.svc.Invite(s.ctx, adminID, ev.ID, institutionID, contactID)
	s.Require().NoError(err)

	s.Run("pending invitations can be withdrawn", func() {
		s.Require().NoError(s.svc.Uninvite(s.ctx, adminID, ev.ID, institutionID))
		got, err := s.svc.Get(s.ctx, ev.ID)
		s.Require().NoError(err)
		s.Nil(got.InvitationFor(institutionID))
	})

	s.Run("approved registrations stay on the roster", func() {
		_, err := s.svc.Invite(s.ctx, adminID, ev.ID, institutionID, contactID)
		s.Require().NoError(err)

		stored, err := s.store.FindByID(s.ctx, ev.ID)
		s.Require().NoError(err)
		stored.InvitationFor(institutionID).AuditState = event.AuditApproved
		s.Require().NoError(s.store.Save(s.ctx, stored))

		err = s.svc.Uninvite(s.ctx, adminID, ev.ID, institutionID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *EventServiceSuite) TestExtendRegistration() {
	ev := s.invitedEvent()
	_, err := s.svc.Invite(s.ctx, adminID, ev.ID, institutionID, contactID)
	s.Require().NoError(err)

	s.Run("must land after the general end", func() {
		_, err := s.svc.ExtendRegistration(s.ctx, adminID, ev.ID, institutionID, date(2024, time.June, 3))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("valid extension is stored at day precision", func() {
		inv, err := s.svc.ExtendRegistration(s.ctx, adminID, ev.ID, institutionID,
			time.Date(2024, time.June, 6, 15, 30, 0, 0, time.UTC))
		s.Require().NoError(err)
		s.Equal(date(2024, time.June, 6), *inv.ExtendedRegistrationEnd)
	})

	s.Run("extensions clamp to the audit end", func() {
		inv, err := s.svc.ExtendRegistration(s.ctx, adminID, ev.ID, institutionID, date(2024, time.July, 20))
		s.Require().NoError(err)
		s.Equal(*ev.Timeline.AuditEnd, *inv.ExtendedRegistrationEnd)
	})
}

func (s *EventServiceSuite) TestInvitationsFor() {
	ev := s.invitedEvent()
	_, err := s.svc.Invite(s.ctx, adminID, ev.ID, institutionID, contactID)
	s.Require().NoError(err)
	other := s.createEvent(date(2024, time.July, 1))
	_, err = s.svc.Invite(s.ctx, adminID, other.ID, institutionID, contactID)
	s.Require().NoError(err)

	list, err := s.svc.InvitationsFor(s.ctx, institutionID)
	s.Require().NoError(err)
	s.Len(list, 2)
	s.Equal(ev.ID, list[0].Event.ID)
	s.Equal(institutionID, list[0].Invitation.InstitutionID)

	list, err = s.svc.InvitationsFor(s.ctx, 999)
	s.Require().NoError(err)
	s.Empty(list)
}
