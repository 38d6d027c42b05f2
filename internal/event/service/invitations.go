package service

import (
	"context"
	"time"

	"fedevents/internal/audit"
	"fedevents/internal/event"
	"fedevents/internal/notification"
	dErrors "fedevents/pkg/domain-errors"
)

// Invite adds an institution to the event roster and notifies its contact
// user. Each institution holds at most one invitation per event.
func (s *Service) Invite(ctx context.Context, actorID, eventID, institutionID, contactUserID int64) (*event.Invitation, error) {
	ev, err := s.find(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.Status == event.StatusArchived {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "archived events cannot be edited")
	}
	if ev.InvitationFor(institutionID) != nil {
		return nil, dErrors.New(dErrors.CodeConflict, "institution is already invited to this event")
	}

	ev.Invitations = append(ev.Invitations, event.Invitation{
		EventID:       eventID,
		InstitutionID: institutionID,
		State:         event.InvitationPending,
		AuditState:    event.AuditPending,
		CreatedAt:     s.now().UTC(),
	})
	if err := s.store.Save(ctx, ev); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save event")
	}
	s.cache.Invalidate(ctx, cacheKey(eventID))

	s.trail.Emit(ctx, audit.Event{
		ActorID: actorID,
		EventID: &ev.ID,
		Action:  audit.ActionInvitationSent,
		Subject: ev.Title,
	})
	if contactUserID > 0 {
		if err := s.notifier.Emit(ctx, notification.Notification{
			UserID:  contactUserID,
			EventID: &ev.ID,
			Kind:    notification.KindInvitation,
			Level:   notification.LevelInfo,
			Title:   "Invitación a " + ev.Title,
			Message: "Su institución ha sido invitada a participar en el evento " + ev.Title + ".",
		}); err != nil {
			s.logger.WarnContext(ctx, "invitation notification failed", "event_id", ev.ID, "error", err)
		}
	}
	return ev.InvitationFor(institutionID), nil
}

// Uninvite removes an institution from the roster. Institutions whose
// registration was already approved stay on the roster.
func (s *Service) Uninvite(ctx context.Context, actorID, eventID, institutionID int64) error {
	ev, err := s.find(ctx, eventID)
	if err != nil {
		return err
	}
	inv := ev.InvitationFor(institutionID)
	if inv == nil {
		return dErrors.New(dErrors.CodeNotFound, "institution is not invited to this event")
	}
	if inv.AuditState == event.AuditApproved {
		return dErrors.New(dErrors.CodeConflict, "institution with an approved registration cannot be removed")
	}

	kept := ev.Invitations[:0]
	for _, candidate := range ev.Invitations {
		if candidate.InstitutionID != institutionID {
			kept = append(kept, candidate)
		}
	}
	ev.Invitations = kept

	if err := s.store.Save(ctx, ev); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "save event")
	}
	s.cache.Invalidate(ctx, cacheKey(eventID))

	s.trail.Emit(ctx, audit.Event{
		ActorID: actorID,
		EventID: &ev.ID,
		Action:  audit.ActionEventUpdated,
		Subject: ev.Title,
		Detail:  "invitacion retirada",
	})
	return nil
}

// Answer records an institution's response to a pending invitation.
func (s *Service) Answer(ctx context.Context, actorID, eventID, institutionID int64, accept bool) (*event.Invitation, error) {
	ev, err := s.find(ctx, eventID)
	if err != nil {
		return nil, err
	}
	inv := ev.InvitationFor(institutionID)
	if inv == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "institution is not invited to this event")
	}
	if inv.State != event.InvitationPending {
		return nil, dErrors.New(dErrors.CodeConflict, "invitation was already answered")
	}

	if accept {
		inv.State = event.InvitationAccepted
	} else {
		inv.State = event.InvitationRejected
	}
	if err := s.store.Save(ctx, ev); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save event")
	}
	s.cache.Invalidate(ctx, cacheKey(eventID))

	s.trail.Emit(ctx, audit.Event{
		ActorID: actorID,
		EventID: &ev.ID,
		Action:  audit.ActionInvitationAnswered,
		Subject: ev.Title,
		Detail:  string(inv.State),
	})
	return inv, nil
}

// ExtendRegistration grants one institution extra registration time. The
// extension must land after the general registration end and is clamped to
// the audit end so late enrollments can still be audited.
func (s *Service) ExtendRegistration(ctx context.Context, actorID, eventID, institutionID int64, newEnd time.Time) (*event.Invitation, error) {
	ev, err := s.find(ctx, eventID)
	if err != nil {
		return nil, err
	}
	inv := ev.InvitationFor(institutionID)
	if inv == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "institution is not invited to this event")
	}
	general := ev.Timeline.RegistrationEnd
	if general == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "event has no registration end to extend")
	}
	newEnd = time.Date(newEnd.Year(), newEnd.Month(), newEnd.Day(), 0, 0, 0, 0, time.UTC)
	if !newEnd.After(*general) {
		return nil, dErrors.New(dErrors.CodeValidation, "extension must end after the general registration end")
	}
	if auditEnd := ev.Timeline.AuditEnd; auditEnd != nil && newEnd.After(*auditEnd) {
		newEnd = *auditEnd
	}

	inv.ExtendedRegistrationEnd = &newEnd
	if err := s.store.Save(ctx, ev); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save event")
	}
	s.cache.Invalidate(ctx, cacheKey(eventID))

	s.trail.Emit(ctx, audit.Event{
		ActorID: actorID,
		EventID: &ev.ID,
		Action:  audit.ActionRegistrationUpdated,
		Subject: ev.Title,
		Detail:  "plazo extendido hasta " + newEnd.Format("2006-01-02"),
	})
	return inv, nil
}

// InstitutionInvitation pairs an invitation with its event for roster views.
type InstitutionInvitation struct {
	Event      *event.Event
	Invitation event.Invitation
}

// InvitationsFor lists every invitation held by one institution.
func (s *Service) InvitationsFor(ctx context.Context, institutionID int64) ([]InstitutionInvitation, error) {
	events, err := s.store.List(ctx, "")
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list events")
	}
	var out []InstitutionInvitation
	for _, ev := range events {
		if inv := ev.InvitationFor(institutionID); inv != nil {
			out = append(out, InstitutionInvitation{Event: ev, Invitation: *inv})
		}
	}
	return out, nil
}
