package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fedevents/internal/audit"
	"fedevents/internal/event"
	"fedevents/internal/event/eligibility"
	"fedevents/internal/event/stage"
	"fedevents/internal/notification"
	"fedevents/internal/platform/cache"
	"fedevents/internal/platform/metrics"
	dErrors "fedevents/pkg/domain-errors"
	"fedevents/pkg/platform/dedupe"
	"fedevents/pkg/platform/sentinel"
)

// Store persists registrations.
type Store interface {
	Save(ctx context.Context, r *Registration) error
	Find(ctx context.Context, eventID, institutionID int64) (*Registration, error)
	ListByEvent(ctx context.Context, eventID int64) ([]*Registration, error)
}

// StudentStore is the athlete directory.
type StudentStore interface {
	Save(ctx context.Context, st *Student) error
	FindByID(ctx context.Context, id int64) (*Student, error)
	ListByInstitution(ctx context.Context, institutionID int64, includeDeleted bool) ([]*Student, error)
	SetDeleted(ctx context.Context, id int64, deleted bool) error
	Delete(ctx context.Context, id int64) error
}

// EventStore is the slice of the event store the ledger needs: reading the
// aggregate for gating and writing back invitation-level audit state.
type EventStore interface {
	FindByID(ctx context.Context, id int64) (*event.Event, error)
	Save(ctx context.Context, ev *event.Event) error
}

// DocumentTypes lists the required-document catalog.
type DocumentTypes interface {
	List(ctx context.Context) ([]DocumentType, error)
}

// Trail receives audit events; it never fails the calling operation.
type Trail interface {
	Emit(ctx context.Context, ev audit.Event)
}

// Notifier appends ledger notifications derived from registration activity.
type Notifier interface {
	Emit(ctx context.Context, n notification.Notification) error
}

// Service enforces the stage gate on every registration mutation and keeps
// the invitation audit state in step with institution activity.
type Service struct {
	store    Store
	students StudentStore
	events   EventStore
	types    DocumentTypes
	cache    cache.Cache
	metrics  *metrics.Metrics
	trail    Trail
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(store Store, students StudentStore, events EventStore, types DocumentTypes,
	c cache.Cache, m *metrics.Metrics, trail Trail, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		students: students,
		events:   events,
		types:    types,
		cache:    c,
		metrics:  m,
		trail:    trail,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func eventCacheKey(id int64) string { return fmt.Sprintf("events/%d", id) }

// Get returns the institution's registration with its stage snapshot. A
// registration that was never saved comes back empty but well-formed.
func (s *Service) Get(ctx context.Context, eventID, institutionID int64) (*Registration, stage.Stage, error) {
	ev, _, st, err := s.load(ctx, eventID, institutionID)
	if err != nil {
		return nil, stage.Stage{}, err
	}
	reg, err := s.findOrEmpty(ctx, ev.ID, institutionID)
	if err != nil {
		return nil, stage.Stage{}, err
	}
	return reg, st, nil
}

// ListDocumentTypes exposes the required-document catalog.
func (s *Service) ListDocumentTypes(ctx context.Context) ([]DocumentType, error) {
	return s.types.List(ctx)
}

// SetEnrollment replaces the institution's enrolled set. IDs are
// de-duplicated and non-positive ones dropped; students holding submitted
// documents are never removed implicitly. Any change resets the audit
// verdict to pendiente.
func (s *Service) SetEnrollment(ctx context.Context, actorID, eventID, institutionID int64, studentIDs []int64) (*Registration, error) {
	ev, inv, st, err := s.load(ctx, eventID, institutionID)
	if err != nil {
		return nil, err
	}
	reg, err := s.findOrEmpty(ctx, eventID, institutionID)
	if err != nil {
		return nil, err
	}
	if err := s.gate(st, ev, inv, reg); err != nil {
		return nil, err
	}

	wanted := dedupe.IDs(studentIDs)
	reference := eligibility.ReferenceDate(ev, s.now())
	for _, id := range wanted {
		if reg.Enrolled(id) {
			continue
		}
		if err := s.checkStudent(ctx, id, institutionID, ev, reference); err != nil {
			return nil, err
		}
	}

	// Students with submitted documents stay enrolled even when the new set
	// omits them; dropping them needs an explicit document removal first.
	for _, id := range reg.StudentIDs {
		if len(reg.DocumentsOf(id)) > 0 && !dedupe.Contains(wanted, id) {
			wanted = append(wanted, id)
		}
	}

	reg.StudentIDs = wanted
	if err := s.store.Save(ctx, reg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save registration")
	}
	if err := s.resetVerdict(ctx, ev, inv); err != nil {
		return nil, err
	}

	s.trail.Emit(ctx, audit.Event{
		ActorID: actorID,
		EventID: &ev.ID,
		Action:  audit.ActionRegistrationUpdated,
		Subject: ev.Title,
		Detail:  fmt.Sprintf("%d estudiantes inscritos", len(reg.StudentIDs)),
	})
	s.notifyActivity(ctx, ev, institutionID, "actualizó su nómina de estudiantes")
	return reg, nil
}

// SubmitDocumentsBatch stores a batch of compliance PDFs. Items fail
// individually; a bad file never blocks its siblings. Students referenced by
// an item but not yet enrolled are enrolled first, and that write is
// persisted before any document is stored.
func (s *Service) SubmitDocumentsBatch(ctx context.Context, actorID, eventID, institutionID int64, items []BatchItem) (BatchResult, error) {
	ev, inv, st, err := s.load(ctx, eventID, institutionID)
	if err != nil {
		return BatchResult{}, err
	}
	if len(items) == 0 {
		return BatchResult{}, dErrors.New(dErrors.CodeValidation, "document batch contains no items")
	}
	reg, err := s.findOrEmpty(ctx, eventID, institutionID)
	if err != nil {
		return BatchResult{}, err
	}
	if err := s.gate(st, ev, inv, reg); err != nil {
		return BatchResult{}, err
	}

	// Enrollment-on-upload: enroll every referenced, admissible student and
	// persist that before touching documents.
	rejected := make(map[int64]string)
	reference := eligibility.ReferenceDate(ev, s.now())
	enrolledAny := false
	for _, item := range items {
		if reg.Enrolled(item.StudentID) {
			continue
		}
		if _, seen := rejected[item.StudentID]; seen {
			continue
		}
		if err := s.checkStudent(ctx, item.StudentID, institutionID, ev, reference); err != nil {
			rejected[item.StudentID] = dErrors.Message(err)
			continue
		}
		reg.StudentIDs = append(reg.StudentIDs, item.StudentID)
		enrolledAny = true
	}
	if enrolledAny || reg.ID == 0 {
		if err := s.store.Save(ctx, reg); err != nil {
			return BatchResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "save registration")
		}
	}

	var result BatchResult
	now := s.now().UTC()
	for _, item := range items {
		outcome := BatchItemResult{StudentID: item.StudentID, TypeID: item.TypeID}
		switch {
		case rejected[item.StudentID] != "":
			outcome.Message = rejected[item.StudentID]
		case !IsPDF(item.FileName, item.ContentType):
			outcome.Message = "only PDF files are accepted"
		default:
			s.supersede(reg, item, now)
			outcome.Success = true
			outcome.Message = "document stored"
		}
		if outcome.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
		s.metrics.ObserveDocumentUpload(outcome.Success)
		result.Results = append(result.Results, outcome)
	}

	if result.Succeeded > 0 {
		if err := s.store.Save(ctx, reg); err != nil {
			return BatchResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "save registration")
		}
		if err := s.resetVerdict(ctx, ev, inv); err != nil {
			return BatchResult{}, err
		}
		s.trail.Emit(ctx, audit.Event{
			ActorID: actorID,
			EventID: &ev.ID,
			Action:  audit.ActionDocumentsUploaded,
			Subject: ev.Title,
			Detail:  fmt.Sprintf("%d cargados, %d rechazados", result.Succeeded, result.Failed),
		})
		s.notifyActivity(ctx, ev, institutionID, "cargó documentos de sus estudiantes")
	}
	return result, nil
}

// Completeness reports, per enrolled student, whether every required
// document type has a current document. Review state is display-only and
// does not affect the verdict.
func (s *Service) Completeness(ctx context.Context, eventID, institutionID int64) ([]StudentCompleteness, error) {
	if _, _, _, err := s.load(ctx, eventID, institutionID); err != nil {
		return nil, err
	}
	reg, err := s.findOrEmpty(ctx, eventID, institutionID)
	if err != nil {
		return nil, err
	}
	required, err := s.types.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list document types")
	}

	out := make([]StudentCompleteness, 0, len(reg.StudentIDs))
	for _, studentID := range reg.StudentIDs {
		entry := StudentCompleteness{
			StudentID: studentID,
			Complete:  reg.HasComplete(studentID, required),
			Documents: reg.DocumentsOf(studentID),
		}
		for _, dt := range required {
			if dt.Required && reg.DocumentFor(studentID, dt.ID) == nil {
				entry.Missing = append(entry.Missing, dt.ID)
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

// ReviewDocument records the auditor's verdict on one submitted document.
func (s *Service) ReviewDocument(ctx context.Context, actorID, eventID, institutionID, documentID int64, state DocumentState, note string) (*Document, error) {
	ev, _, _, err := s.load(ctx, eventID, institutionID)
	if err != nil {
		return nil, err
	}
	if !validDocumentStates[state] {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid document review state")
	}
	reg, err := s.store.Find(ctx, eventID, institutionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load registration")
	}

	var doc *Document
	for i := range reg.Documents {
		if reg.Documents[i].ID == documentID {
			doc = &reg.Documents[i]
			break
		}
	}
	if doc == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	doc.State = state
	doc.ReviewerNote = note

	if err := s.store.Save(ctx, reg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save registration")
	}
	s.trail.Emit(ctx, audit.Event{
		ActorID: actorID,
		EventID: &ev.ID,
		Action:  audit.ActionDocumentReviewed,
		Subject: ev.Title,
		Detail:  string(state),
	})
	return doc, nil
}

// Decide records the audit verdict for one institution. Approval locks the
// registration and enables the institution for the championship; a
// rejection requires a reason.
func (s *Service) Decide(ctx context.Context, actorID, eventID, institutionID int64, verdict event.AuditState, reason string) error {
	ev, inv, _, err := s.load(ctx, eventID, institutionID)
	if err != nil {
		return err
	}
	switch verdict {
	case event.AuditApproved, event.AuditCorrection, event.AuditRejected:
	default:
		return dErrors.New(dErrors.CodeInvalidInput, "invalid audit verdict")
	}
	if verdict == event.AuditRejected && reason == "" {
		return dErrors.New(dErrors.CodeValidation, "a rejection requires a reason")
	}

	inv.AuditState = verdict
	inv.ChampionshipEnabled = verdict == event.AuditApproved
	if verdict == event.AuditApproved {
		inv.RejectionReason = ""
	} else {
		inv.RejectionReason = reason
	}
	if err := s.events.Save(ctx, ev); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "save event")
	}
	s.cache.Invalidate(ctx, eventCacheKey(ev.ID))

	if reg, err := s.store.Find(ctx, eventID, institutionID); err == nil {
		reg.Locked = verdict != event.AuditCorrection
		if err := s.store.Save(ctx, reg); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "save registration")
		}
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load registration")
	}

	s.trail.Emit(ctx, audit.Event{
		ActorID: actorID,
		EventID: &ev.ID,
		Action:  audit.ActionAuditDecision,
		Subject: ev.Title,
		Detail:  string(verdict),
	})
	return nil
}

// SetLock toggles the manual edit lock on a registration.
func (s *Service) SetLock(ctx context.Context, actorID, eventID, institutionID int64, locked bool) error {
	ev, _, _, err := s.load(ctx, eventID, institutionID)
	if err != nil {
		return err
	}
	reg, err := s.store.Find(ctx, eventID, institutionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "load registration")
	}
	reg.Locked = locked
	if err := s.store.Save(ctx, reg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "save registration")
	}
	s.trail.Emit(ctx, audit.Event{
		ActorID: actorID,
		EventID: &ev.ID,
		Action:  audit.ActionRegistrationUpdated,
		Subject: ev.Title,
		Detail:  fmt.Sprintf("edicion bloqueada: %t", locked),
	})
	return nil
}

func (s *Service) load(ctx context.Context, eventID, institutionID int64) (*event.Event, *event.Invitation, stage.Stage, error) {
	ev, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, stage.Stage{}, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, nil, stage.Stage{}, dErrors.Wrap(err, dErrors.CodeInternal, "load event")
	}
	if ev.Deleted {
		return nil, nil, stage.Stage{}, dErrors.New(dErrors.CodeNotFound, "event not found")
	}
	inv := ev.InvitationFor(institutionID)
	if inv == nil {
		return nil, nil, stage.Stage{}, dErrors.New(dErrors.CodeForbidden, "institution is not invited to this event")
	}
	return ev, inv, stage.Current(ev, s.now()), nil
}

func (s *Service) findOrEmpty(ctx context.Context, eventID, institutionID int64) (*Registration, error) {
	reg, err := s.store.Find(ctx, eventID, institutionID)
	if err == nil {
		return reg, nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return &Registration{EventID: eventID, InstitutionID: institutionID}, nil
	}
	return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load registration")
}

func (s *Service) gate(st stage.Stage, ev *event.Event, inv *event.Invitation, reg *Registration) error {
	if inv.State != event.InvitationAccepted {
		return dErrors.New(dErrors.CodeForbidden, "the invitation has not been accepted")
	}
	if reg.Locked {
		return dErrors.New(dErrors.CodeForbidden, "the registration is locked for editing")
	}
	if !stage.CanEditRegistration(st, ev, inv, s.now()) {
		return dErrors.New(dErrors.CodeForbidden, "the registration cannot be edited at the current stage")
	}
	return nil
}

func (s *Service) checkStudent(ctx context.Context, studentID, institutionID int64, ev *event.Event, reference time.Time) error {
	st, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeValidation, "student %d does not exist", studentID)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "load student")
	}
	if st.InstitutionID != institutionID {
		return dErrors.Newf(dErrors.CodeForbidden, "student %d belongs to another institution", studentID)
	}
	if st.Deleted {
		return dErrors.Newf(dErrors.CodeValidation, "student %s is deleted and cannot be enrolled", st.FullName())
	}
	if err := eligibility.Check(st.Sex, st.BirthDate, ev, reference); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "student "+st.FullName()+" is not eligible")
	}
	return nil
}

// resetVerdict returns the invitation to pendiente after institution
// activity so the auditor re-reviews the registration.
func (s *Service) resetVerdict(ctx context.Context, ev *event.Event, inv *event.Invitation) error {
	now := s.now().UTC()
	inv.AuditState = event.AuditPending
	inv.RejectionReason = ""
	inv.ChampionshipEnabled = false
	inv.LastSubmittedAt = &now
	if err := s.events.Save(ctx, ev); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "save event")
	}
	s.cache.Invalidate(ctx, eventCacheKey(ev.ID))
	return nil
}

func (s *Service) notifyActivity(ctx context.Context, ev *event.Event, institutionID int64, what string) {
	if ev.AdminID <= 0 {
		return
	}
	err := s.notifier.Emit(ctx, notification.Notification{
		UserID:  ev.AdminID,
		EventID: &ev.ID,
		Kind:    notification.KindRegistrationActivity,
		Level:   notification.LevelInfo,
		Title:   "Actividad de inscripción en " + ev.Title,
		Message: fmt.Sprintf("La institución %d %s.", institutionID, what),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "registration notification failed", "event_id", ev.ID, "error", err)
	}
}

func (s *Service) supersede(reg *Registration, item BatchItem, now time.Time) {
	kept := reg.Documents[:0]
	for _, d := range reg.Documents {
		if d.StudentID == item.StudentID && d.TypeID == item.TypeID {
			continue
		}
		kept = append(kept, d)
	}
	reg.Documents = append(kept, Document{
		StudentID:   item.StudentID,
		TypeID:      item.TypeID,
		FileName:    item.FileName,
		ContentType: item.ContentType,
		FileRef:     item.FileRef,
		State:       DocumentPending,
		UploadedAt:  now,
	})
}


