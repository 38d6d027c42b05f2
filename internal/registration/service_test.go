package registration

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"fedevents/internal/audit"
	"fedevents/internal/event"
	"fedevents/internal/notification"
	"fedevents/internal/platform/cache"
	"fedevents/internal/platform/metrics"
	dErrors "fedevents/pkg/domain-errors"
)

const (
	auditorID     int64 = 1
	institutionID int64 = 30
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(t time.Time) *time.Time { return &t }

func intPtr(v int) *int { return &v }

type trailRecorder struct {
	entries []audit.Event
}

func (r *trailRecorder) Emit(_ context.Context, ev audit.Event) {
	r.entries = append(r.entries, ev)
}

type notifierRecorder struct {
	sent []notification.Notification
}

func (r *notifierRecorder) Emit(_ context.Context, n notification.Notification) error {
	r.sent = append(r.sent, n)
	return nil
}

type RegistrationServiceSuite struct {
	suite.Suite
	ctx      context.Context
	store    *InMemoryStore
	students *StudentInMemoryStore
	events   *event.InMemoryStore
	catalog  *Catalog
	trail    *trailRecorder
	notifier *notifierRecorder
	svc      *Service
	now      time.Time
	ev       *event.Event
}

func TestRegistrationServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistrationServiceSuite))
}

func (s *RegistrationServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
	s.students = NewStudentInMemoryStore()
	s.events = event.NewInMemoryStore()
	s.catalog = NewCatalog(
		DocumentType{Name: "Documento de identidad", Required: true},
		DocumentType{Name: "Certificado médico", Required: true},
		DocumentType{Name: "Carné estudiantil", Required: false},
	)
	s.trail = &trailRecorder{}
	s.notifier = &notifierRecorder{}
	s.now = date(2024, time.June, 3)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = NewService(s.store, s.students, s.events, s.catalog,
		cache.Noop{}, metrics.NewWith(prometheus.NewRegistry()), s.trail, s.notifier, log)
	s.svc.now = func() time.Time { return s.now }

	s.ev = &event.Event{
		AdminID: auditorID,
		Title:   "Juegos Intercolegiados",
		Sex:     event.SexMixed,
		Status:  event.StatusDraft,
		Timeline: event.Timeline{
			RegistrationStart: datePtr(date(2024, time.June, 1)),
			RegistrationEnd:   datePtr(date(2024, time.June, 4)),
			AuditStart:        datePtr(date(2024, time.June, 7)),
			AuditEnd:          datePtr(date(2024, time.June, 10)),
			ChampionshipStart: datePtr(date(2024, time.June, 13)),
			ChampionshipEnd:   datePtr(date(2024, time.June, 16)),
		},
		Invitations: []event.Invitation{{
			InstitutionID: institutionID,
			State:         event.InvitationAccepted,
			AuditState:    event.AuditPending,
		}},
	}
	s.Require().NoError(s.events.Save(s.ctx, s.ev))
}

func (s *RegistrationServiceSuite) addStudent(first string, sex event.Sex, birth time.Time) *Student {
	st := &Student{
		InstitutionID: institutionID,
		FirstName:     first,
		LastName:      "Prueba",
		Sex:           sex,
		BirthDate:     birth,
	}
	s.Require().NoError(s.students.Save(s.ctx, st))
	return st
}

func pdfItem(studentID, typeID int64, name string) BatchItem {
	return BatchItem{
		StudentID:   studentID,
		TypeID:      typeID,
		FileName:    name,
		ContentType: "application/pdf",
		FileRef:     "upload://" + name,
	}
}

func (s *RegistrationServiceSuite) TestGetReturnsEmptyLedger() {
	reg, st, err := s.svc.Get(s.ctx, s.ev.ID, institutionID)
	s.Require().NoError(err)
	s.Zero(reg.ID)
	s.Empty(reg.StudentIDs)
	s.Equal(s.ev.ID, reg.EventID)
	s.NotZero(st.Kind)
}

func (s *RegistrationServiceSuite) TestGetUninvitedInstitution() {
	_, _, err := s.svc.Get(s.ctx, s.ev.ID, 999)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *RegistrationServiceSuite) TestSetEnrollment() {
	a := s.addStudent("Ana", event.SexFemale, date(2010, time.March, 1))
	b := s.addStudent("Luis", event.SexMale, date(2011, time.April, 2))

	s.Run("dedupes and drops non-positive ids", func() {
		reg, err := s.svc.SetEnrollment(s.ctx, institutionID, s.ev.ID, institutionID,
			[]int64{a.ID, a.ID, 0, -4, b.ID})
		s.Require().NoError(err)
		s.Equal([]int64{a.ID, b.ID}, reg.StudentIDs)
	})

	s.Run("activity resets the audit verdict", func() {
		stored, err := s.events.FindByID(s.ctx, s.ev.ID)
		s.Require().NoError(err)
		inv := stored.InvitationFor(institutionID)
		s.Equal(event.AuditPending, inv.AuditState)
		s.NotNil(inv.LastSubmittedAt)
	})

	s.Run("admin is notified", func() {
		s.Require().NotEmpty(s.notifier.sent)
		s.Equal(notification.KindRegistrationActivity, s.notifier.sent[0].Kind)
		s.Equal(auditorID, s.notifier.sent[0].UserID)
	})
}

func (s *RegistrationServiceSuite) TestSetEnrollmentChecksEligibility() {
	restricted := s.ev
	restricted.Sex = event.SexFemale
	restricted.Categories = []event.Category{{Name: "Juvenil", MinAge: intPtr(12), MaxAge: intPtr(15)}}
	s.Require().NoError(s.events.Save(s.ctx, restricted))

	s.Run("wrong sex is rejected", func() {
		boy := s.addStudent("Luis", event.SexMale, date(2010, time.March, 1))
		_, err := s.svc.SetEnrollment(s.ctx, institutionID, s.ev.ID, institutionID, []int64{boy.ID})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("age outside the category fails", func() {
		old := s.addStudent("Marta", event.SexFemale, date(2000, time.March, 1))
		_, err := s.svc.SetEnrollment(s.ctx, institutionID, s.ev.ID, institutionID, []int64{old.ID})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("another institution's student is rejected", func() {
		foreign := &Student{InstitutionID: 77, FirstName: "Pedro", Sex: event.SexFemale,
			BirthDate: date(2011, time.March, 1)}
		s.Require().NoError(s.students.Save(s.ctx, foreign))
		_, err := s.svc.SetEnrollment(s.ctx, institutionID, s.ev.ID, institutionID, []int64{foreign.ID})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("soft-deleted student is rejected", func() {
		gone := s.addStudent("Rosa", event.SexFemale, date(2011, time.March, 1))
		s.Require().NoError(s.students.SetDeleted(s.ctx, gone.ID, true))
		_, err := s.svc.SetEnrollment(s.ctx, institutionID, s.ev.ID, institutionID, []int64{gone.ID})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown student is rejected", func() {
		_, err := s.svc.SetEnrollment(s.ctx, institutionID, s.ev.ID, institutionID, []int64{9999})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *RegistrationServiceSuite) TestSetEnrollmentKeepsStudentsWithDocuments() {
	a := s.addStudent("Ana", event.SexFemale, date(2010, time.March, 1))
	b := s.addStudent("Luis", event.SexMale, date(2011, time.April, 2))

	_, err := s.svc.SubmitDocumentsBatch(s.ctx, institutionID, s.ev.ID, institutionID,
		[]BatchItem{pdfItem(a.ID, 1, "cedula.pdf")})
	s.Require().NoError(err)

	reg, err := s.svc.SetEnrollment(s.ctx, institutionID, s.ev.ID, institutionID, []int64{b.ID})
	s.Require().NoError(err)
	s.ElementsMatch([]int64{a.ID, b.ID}, reg.StudentIDs)
}

func (s *RegistrationServiceSuite) TestSubmitDocumentsBatch() {
	a := s.addStudent("Ana", event.SexFemale, date(2010, time.March, 1))

	s.Run("empty batch is rejected", func() {
		_, err := s.svc.SubmitDocumentsBatch(s.ctx, institutionID, s.ev.ID, institutionID, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("enrollment happens on upload", func() {
		result, err := s.svc.SubmitDocumentsBatch(s.ctx, institutionID, s.ev.ID, institutionID,
			[]BatchItem{pdfItem(a.ID, 1, "cedula.pdf")})
		s.Require().NoError(err)
		s.Equal(1, result.Succeeded)

		reg, err := s.store.Find(s.ctx, s.ev.ID, institutionID)
		s.Require().NoError(err)
		s.True(reg.Enrolled(a.ID))
		s.Len(reg.Documents, 1)
		s.Equal(DocumentPending, reg.Documents[0].State)
	})

	s.Run("audit trail records the batch", func() {
		last := s.trail.entries[len(s.trail.entries)-1]
		s.Equal(audit.ActionDocumentsUploaded, last.Action)
	})
}

func (s *RegistrationServiceSuite) TestSubmitDocumentsBatchIsolatesFailures() {
	a := s.addStudent("Ana", event.SexFemale, date(2010, time.March, 1))
	b := s.addStudent("Luis", event.SexMale, date(2011, time.April, 2))

	result, err := s.svc.SubmitDocumentsBatch(s.ctx, institutionID, s.ev.ID, institutionID,
		[]BatchItem{
			pdfItem(a.ID, 1, "cedula.pdf"),
			{StudentID: b.ID, TypeID: 1, FileName: "foto.png", ContentType: "image/png"},
			pdfItem(b.ID, 2, "eps.pdf"),
		})
	s.Require().NoError(err)

	s.Equal(2, result.Succeeded)
	s.Equal(1, result.Failed)
	s.Equal(len(result.Results), result.Succeeded+result.Failed)
	s.False(result.Results[1].Success)
	s.Contains(result.Results[1].Message, "PDF")

	// The enrollment performed for the failed item's student persists.
	reg, err := s.store.Find(s.ctx, s.ev.ID, institutionID)
	s.Require().NoError(err)
	s.True(reg.Enrolled(b.ID))
	s.Len(reg.Documents, 2)
}

func (s *RegistrationServiceSuite) TestSubmitDocumentsBatchRejectsIneligibleStudents() {
	s.ev.Sex = event.SexFemale
	s.Require().NoError(s.events.Save(s.ctx, s.ev))
	a := s.addStudent("Ana", event.SexFemale, date(2010, time.March, 1))
	boy := s.addStudent("Luis", event.SexMale, date(2011, time.April, 2))

	result, err := s.svc.SubmitDocumentsBatch(s.ctx, institutionID, s.ev.ID, institutionID,
		[]BatchItem{
			pdfItem(boy.ID, 1, "cedula.pdf"),
			pdfItem(a.ID, 1, "cedula.pdf"),
		})
	s.Require().NoError(err)

	s.Equal(1, result.Succeeded)
	s.Equal(1, result.Failed)
	s.NotEmpty(result.Results[0].Message)

	reg, err := s.store.Find(s.ctx, s.ev.ID, institutionID)
	s.Require().NoError(err)
	s.False(reg.Enrolled(boy.ID))
}

func (s *RegistrationServiceSuite) TestSubmitDocumentsSupersedes() {
	a := s.addStudent("Ana", event.SexFemale, date(2010, time.March, 1))

	_, err := s.svc.SubmitDocumentsBatch(s.ctx, institutionID, s.ev.ID, institutionID,
		[]BatchItem{pdfItem(a.ID, 1, "cedula_v1.pdf")})
	s.Require().NoError(err)
	_, err = s.svc.SubmitDocumentsBatch(s.ctx, institutionID, s.ev.ID, institutionID,
		[]BatchItem{pdfItem(a.ID, 1, "cedula_v2.pdf")})
	s.Require().NoError(err)

	reg, err := s.store.Find(s.ctx, s.ev.ID, institutionID)
	s.Require().NoError(err)
	s.Len(reg.Documents, 1)
	s.Equal("cedula_v2.pdf", reg.Documents[0].FileName)
}

func (s *RegistrationServiceSuite) TestMutationsAreGated() {
	a := s.addStudent("Ana", event.SexFemale, date(2010, time.March, 1))

	s.Run("unaccepted invitation", func() {
		stored, err := s.events.FindByID(s.ctx, s.ev.ID)
		s.Require().NoError(err)
		stored.InvitationFor(institutionID).State = event.InvitationPending
		s.Require().NoError(s.events.Save(s.ctx, stored))

		_, err = s.svc.SetEnrollment(s.ctx, institutionID, s.ev.ID, institutionID, []int64{a.ID})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		stored.InvitationFor(institutionID).State = event.InvitationAccepted
		s.Require().NoError(s.events.Save(s.ctx, stored))
	})

	s.Run("locked registration", func() {
		reg := &Registration{EventID: s.ev.ID, InstitutionID: institutionID, Locked: true}
		s.Require().NoError(s.store.Save(s.ctx, reg))

		_, err := s.svc.SubmitDocumentsBatch(s.ctx, institutionID, s.ev.ID, institutionID,
			[]BatchItem{pdfItem(a.ID, 1, "cedula.pdf")})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		reg.Locked = false
		s.Require().NoError(s.store.Save(s.ctx, reg))
	})

	s.Run("championship stage", func() {
		s.now = date(2024, time.June, 14)
		_, err := s.svc.SetEnrollment(s.ctx, institutionID, s.ev.ID, institutionID, []int64{a.ID})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.now = date(2024, time.June, 3)
	})

	s.Run("extension keeps the window open past the general end", func() {
		s.now = date(2024, time.June, 5)
		_, err := s.svc.SetEnrollment(s.ctx, institutionID, s.ev.ID, institutionID, []int64{a.ID})
		s.Require().Error(err)

		stored, findErr := s.events.FindByID(s.ctx, s.ev.ID)
		s.Require().NoError(findErr)
		stored.InvitationFor(institutionID).ExtendedRegistrationEnd = datePtr(date(2024, time.June, 6))
		s.Require().NoError(s.events.Save(s.ctx, stored))

		_, err = s.svc.SetEnrollment(s.ctx, institutionID, s.ev.ID, institutionID, []int64{a.ID})
		s.NoError(err)
		s.now = date(2024, time.June, 3)
	})
}

func (s *RegistrationServiceSuite) TestCompleteness() {
	a := s.addStudent("Ana", event.SexFemale, date(2010, time.March, 1))
	b := s.addStudent("Luis", event.SexMale, date(2011, time.April, 2))

	_, err := s.svc.SubmitDocumentsBatch(s.ctx, institutionID, s.ev.ID, institutionID,
		[]BatchItem{
			pdfItem(a.ID, 1, "cedula.pdf"),
			pdfItem(a.ID, 2, "eps.pdf"),
			pdfItem(b.ID, 1, "cedula.pdf"),
		})
	s.Require().NoError(err)

	report, err := s.svc.Completeness(s.ctx, s.ev.ID, institutionID)
	s.Require().NoError(err)
	s.Require().Len(report, 2)

	byStudent := map[int64]StudentCompleteness{}
	for _, entry := range report {
		byStudent[entry.StudentID] = entry
	}
	s.True(byStudent[a.ID].Complete)
	s.Empty(byStudent[a.ID].Missing)
	s.False(byStudent[b.ID].Complete)
	s.Equal([]int64{2}, byStudent[b.ID].Missing)
}

func (s *RegistrationServiceSuite) TestReviewDocument() {
	a := s.addStudent("Ana", event.SexFemale, date(2010, time.March, 1))
	_, err := s.svc.SubmitDocumentsBatch(s.ctx, institutionID, s.ev.ID, institutionID,
		[]BatchItem{pdfItem(a.ID, 1, "cedula.pdf")})
	s.Require().NoError(err)
	reg, err := s.store.Find(s.ctx, s.ev.ID, institutionID)
	s.Require().NoError(err)
	docID := reg.Documents[0].ID

	s.Run("review sticks", func() {
		doc, err := s.svc.ReviewDocument(s.ctx, auditorID, s.ev.ID, institutionID, docID,
			DocumentCorrection, "firma ilegible")
		s.Require().NoError(err)
		s.Equal(DocumentCorrection, doc.State)
		s.Equal("firma ilegible", doc.ReviewerNote)
	})

	s.Run("invalid state is rejected", func() {
		_, err := s.svc.ReviewDocument(s.ctx, auditorID, s.ev.ID, institutionID, docID, "bueno", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unknown document", func() {
		_, err := s.svc.ReviewDocument(s.ctx, auditorID, s.ev.ID, institutionID, 999,
			DocumentApproved, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *RegistrationServiceSuite) TestDecide() {
	a := s.addStudent("Ana", event.SexFemale, date(2010, time.March, 1))
	_, err := s.svc.SubmitDocumentsBatch(s.ctx, institutionID, s.ev.ID, institutionID,
		[]BatchItem{pdfItem(a.ID, 1, "cedula.pdf")})
	s.Require().NoError(err)

	s.Run("approval locks and enables championship", func() {
		s.Require().NoError(s.svc.Decide(s.ctx, auditorID, s.ev.ID, institutionID,
			event.AuditApproved, ""))

		stored, err := s.events.FindByID(s.ctx, s.ev.ID)
		s.Require().NoError(err)
		inv := stored.InvitationFor(institutionID)
		s.Equal(event.AuditApproved, inv.AuditState)
		s.True(inv.ChampionshipEnabled)

		reg, err := s.store.Find(s.ctx, s.ev.ID, institutionID)
		s.Require().NoError(err)
		s.True(reg.Locked)
	})

	s.Run("correction reopens editing", func() {
		s.Require().NoError(s.svc.Decide(s.ctx, auditorID, s.ev.ID, institutionID,
			event.AuditCorrection, "faltan certificados"))

		stored, err := s.events.FindByID(s.ctx, s.ev.ID)
		s.Require().NoError(err)
		inv := stored.InvitationFor(institutionID)
		s.Equal(event.AuditCorrection, inv.AuditState)
		s.False(inv.ChampionshipEnabled)
		s.Equal("faltan certificados", inv.RejectionReason)

		reg, err := s.store.Find(s.ctx, s.ev.ID, institutionID)
		s.Require().NoError(err)
		s.False(reg.Locked)
	})

	s.Run("rejection requires a reason", func() {
		err := s.svc.Decide(s.ctx, auditorID, s.ev.ID, institutionID, event.AuditRejected, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("invalid verdict", func() {
		err := s.svc.Decide(s.ctx, auditorID, s.ev.ID, institutionID, "pendiente", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *RegistrationServiceSuite) TestSetLock() {
	a := s.addStudent("Ana", event.SexFemale, date(2010, time.March, 1))
	_, err := s.svc.SubmitDocumentsBatch(s.ctx, institutionID, s.ev.ID, institutionID,
		[]BatchItem{pdfItem(a.ID, 1, "cedula.pdf")})
	s.Require().NoError(err)

	s.Require().NoError(s.svc.SetLock(s.ctx, auditorID, s.ev.ID, institutionID, true))
	reg, err := s.store.Find(s.ctx, s.ev.ID, institutionID)
	s.Require().NoError(err)
	s.True(reg.Locked)

	s.Require().NoError(s.svc.SetLock(s.ctx, auditorID, s.ev.ID, institutionID, false))
	reg, err = s.store.Find(s.ctx, s.ev.ID, institutionID)
	s.Require().NoError(err)
	s.False(reg.Locked)
}
