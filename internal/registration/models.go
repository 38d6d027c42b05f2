// Package registration is the per-institution enrollment ledger for one
// event: which students are enrolled, which compliance documents each has
// submitted, and whether the record is still editable.
package registration

import (
	"strings"
	"time"

	"fedevents/internal/event"
)

// Student is an institution's athlete. Soft-deleted students keep their
// history but are excluded from new enrollment.
type Student struct {
	ID            int64
	InstitutionID int64
	FirstName     string
	LastName      string
	Sex           event.Sex
	BirthDate     time.Time
	Deleted       bool
	CreatedAt     time.Time
}

// FullName joins the name parts for messages and search.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// DocumentType is one entry of the required-document catalog.
type DocumentType struct {
	ID       int64
	Name     string
	Required bool
}

// DocumentState is the reviewer's verdict on one submitted document. It
// affects display only; completeness counts any present document.
type DocumentState string

const (
	DocumentPending    DocumentState = "pendiente"
	DocumentApproved   DocumentState = "aprobado"
	DocumentCorrection DocumentState = "correccion"
	DocumentRejected   DocumentState = "rechazada"
)

var validDocumentStates = map[DocumentState]bool{
	DocumentPending:    true,
	DocumentApproved:   true,
	DocumentCorrection: true,
	DocumentRejected:   true,
}

// Document is one submitted file. At most one current document exists per
// (student, type); a new upload supersedes the prior one.
type Document struct {
	ID           int64
	StudentID    int64
	TypeID       int64
	FileName     string
	ContentType  string
	FileRef      string
	State        DocumentState
	ReviewerNote string
	UploadedAt   time.Time
}

// IsPDF accepts a file by declared MIME type or filename suffix.
func IsPDF(fileName, contentType string) bool {
	if strings.EqualFold(contentType, "application/pdf") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(fileName), ".pdf")
}

// Registration is one institution's enrollment record for one event. The
// audit verdict lives on the event invitation; the registration carries the
// enrolled set, the documents and the edit lock.
type Registration struct {
	ID            int64
	EventID       int64
	InstitutionID int64
	StudentIDs    []int64
	Documents     []Document
	Locked        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Enrolled reports whether the student is in the enrolled set.
func (r *Registration) Enrolled(studentID int64) bool {
	for _, id := range r.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// DocumentFor returns the current document of one (student, type), or nil.
func (r *Registration) DocumentFor(studentID, typeID int64) *Document {
	for i := range r.Documents {
		if r.Documents[i].StudentID == studentID && r.Documents[i].TypeID == typeID {
			return &r.Documents[i]
		}
	}
	return nil
}

// DocumentsOf lists every current document a student has submitted.
func (r *Registration) DocumentsOf(studentID int64) []Document {
	var out []Document
	for _, d := range r.Documents {
		if d.StudentID == studentID {
			out = append(out, d)
		}
	}
	return out
}

// HasComplete reports whether a student holds a current document for every
// required type. An empty required set never counts as complete.
func (r *Registration) HasComplete(studentID int64, required []DocumentType) bool {
	hasRequired := false
	for _, dt := range required {
		if !dt.Required {
			continue
		}
		hasRequired = true
		if r.DocumentFor(studentID, dt.ID) == nil {
			return false
		}
	}
	return hasRequired
}

// BatchItem is one file in a document-upload batch.
type BatchItem struct {
	StudentID   int64
	TypeID      int64
	FileName    string
	ContentType string
	FileRef     string
}

// BatchItemResult reports the fate of one batch item.
type BatchItemResult struct {
	StudentID int64
	TypeID    int64
	Success   bool
	Message   string
}

// BatchResult aggregates a document-upload batch. Succeeded+Failed always
// equals the number of submitted items.
type BatchResult struct {
	Results   []BatchItemResult
	Succeeded int
	Failed    int
}

// StudentCompleteness is the per-student documentation summary.
type StudentCompleteness struct {
	StudentID int64
	Complete  bool
	Missing   []int64
	Documents []Document
}
