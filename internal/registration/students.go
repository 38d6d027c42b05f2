package registration

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fedevents/internal/event"
	dErrors "fedevents/pkg/domain-errors"
	"fedevents/pkg/platform/sentinel"
)

// Directory manages the athlete roster of each institution. Soft deletion
// keeps the student restorable; force deletion removes the record.
type Directory struct {
	store  StudentStore
	logger *slog.Logger
	now    func() time.Time
}

func NewDirectory(store StudentStore, logger *slog.Logger) *Directory {
	return &Directory{store: store, logger: logger, now: time.Now}
}

// StudentParams carries the editable student fields.
type StudentParams struct {
	InstitutionID int64
	FirstName     string
	LastName      string
	Sex           event.Sex
	BirthDate     time.Time
}

func (d *Directory) validate(p StudentParams) error {
	if p.InstitutionID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "student institution is required")
	}
	if p.FirstName == "" || p.LastName == "" {
		return dErrors.New(dErrors.CodeValidation, "student first and last name are required")
	}
	if _, err := event.ParseSex(string(p.Sex)); err != nil {
		return err
	}
	if p.BirthDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "student birth date is required")
	}
	if p.BirthDate.After(d.now()) {
		return dErrors.New(dErrors.CodeValidation, "student birth date cannot be in the future")
	}
	return nil
}

func (d *Directory) Create(ctx context.Context, p StudentParams) (*Student, error) {
	if err := d.validate(p); err != nil {
		return nil, err
	}
	st := &Student{
		InstitutionID: p.InstitutionID,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Sex:           p.Sex,
		BirthDate:     p.BirthDate,
	}
	if err := d.store.Save(ctx, st); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save student")
	}
	return st, nil
}

func (d *Directory) Update(ctx context.Context, id int64, p StudentParams) (*Student, error) {
	if err := d.validate(p); err != nil {
		return nil, err
	}
	st, err := d.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.InstitutionID != p.InstitutionID {
		return nil, dErrors.New(dErrors.CodeForbidden, "student belongs to another institution")
	}
	st.FirstName = p.FirstName
	st.LastName = p.LastName
	st.Sex = p.Sex
	st.BirthDate = p.BirthDate
	if err := d.store.Save(ctx, st); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save student")
	}
	return st, nil
}

func (d *Directory) Get(ctx context.Context, id int64) (*Student, error) {
	return d.find(ctx, id)
}

// List returns an institution's students, optionally including the
// soft-deleted ones.
func (d *Directory) List(ctx context.Context, institutionID int64, includeDeleted bool) ([]*Student, error) {
	return d.store.ListByInstitution(ctx, institutionID, includeDeleted)
}

// SoftDelete excludes the student from new enrollment while keeping the
// record restorable.
func (d *Directory) SoftDelete(ctx context.Context, id int64) error {
	return d.setDeleted(ctx, id, true)
}

// Restore undoes a soft delete.
func (d *Directory) Restore(ctx context.Context, id int64) error {
	return d.setDeleted(ctx, id, false)
}

// ForceDelete removes the student record outright.
func (d *Directory) ForceDelete(ctx context.Context, id int64) error {
	if err := d.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete student")
	}
	d.logger.InfoContext(ctx, "student force-deleted", "student_id", id)
	return nil
}

func (d *Directory) setDeleted(ctx context.Context, id int64, deleted bool) error {
	if err := d.store.SetDeleted(ctx, id, deleted); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "update student")
	}
	return nil
}

func (d *Directory) find(ctx context.Context, id int64) (*Student, error) {
	st, err := d.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load student")
	}
	return st, nil
}
