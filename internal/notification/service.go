package notification

import (
	"context"
	"errors"
	"time"

	"fedevents/internal/platform/metrics"
	dErrors "fedevents/pkg/domain-errors"
	"fedevents/pkg/platform/sentinel"
)

// Store is the persistence seam for the ledger.
type Store interface {
	Append(ctx context.Context, n *Notification) error
	List(ctx context.Context, q Query) ([]Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	SetRead(ctx context.Context, id, userID int64, read bool, at time.Time) error
	SetReadAll(ctx context.Context, userID int64, read bool, at time.Time) (int, error)
	Delete(ctx context.Context, id, userID int64) error
	Clear(ctx context.Context, userID int64) (int, error)
}

// Service owns the ledger rules. Appends come from other domain services;
// reads and read-flag mutations come from the transport layer.
type Service struct {
	store   Store
	metrics *metrics.Metrics
}

func NewService(store Store, m *metrics.Metrics) *Service {
	return &Service{store: store, metrics: m}
}

// Emit appends one alert to the ledger.
func (s *Service) Emit(ctx context.Context, n Notification) error {
	if n.UserID <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "notification requires a recipient")
	}
	if n.Title == "" {
		return dErrors.New(dErrors.CodeBadRequest, "notification requires a title")
	}
	if n.Level == "" {
		n.Level = LevelInfo
	}
	if n.Kind == "" {
		n.Kind = KindGeneral
	}
	if err := s.store.Append(ctx, &n); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append notification")
	}
	if s.metrics != nil {
		s.metrics.NotificationsEmitted.Inc()
	}
	return nil
}

// List returns the user's entries under the read-side filter.
func (s *Service) List(ctx context.Context, q Query) ([]Notification, error) {
	if q.UserID <= 0 {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user required")
	}
	if q.Filter == "" {
		q.Filter = FilterAll
	}
	return s.store.List(ctx, q)
}

// Summary returns the unread count plus the most recent entries.
func (s *Service) Summary(ctx context.Context, userID int64, limit int) (Summary, error) {
	if userID <= 0 {
		return Summary{}, dErrors.New(dErrors.CodeUnauthorized, "user required")
	}
	unread, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return Summary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count notifications")
	}
	recent, err := s.store.List(ctx, Query{UserID: userID, Filter: FilterAll})
	if err != nil {
		return Summary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	return Summary{TotalUnread: unread, Recent: recent}, nil
}

// MarkRead flips the read flag on one entry.
func (s *Service) MarkRead(ctx context.Context, id, userID int64, read bool) error {
	err := s.store.SetRead(ctx, id, userID, read, time.Now().UTC())
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "notification not found")
	}
	return err
}

// MarkAll flips the read flag on every entry of the user.
func (s *Service) MarkAll(ctx context.Context, userID int64, read bool) (int, error) {
	return s.store.SetReadAll(ctx, userID, read, time.Now().UTC())
}

// Remove hard-deletes one entry.
func (s *Service) Remove(ctx context.Context, id, userID int64) error {
	err := s.store.Delete(ctx, id, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "notification not found")
	}
	return err
}

// Clear hard-deletes the user's whole ledger and returns the count removed.
func (s *Service) Clear(ctx context.Context, userID int64) (int, error) {
	return s.store.Clear(ctx, userID)
}
