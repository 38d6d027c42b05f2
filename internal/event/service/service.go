// Package service orchestrates the event aggregate: creation with timeline
// derivation, partial timeline edits, stage resolution and the delete
// asymmetry between drafts and events with registration history.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fedevents/internal/audit"
	"fedevents/internal/event"
	"fedevents/internal/event/stage"
	"fedevents/internal/event/timeline"
	"fedevents/internal/notification"
	"fedevents/internal/platform/cache"
	"fedevents/internal/platform/metrics"
	dErrors "fedevents/pkg/domain-errors"
	"fedevents/pkg/platform/sentinel"
)

// Store is the persistence surface the service needs. InMemoryStore and any
// future SQL store satisfy it.
type Store interface {
	Save(ctx context.Context, ev *event.Event) error
	FindByID(ctx context.Context, id int64) (*event.Event, error)
	List(ctx context.Context, search string) ([]*event.Event, error)
	Delete(ctx context.Context, id int64) error
}

// Trail receives audit events; it never fails the calling operation.
type Trail interface {
	Emit(ctx context.Context, ev audit.Event)
}

// Notifier appends ledger notifications derived from event activity.
type Notifier interface {
	Emit(ctx context.Context, n notification.Notification) error
}

type Service struct {
	store    Store
	cache    cache.Cache
	metrics  *metrics.Metrics
	trail    Trail
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(store Store, c cache.Cache, m *metrics.Metrics, trail Trail, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		cache:    c,
		metrics:  m,
		trail:    trail,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func cacheKey(id int64) string { return fmt.Sprintf("events/%d", id) }

// CreateParams carries the admin's initial event form. Timeline dates are
// optional; any provided date is treated as manually set and the rest are
// derived from the registration start.
type CreateParams struct {
	AdminID     int64
	Title       string
	Description string
	Sex         event.Sex
	SportID     int64
	Categories  []event.Category
	Scenarios   []event.Scenario
	Timeline    event.Timeline
	CoverImage  string
	PlanningDoc string
}

func (s *Service) Create(ctx context.Context, p CreateParams) (*event.Event, error) {
	if p.Title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "event title is required")
	}
	if p.Sex == "" {
		p.Sex = event.SexMixed
	} else if _, err := event.ParseSex(string(p.Sex)); err != nil {
		return nil, err
	}
	for _, c := range p.Categories {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}

	form := timeline.Cascade(formOf(p.Timeline), timeline.DefaultOffsets(), false)
	tl := timelineOf(form)
	if tl.Complete() {
		if err := timeline.Validate(tl); err != nil {
			return nil, err
		}
	}

	ev := &event.Event{
		AdminID:     p.AdminID,
		Title:       p.Title,
		Description: p.Description,
		Sex:         p.Sex,
		SportID:     p.SportID,
		Categories:  p.Categories,
		Scenarios:   p.Scenarios,
		Timeline:    tl,
		Status:      event.StatusDraft,
		CoverImage:  p.CoverImage,
		PlanningDoc: p.PlanningDoc,
	}
	if err := s.store.Save(ctx, ev); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save event")
	}

	s.metrics.EventsCreated.Inc()
	s.trail.Emit(ctx, audit.Event{
		ActorID: p.AdminID,
		EventID: &ev.ID,
		Action:  audit.ActionEventCreated,
		Subject: ev.Title,
	})
	s.logger.InfoContext(ctx, "event created", "event_id", ev.ID, "title", ev.Title)
	return ev, nil
}

// UpdateParams is a partial edit; nil fields keep the stored value.
type UpdateParams struct {
	Title       *string
	Description *string
	Sex         *event.Sex
	Categories  []event.Category
	Scenarios   []event.Scenario
	CoverImage  *string
	PlanningDoc *string
}

func (s *Service) Update(ctx context.Context, actorID, id int64, p UpdateParams) (*event.Event, error) {
	ev, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev.Status == event.StatusArchived {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "archived events cannot be edited")
	}

	if p.Title != nil {
		if *p.Title == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "event title is required")
		}
		ev.Title = *p.Title
	}
	if p.Description != nil {
		ev.Description = *p.Description
	}
	if p.Sex != nil {
		if _, err := event.ParseSex(string(*p.Sex)); err != nil {
			return nil, err
		}
		ev.Sex = *p.Sex
	}
	if p.Categories != nil {
		for _, c := range p.Categories {
			if err := c.Validate(); err != nil {
				return nil, err
			}
		}
		ev.Categories = p.Categories
	}
	if p.Scenarios != nil {
		ev.Scenarios = p.Scenarios
	}
	if p.CoverImage != nil {
		ev.CoverImage = *p.CoverImage
	}
	if p.PlanningDoc != nil {
		ev.PlanningDoc = *p.PlanningDoc
	}

	if err := s.store.Save(ctx, ev); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save event")
	}
	s.cache.Invalidate(ctx, cacheKey(id))
	s.trail.Emit(ctx, audit.Event{
		ActorID: actorID,
		EventID: &ev.ID,
		Action:  audit.ActionEventUpdated,
		Subject: ev.Title,
	})
	return ev, nil
}

// Get reads through the cache. Cache errors degrade to a store read.
func (s *Service) Get(ctx context.Context, id int64) (*event.Event, error) {
	key := cacheKey(id)
	if raw, ok := s.cache.Get(ctx, key); ok {
		var ev event.Event
		if err := json.Unmarshal(raw, &ev); err == nil {
			s.metrics.ObserveCacheLookup(true)
			return &ev, nil
		}
		s.cache.Invalidate(ctx, key)
	}
	s.metrics.ObserveCacheLookup(false)

	ev, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(ev); err == nil {
		s.cache.Set(ctx, key, raw)
	}
	return ev, nil
}

func (s *Service) List(ctx context.Context, search string) ([]*event.Event, error) {
	return s.store.List(ctx, search)
}

// UpdateTimeline folds a partial date edit into the stored timeline,
// preserving the spans of untouched windows.
func (s *Service) UpdateTimeline(ctx context.Context, actorID, id int64, patch timeline.Update) (*event.Event, error) {
	ev, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev.Status == event.StatusArchived {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "archived events cannot be edited")
	}

	merged, err := timeline.MergeUpdate(ev.Timeline, patch)
	if err != nil {
		return nil, err
	}
	ev.Timeline = merged

	if err := s.store.Save(ctx, ev); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save event")
	}
	s.cache.Invalidate(ctx, cacheKey(id))
	s.trail.Emit(ctx, audit.Event{
		ActorID: actorID,
		EventID: &ev.ID,
		Action:  audit.ActionTimelineAdjusted,
		Subject: ev.Title,
	})
	return ev, nil
}

// CurrentStage resolves the lifecycle stage of one event right now.
func (s *Service) CurrentStage(ctx context.Context, id int64) (stage.Stage, error) {
	ev, err := s.find(ctx, id)
	if err != nil {
		return stage.Stage{}, err
	}
	return stage.Current(ev, s.now()), nil
}

// Advance runs one named status transition on the event.
func (s *Service) Advance(ctx context.Context, actorID, id int64, transition string) (*event.Event, error) {
	ev, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := stage.Apply(ctx, ev.Status, transition)
	if err != nil {
		return nil, err
	}
	return s.persistStatus(ctx, actorID, ev, next)
}

// AdvanceTo walks the event forward through as many transitions as needed
// to land on the target status. Backward targets fail.
func (s *Service) AdvanceTo(ctx context.Context, actorID, id int64, target event.Status) (*event.Event, error) {
	ev, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := stage.AdvanceTo(ctx, ev.Status, target)
	if err != nil {
		return nil, err
	}
	if next == ev.Status {
		return ev, nil
	}
	return s.persistStatus(ctx, actorID, ev, next)
}

func (s *Service) persistStatus(ctx context.Context, actorID int64, ev *event.Event, next event.Status) (*event.Event, error) {
	ev.Status = next
	if err := s.store.Save(ctx, ev); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save event")
	}
	s.cache.Invalidate(ctx, cacheKey(ev.ID))
	s.trail.Emit(ctx, audit.Event{
		ActorID: actorID,
		EventID: &ev.ID,
		Action:  audit.ActionEventUpdated,
		Subject: ev.Title,
		Detail:  "status " + string(next),
	})
	return ev, nil
}

// Delete honors a delete request according to the event's resolved stage:
// drafts are removed outright, anything that reached inscripcion is archived
// so its registration history survives.
func (s *Service) Delete(ctx context.Context, actorID, id int64) (archived bool, err error) {
	ev, err := s.find(ctx, id)
	if err != nil {
		return false, err
	}
	resolved := stage.Current(ev, s.now()).Status()

	defer s.cache.Invalidate(ctx, cacheKey(id))

	if stage.DispositionFor(resolved) == stage.Archive {
		ev.Status = event.StatusArchived
		if err := s.store.Save(ctx, ev); err != nil {
			return false, dErrors.Wrap(err, dErrors.CodeInternal, "archive event")
		}
		s.trail.Emit(ctx, audit.Event{
			ActorID: actorID,
			EventID: &ev.ID,
			Action:  audit.ActionEventArchived,
			Subject: ev.Title,
		})
		return true, nil
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "delete event")
	}
	s.trail.Emit(ctx, audit.Event{
		ActorID: actorID,
		EventID: &id,
		Action:  audit.ActionEventDeleted,
		Subject: ev.Title,
	})
	return false, nil
}

func (s *Service) find(ctx context.Context, id int64) (*event.Event, error) {
	ev, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load event")
	}
	if ev.Deleted {
		return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
	}
	return ev, nil
}

func formOf(tl event.Timeline) timeline.Form {
	var f timeline.Form
	set := func(dst *timeline.Field, src *time.Time) {
		if src != nil {
			*dst = timeline.SetManual(*src)
		}
	}
	set(&f.RegistrationStart, tl.RegistrationStart)
	set(&f.RegistrationEnd, tl.RegistrationEnd)
	set(&f.AuditStart, tl.AuditStart)
	set(&f.AuditEnd, tl.AuditEnd)
	set(&f.ChampionshipStart, tl.ChampionshipStart)
	set(&f.ChampionshipEnd, tl.ChampionshipEnd)
	return f
}

func timelineOf(f timeline.Form) event.Timeline {
	var tl event.Timeline
	get := func(src timeline.Field) *time.Time {
		if !src.IsSet() {
			return nil
		}
		v := src.Value
		return &v
	}
	tl.RegistrationStart = get(f.RegistrationStart)
	tl.RegistrationEnd = get(f.RegistrationEnd)
	tl.AuditStart = get(f.AuditStart)
	tl.AuditEnd = get(f.AuditEnd)
	tl.ChampionshipStart = get(f.ChampionshipStart)
	tl.ChampionshipEnd = get(f.ChampionshipEnd)
	return tl
}
