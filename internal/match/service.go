package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fedevents/internal/audit"
	"fedevents/internal/event"
	"fedevents/internal/event/stage"
	"fedevents/internal/notification"
	"fedevents/internal/platform/metrics"
	dErrors "fedevents/pkg/domain-errors"
	"fedevents/pkg/platform/sentinel"
)

// DefaultCriterion is recorded when a winner is chosen without naming how.
const DefaultCriterion = "puntos"

// Store persists the schedule.
type Store interface {
	Save(ctx context.Context, m *Match) error
	FindByID(ctx context.Context, id int64) (*Match, error)
	ListByEvent(ctx context.Context, eventID int64) ([]*Match, error)
}

// EventStore is the read side of the event store the recorder needs.
type EventStore interface {
	FindByID(ctx context.Context, id int64) (*event.Event, error)
}

// NewsPublisher turns a finished match into a published news item.
type NewsPublisher interface {
	Publish(ctx context.Context, ev *event.Event, m *Match) error
}

// Trail receives audit events; it never fails the calling operation.
type Trail interface {
	Emit(ctx context.Context, ev audit.Event)
}

// Notifier appends ledger notifications derived from results.
type Notifier interface {
	Emit(ctx context.Context, n notification.Notification) error
}

// Service records match results, advances the bracket and drives the
// one-time news publication.
type Service struct {
	store    Store
	events   EventStore
	news     NewsPublisher
	metrics  *metrics.Metrics
	trail    Trail
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(store Store, events EventStore, news NewsPublisher,
	m *metrics.Metrics, trail Trail, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		events:   events,
		news:     news,
		metrics:  m,
		trail:    trail,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Add places one fixture on the event's schedule. The bracket generator and
// tests use it; results only enter through RegisterResult.
func (s *Service) Add(ctx context.Context, m *Match) (*Match, error) {
	if _, err := s.loadEvent(ctx, m.EventID); err != nil {
		return nil, err
	}
	if m.Status == "" {
		m.Status = StatusScheduled
	}
	if err := s.store.Save(ctx, m); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save match")
	}
	return m, nil
}

// Schedule returns the event's fixtures ordered by scheduled time.
func (s *Service) Schedule(ctx context.Context, eventID int64) ([]*Match, error) {
	if _, err := s.loadEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListByEvent(ctx, eventID)
}

// Progress returns the points table and the bracket progress summary.
func (s *Service) Progress(ctx context.Context, eventID int64) ([]StandingsRow, Meta, error) {
	if _, err := s.loadEvent(ctx, eventID); err != nil {
		return nil, Meta{}, err
	}
	matches, err := s.store.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, Meta{}, dErrors.Wrap(err, dErrors.CodeInternal, "list matches")
	}
	return Standings(matches), ScheduleMeta(matches), nil
}

// CanRegisterResult reports whether the institution may enter a result for
// the match right now. It never returns an error for a gate failure, only
// for load problems.
func (s *Service) CanRegisterResult(ctx context.Context, eventID, matchID, institutionID int64) (bool, error) {
	ev, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return false, err
	}
	m, err := s.loadMatch(ctx, eventID, matchID)
	if err != nil {
		return false, err
	}
	return s.resultGate(ev, m, institutionID, false) == nil, nil
}

// ResultParams is one result entry. A nil winner records a draw and is only
// accepted with equal scores.
type ResultParams struct {
	InstitutionID int64
	LocalScore    int
	VisitorScore  int
	WinnerTeamID  *int64
	Criterion     string
	PublishNews   bool
}

// RegisterResult validates and persists a result, finalizes the match,
// resolves dependent bracket slots and, when asked, publishes the result as
// news exactly once over the match's lifetime.
func (s *Service) RegisterResult(ctx context.Context, actorID, eventID, matchID int64, p ResultParams) (*Match, error) {
	ev, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	m, err := s.loadMatch(ctx, eventID, matchID)
	if err != nil {
		return nil, err
	}
	if err := s.resultGate(ev, m, p.InstitutionID, true); err != nil {
		return nil, err
	}
	if p.LocalScore < 0 || p.VisitorScore < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "scores must be non-negative")
	}
	if p.WinnerTeamID != nil {
		if m.SlotOf(*p.WinnerTeamID) == nil {
			return nil, dErrors.New(dErrors.CodeValidation, "the winner must be one of the participating teams")
		}
	} else if p.LocalScore != p.VisitorScore {
		return nil, dErrors.New(dErrors.CodeValidation, "a winner is required unless the match is drawn")
	}

	criterion := p.Criterion
	if criterion == "" && p.WinnerTeamID != nil {
		criterion = DefaultCriterion
	}

	local, visitor := p.LocalScore, p.VisitorScore
	published := m.Result.NewsPublished
	m.Result = Result{
		LocalScore:    &local,
		VisitorScore:  &visitor,
		WinnerTeamID:  p.WinnerTeamID,
		Criterion:     criterion,
		NewsPublished: published,
	}
	m.Status = StatusFinished

	if err := s.store.Save(ctx, m); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save match")
	}
	s.metrics.ResultsRegistered.Inc()

	if p.WinnerTeamID != nil {
		if err := s.propagate(ctx, m, *p.WinnerTeamID); err != nil {
			s.logger.WarnContext(ctx, "bracket propagation failed", "match_id", m.ID, "error", err)
		}
	}

	s.trail.Emit(ctx, audit.Event{
		ActorID: actorID,
		EventID: &ev.ID,
		Action:  audit.ActionResultRegistered,
		Subject: ev.Title,
		Detail:  fmt.Sprintf("%s %d - %d %s", m.Local.Name, p.LocalScore, p.VisitorScore, m.Visitor.Name),
	})

	if p.PublishNews && !m.Result.NewsPublished {
		if err := s.publish(ctx, actorID, ev, m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// PublishNews publishes the match result on demand. A match that already
// triggered a publication is returned unchanged.
func (s *Service) PublishNews(ctx context.Context, actorID, eventID, matchID int64) (*Match, error) {
	ev, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	m, err := s.loadMatch(ctx, eventID, matchID)
	if err != nil {
		return nil, err
	}
	if m.Result.NewsPublished {
		return m, nil
	}
	if !m.Result.HasScores() {
		return nil, dErrors.New(dErrors.CodeValidation, "the match has no recorded result to publish")
	}
	if err := s.publish(ctx, actorID, ev, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Outcomes labels the match for both teams.
func (s *Service) Outcomes(ctx context.Context, eventID, matchID int64) (map[int64]Outcome, error) {
	m, err := s.loadMatch(ctx, eventID, matchID)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]Outcome, 2)
	if m.Local.Resolved() {
		out[*m.Local.TeamID] = m.OutcomeFor(*m.Local.TeamID)
	}
	if m.Visitor.Resolved() {
		out[*m.Visitor.TeamID] = m.OutcomeFor(*m.Visitor.TeamID)
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, actorID int64, ev *event.Event, m *Match) error {
	if err := s.news.Publish(ctx, ev, m); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "publish match news")
	}
	m.Result.NewsPublished = true
	if err := s.store.Save(ctx, m); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "save match")
	}
	s.metrics.NewsPublished.Inc()

	s.trail.Emit(ctx, audit.Event{
		ActorID: actorID,
		EventID: &ev.ID,
		Action:  audit.ActionNewsPublished,
		Subject: ev.Title,
	})
	if ev.AdminID > 0 {
		if err := s.notifier.Emit(ctx, notification.Notification{
			UserID:  ev.AdminID,
			EventID: &ev.ID,
			Kind:    notification.KindResultPublished,
			Level:   notification.LevelSuccess,
			Title:   "Resultado publicado en " + ev.Title,
			Message: fmt.Sprintf("%s %d - %d %s", m.Local.Name, *m.Result.LocalScore, *m.Result.VisitorScore, m.Visitor.Name),
		}); err != nil {
			s.logger.WarnContext(ctx, "result notification failed", "match_id", m.ID, "error", err)
		}
	}
	return nil
}

// propagate fills dependent bracket slots with the winner, and the loser
// where a third-place fixture asks for it.
func (s *Service) propagate(ctx context.Context, m *Match, winnerTeamID int64) error {
	winner := m.SlotOf(winnerTeamID)
	loser := m.loserOf(winnerTeamID)

	siblings, err := s.store.ListByEvent(ctx, m.EventID)
	if err != nil {
		return err
	}
	for _, next := range siblings {
		changed := false
		for _, slot := range []*TeamSlot{&next.Local, &next.Visitor} {
			if slot.Resolved() || slot.SourceMatchID == nil || *slot.SourceMatchID != m.ID {
				continue
			}
			var source *TeamSlot
			switch slot.SourceRole {
			case RoleWinner:
				source = winner
			case RoleLoser:
				source = loser
			}
			if source == nil {
				continue
			}
			slot.TeamID = source.TeamID
			slot.InstitutionID = source.InstitutionID
			slot.Name = source.Name
			changed = true
		}
		if changed {
			if err := s.store.Save(ctx, next); err != nil {
				return err
			}
		}
	}
	return nil
}

// resultGate checks who may touch a result and when. allowFinished lets a
// recorded result be corrected while the match is finalizado; completado
// always blocks.
func (s *Service) resultGate(ev *event.Event, m *Match, institutionID int64, allowFinished bool) error {
	if m.Status == StatusCompleted || (!allowFinished && m.Status.IsTerminal()) {
		return dErrors.New(dErrors.CodeConflict, "the match result is already final")
	}
	if !stage.CanRegisterResult(stage.Current(ev, s.now())) {
		return dErrors.New(dErrors.CodeForbidden, "results can only be registered during the championship")
	}
	if !m.Involves(institutionID) {
		return dErrors.New(dErrors.CodeForbidden, "the institution does not take part in this match")
	}
	if m.ScheduledAt != nil && m.ScheduledAt.After(s.now()) {
		return dErrors.New(dErrors.CodeForbidden, "the match has not been played yet")
	}
	return nil
}

func (s *Service) loadEvent(ctx context.Context, eventID int64) (*event.Event, error) {
	ev, err := s.events.FindByID(ctx, eventID)
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

func (s *Service) loadMatch(ctx context.Context, eventID, matchID int64) (*Match, error) {
	m, err := s.store.FindByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "match not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load match")
	}
	if m.EventID != eventID {
		return nil, dErrors.New(dErrors.CodeNotFound, "match not found")
	}
	return m, nil
}
