package httptransport

import (
	"context"

	"fedevents/internal/event"
	"fedevents/internal/event/stage"
	"fedevents/internal/match"
	"fedevents/internal/news"
	"fedevents/internal/notification"
	"fedevents/internal/registration"
)

// RegistrationService is the slice of the registration ledger the API uses.
type RegistrationService interface {
	Get(ctx context.Context, eventID, institutionID int64) (*registration.Registration, stage.Stage, error)
	SetEnrollment(ctx context.Context, actorID, eventID, institutionID int64, studentIDs []int64) (*registration.Registration, error)
	SubmitDocumentsBatch(ctx context.Context, actorID, eventID, institutionID int64, items []registration.BatchItem) (registration.BatchResult, error)
	Completeness(ctx context.Context, eventID, institutionID int64) ([]registration.StudentCompleteness, error)
	ListDocumentTypes(ctx context.Context) ([]registration.DocumentType, error)
	ReviewDocument(ctx context.Context, actorID, eventID, institutionID, documentID int64, state registration.DocumentState, note string) (*registration.Document, error)
	Decide(ctx context.Context, actorID, eventID, institutionID int64, verdict event.AuditState, reason string) error
	SetLock(ctx context.Context, actorID, eventID, institutionID int64, locked bool) error
}

// MatchService is the schedule and result surface.
type MatchService interface {
	Schedule(ctx context.Context, eventID int64) ([]*match.Match, error)
	Add(ctx context.Context, m *match.Match) (*match.Match, error)
	Progress(ctx context.Context, eventID int64) ([]match.StandingsRow, match.Meta, error)
	CanRegisterResult(ctx context.Context, eventID, matchID, institutionID int64) (bool, error)
	RegisterResult(ctx context.Context, actorID, eventID, matchID int64, p match.ResultParams) (*match.Match, error)
	PublishNews(ctx context.Context, actorID, eventID, matchID int64) (*match.Match, error)
	Outcomes(ctx context.Context, eventID, matchID int64) (map[int64]match.Outcome, error)
}

// NotificationService is the per-user alert ledger.
type NotificationService interface {
	List(ctx context.Context, q notification.Query) ([]notification.Notification, error)
	Summary(ctx context.Context, userID int64, limit int) (notification.Summary, error)
	MarkRead(ctx context.Context, id, userID int64, read bool) error
	MarkAll(ctx context.Context, userID int64, read bool) (int, error)
	Remove(ctx context.Context, id, userID int64) error
	Clear(ctx context.Context, userID int64) (int, error)
}

// StudentDirectory is the athlete roster surface.
type StudentDirectory interface {
	Create(ctx context.Context, p registration.StudentParams) (*registration.Student, error)
	Update(ctx context.Context, id int64, p registration.StudentParams) (*registration.Student, error)
	Get(ctx context.Context, id int64) (*registration.Student, error)
	List(ctx context.Context, institutionID int64, includeDeleted bool) ([]*registration.Student, error)
	SoftDelete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
	ForceDelete(ctx context.Context, id int64) error
}

// NewsService exposes published items.
type NewsService interface {
	ListByEvent(ctx context.Context, eventID int64) ([]news.Item, error)
}
