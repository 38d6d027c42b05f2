package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the append-only sink for audit events.
type Store interface {
	Append(ctx context.Context, ev Event) error
	ListByEvent(ctx context.Context, eventID int64) ([]Event, error)
}

// Publisher hands events to the worker inbox without blocking domain
// logic. A full inbox drops the event rather than stalling the caller.
type Publisher struct {
	inbox chan<- Event
}

func NewPublisher(inbox chan<- Event) *Publisher {
	return &Publisher{inbox: inbox}
}

func (p *Publisher) Emit(_ context.Context, ev Event) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	select {
	case p.inbox <- ev:
	default:
	}
}
