package audit

import (
	"context"
	"log/slog"
)

// Worker drains the inbox into the store. The trail is best effort: a
// failed append is logged and the event dropped, never surfaced to the
// operation that emitted it and never fatal to the process.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run consumes events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-w.inbox:
			if err := w.store.Append(ctx, ev); err != nil {
				w.logger.WarnContext(ctx, "audit append failed, event dropped",
					"action", ev.Action, "actor_id", ev.ActorID, "error", err)
			}
		}
	}
}
