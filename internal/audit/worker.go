package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from the publisher and persists them. A store
// failure is logged and the event dropped; audit persistence never crashes
// the service.
type Worker struct {
	logger *slog.Logger
	store  Store
	inbox  <-chan Event
}

func NewWorker(logger *slog.Logger, store Store, inbox <-chan Event) *Worker {
	return &Worker{logger: logger, store: store, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.Error("failed to persist audit event",
					"action", string(event.Action),
					"subject", event.Subject,
					"error", err,
				)
			}
		}
	}
}
