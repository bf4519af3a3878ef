package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"rollcall/pkg/requestcontext"
)

var droppedEvents = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rollcall_audit_events_dropped_total",
	Help: "Audit events dropped because the publisher buffer was full",
})

// Publisher accepts events from domain logic and hands them to the worker
// through a buffered channel. Emit never blocks: when the buffer is full the
// event is dropped and counted, because audit must not take down the
// operation it describes.
type Publisher struct {
	logger *slog.Logger
	inbox  chan Event
}

func NewPublisher(logger *slog.Logger, buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		logger: logger,
		inbox:  make(chan Event, buffer),
	}
}

// Emit records an event. Timestamp and request ID are filled from context
// when unset.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	select {
	case p.inbox <- event:
	default:
		droppedEvents.Inc()
		p.logger.Warn("audit event dropped, buffer full",
			"action", string(event.Action),
			"subject", event.Subject,
		)
	}
}

// Inbox exposes the channel the worker drains.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}

// Drain gives in-flight events a bounded window to flush during shutdown.
func (p *Publisher) Drain(timeout time.Duration) {
	deadline := time.After(timeout)
	for {
		if len(p.inbox) == 0 {
			return
		}
		select {
		case <-deadline:
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}
