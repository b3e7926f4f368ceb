package audit

import (
	"context"
	"log/slog"
)

// Recorder is the Sink handed to the auth container. Record never blocks;
// if the inbox is full the event is dropped with a warning rather than
// stalling a login.
type Recorder struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewRecorder(buffer int, logger *slog.Logger) *Recorder {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{inbox: make(chan Event, buffer), logger: logger}
}

func (r *Recorder) Record(event Event) {
	select {
	case r.inbox <- event:
	default:
		r.logger.Warn("audit inbox full, dropping event", "action", string(event.Action))
	}
}

// Inbox exposes the channel for the worker.
func (r *Recorder) Inbox() <-chan Event { return r.inbox }

// Worker consumes audit events from a channel and persists them. It keeps
// background processing testable without wiring queue implementations.
type Worker struct {
	store Store
	inbox <-chan Event
}

func NewWorker(store Store, inbox <-chan Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}
