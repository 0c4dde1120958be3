package main

import (
	"context"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/agarg/collabot/pkg/engine"
	"github.com/agarg/collabot/pkg/eventbus"
	"github.com/agarg/collabot/pkg/events"
	"github.com/agarg/collabot/pkg/otelhelper"
	"github.com/agarg/collabot/pkg/reminder"
)

// Worker consumes ingress events from the bus, fans them out through the
// matcher and hands each match to the execution engine.
type Worker struct {
	id      string
	logger  *slog.Logger
	matcher *engine.Matcher
	engine  *engine.Engine
	scanner *reminder.Scanner
	bus     eventbus.EventBus
	tracer  trace.Tracer
}

func NewWorker(
	id string,
	logger *slog.Logger,
	matcher *engine.Matcher,
	executionEngine *engine.Engine,
	scanner *reminder.Scanner,
	bus eventbus.EventBus,
) *Worker {
	return &Worker{
		id:      id,
		logger:  logger,
		matcher: matcher,
		engine:  executionEngine,
		scanner: scanner,
		bus:     bus,
	}
}

// Start runs until ctx is cancelled or a termination signal arrives.
func (w *Worker) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracer, err := otelhelper.NewTracer(ctx, "collabot-worker")
	if err != nil {
		w.logger.WarnContext(ctx, "Failed to initialize tracer, continuing without", "error", err)
	} else {
		w.tracer = tracer
	}

	if err := w.bus.Handle(events.EventReceivedEvent, w.handleEventReceived); err != nil {
		return err
	}

	if err := w.bus.Subscribe(ctx); err != nil {
		return err
	}

	if err := w.scanner.Start(ctx); err != nil {
		return err
	}

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		w.engine.Run(ctx)
	}()

	w.logger.InfoContext(ctx, "Worker started")

	<-ctx.Done()

	w.logger.Info("Shutting down worker")
	w.scanner.Stop()
	wg.Wait()

	return nil
}

func (w *Worker) handleEventReceived(ctx context.Context, event any) error {
	received, ok := event.(*events.EventReceived)
	if !ok {
		w.logger.Error("Invalid event type for EventReceived")

		return nil
	}

	if w.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, w.tracer, "worker.handle_event",
			attribute.String(otelhelper.EventIDKey, received.Event.ID),
			attribute.String(otelhelper.TriggerTypeKey, string(received.Event.Type)),
			attribute.String(otelhelper.WorkerIDKey, w.id))
		defer span.End()
	}

	matched, err := w.matcher.Match(ctx, &received.Event)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to match workflows",
			"event_id", received.Event.ID, "error", err)

		return err
	}

	for _, workflow := range matched {
		executionID, err := w.engine.Start(ctx, workflow, &received.Event)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to start execution",
				"workflow_id", workflow.ID, "event_id", received.Event.ID, "error", err)

			continue
		}

		w.logger.InfoContext(ctx, "Started execution for matched workflow",
			"workflow_id", workflow.ID, "execution_id", executionID)
	}

	return nil
}
