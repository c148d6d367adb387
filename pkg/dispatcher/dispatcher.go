// Package dispatcher polls for due scheduled actions and runs them. It is
// the single driver of the action state machine: every action it picks up
// moves through attempting into completed, retrying or failed.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/otelhelper"
	"github.com/glowdesk/glowdesk/pkg/persistence"
)

const defaultPollInterval = 15 * time.Second

// Handler runs one kind of scheduled action. A nil error completes the
// action; an error schedules a retry until the attempt budget runs out.
type Handler func(ctx context.Context, action *models.ScheduledAction) error

type Dispatcher struct {
	persistence persistence.Persistence
	locker      Locker
	logger      *slog.Logger
	tracer      trace.Tracer
	interval    time.Duration
	handlers    map[string]Handler

	mu      sync.Mutex
	started bool
	ticker  *time.Ticker
	done    chan bool
}

func NewDispatcher(p persistence.Persistence, locker Locker, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		persistence: p,
		locker:      locker,
		logger:      logger.With("module", "dispatcher"),
		tracer:      otel.Tracer("glowdesk.dispatcher"),
		interval:    defaultPollInterval,
		handlers:    make(map[string]Handler),
	}
}

// Register binds a handler to an action name.
func (d *Dispatcher) Register(action string, handler Handler) {
	d.handlers[action] = handler
}

// Start begins polling for due actions.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return nil
	}

	d.logger.Info("Starting scheduled action dispatcher", "interval", d.interval)

	d.ticker = time.NewTicker(d.interval)
	d.done = make(chan bool)
	d.started = true

	go d.poll(ctx)

	return nil
}

// Stop shuts the poller down.
func (d *Dispatcher) Stop(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return nil
	}

	d.logger.Info("Stopping dispatcher")

	if d.ticker != nil {
		d.ticker.Stop()
	}

	select {
	case d.done <- true:
	default:
	}

	d.started = false

	return nil
}

func (d *Dispatcher) poll(ctx context.Context) {
	for {
		select {
		case <-d.done:
			return
		case <-ctx.Done():
			return
		case <-d.ticker.C:
			d.ProcessDueActions(ctx)
		}
	}
}

// ProcessDueActions runs every action whose next attempt time has passed.
// Each action is leased first so concurrent dispatchers never double-run one.
func (d *Dispatcher) ProcessDueActions(ctx context.Context) {
	now := time.Now().UTC()

	d.reclaimStaleAttempts(ctx, now)

	due, err := d.persistence.ScheduledActions().ListDue(ctx, now)
	if err != nil {
		d.logger.Error("Failed to list due actions", "error", err)

		return
	}

	if len(due) > 0 {
		d.logger.Info("Processing due actions", "count", len(due))
	}

	for _, action := range due {
		if !d.locker.Acquire(ctx, action.ID) {
			continue
		}

		d.runAction(ctx, action)
		d.locker.Release(ctx, action.ID)
	}
}

// reclaimStaleAttempts returns actions abandoned mid-attempt to the retry
// path. An attempting action untouched for longer than the lease TTL cannot
// still be held by a live dispatcher; it is failed through the normal
// attempt budget, so it retries with backoff or lands in failed.
func (d *Dispatcher) reclaimStaleAttempts(ctx context.Context, now time.Time) {
	stale, err := d.persistence.ScheduledActions().ListStaleAttempts(ctx, now.Add(-leaseTTL))
	if err != nil {
		d.logger.Error("Failed to list stale attempts", "error", err)

		return
	}

	for _, action := range stale {
		action.Fail(now, errors.New("attempt abandoned before completion"))

		err = d.persistence.ScheduledActions().Save(ctx, action)
		if err != nil {
			d.logger.Error("Failed to reclaim stale action", "action_id", action.ID, "error", err)

			continue
		}

		d.logger.Warn("Reclaimed stale action", "action_id", action.ID, "action", action.Action, "status", action.Status)
	}
}

func (d *Dispatcher) runAction(ctx context.Context, action *models.ScheduledAction) {
	logger := d.logger.With("action_id", action.ID, "action", action.Action, "attempt", action.Attempts+1)

	spanCtx, span := otelhelper.StartSpan(ctx, d.tracer, "dispatcher.run_action",
		attribute.String(otelhelper.ActionIDKey, action.ID),
		attribute.String(otelhelper.ActionNameKey, action.Action),
		attribute.String(otelhelper.OrganizationIDKey, action.OrganizationID),
	)
	defer span.End()

	action.BeginAttempt(time.Now().UTC())

	err := d.persistence.ScheduledActions().Save(spanCtx, action)
	if err != nil {
		logger.Error("Failed to mark action attempting", "error", err)
		otelhelper.SetError(span, err)

		return
	}

	handler, ok := d.handlers[action.Action]
	if !ok {
		handlerErr := fmt.Errorf("no handler registered for action '%s'", action.Action)
		otelhelper.SetError(span, handlerErr)
		d.finishAction(spanCtx, action, handlerErr)

		return
	}

	handlerErr := handler(spanCtx, action)
	if handlerErr != nil {
		otelhelper.SetError(span, handlerErr)
	}

	d.finishAction(spanCtx, action, handlerErr)
}

func (d *Dispatcher) finishAction(ctx context.Context, action *models.ScheduledAction, handlerErr error) {
	logger := d.logger.With("action_id", action.ID, "action", action.Action)
	now := time.Now().UTC()

	switch {
	case handlerErr != nil:
		action.Fail(now, handlerErr)

		if action.Status == models.ActionStatusFailed {
			logger.Error("Action permanently failed", "attempts", action.Attempts, "error", handlerErr)
		} else {
			logger.Warn("Action attempt failed, retrying", "next_attempt_at", action.NextAttemptAt, "error", handlerErr)
		}
	case action.Status == models.ActionStatusPending:
		// The handler rearmed a recurring action for its next run.
		logger.Info("Action rearmed", "next_attempt_at", action.NextAttemptAt)
	default:
		action.Complete(now)
		logger.Info("Action completed")
	}

	err := d.persistence.ScheduledActions().Save(ctx, action)
	if err != nil {
		logger.Error("Failed to save action outcome", "error", err)
	}
}
