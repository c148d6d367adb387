// Package main provides the Glowdesk dispatcher service. It consumes domain
// events to enroll clients into workflows and runs due scheduled actions.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/glowdesk/glowdesk/pkg/cmd"
	"github.com/glowdesk/glowdesk/pkg/dispatcher"
	"github.com/glowdesk/glowdesk/pkg/events"
	"github.com/glowdesk/glowdesk/pkg/log"
	"github.com/glowdesk/glowdesk/pkg/notify"
	"github.com/glowdesk/glowdesk/pkg/otelhelper"
	"github.com/glowdesk/glowdesk/pkg/publisher"
	"github.com/glowdesk/glowdesk/pkg/services"
	"github.com/glowdesk/glowdesk/pkg/workflow"
)

func main() {
	command := &cli.Command{
		Name:                  "glowdesk-dispatcher",
		Usage:                 "Start the Glowdesk dispatcher service",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dispatcher-id",
				Aliases: []string{"id"},
				Usage:   "Custom dispatcher ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("DISPATCHER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis address for the action lease lock (in-process lock when empty)",
				Value:   "",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password for the action lease lock",
				Value:   "",
				Sources: cli.EnvVars("REDIS_PASSWORD"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: run,
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	dispatcherID := command.String("dispatcher-id")
	if dispatcherID == "" {
		dispatcherID = fmt.Sprintf("dispatcher-%s", uuid.New().String()[:8])
	}

	logger := log.WithModule("dispatcher").With("dispatcher_id", dispatcherID)

	logger.InfoContext(ctx, "Initializing Glowdesk Dispatcher")

	_, err := otelhelper.NewTracer(ctx, "glowdesk-dispatcher")
	if err != nil {
		logger.WarnContext(ctx, "Tracing disabled", "error", err)
	}

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus := cmd.NewEventBus(command.String("event-bus"), "glowdesk-dispatcher", logger)
	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	sender := notify.NewMemorySender(logger)
	registry := cmd.NewRegistry(logger, sender, persistence, eventBus)
	engine := workflow.NewEngine(persistence, registry, eventBus, logger)

	platforms := publisher.NewMultiPlatformPublisher(logger,
		publisher.NewSimulatedPlatform("instagram", logger),
		publisher.NewSimulatedPlatform("facebook", logger),
		publisher.NewSimulatedPlatform("tiktok", logger),
	)
	social := services.NewSocial(persistence, platforms, eventBus)
	messaging := services.NewMessaging(persistence, eventBus)

	locker, err := newLocker(command.String("redis-url"), command.String("redis-password"), logger)
	if err != nil {
		return err
	}

	d := dispatcher.NewDispatcher(persistence, locker, logger)
	dispatcher.RegisterDefaultHandlers(d, engine, social, messaging, persistence, sender, logger)

	for _, eventType := range []events.EventType{
		events.ClientCreatedEvent,
		events.AppointmentBookedEvent,
		events.AppointmentCompletedEvent,
		events.MessageReceivedEvent,
		events.TagAddedEvent,
	} {
		if err := eventBus.Handle(eventType, engine.HandleDomainEvent); err != nil {
			return fmt.Errorf("failed to register event handler: %w", err)
		}
	}

	if err := eventBus.Subscribe(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}

	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}

	logger.InfoContext(ctx, "Dispatcher running")

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-signalCtx.Done()

	logger.Info("Shutting down")

	return d.Stop(ctx)
}

func newLocker(redisURL, redisPassword string, logger *slog.Logger) (dispatcher.Locker, error) {
	if redisURL == "" {
		logger.Info("Using in-process action lock")

		return dispatcher.NewLocalLock(), nil
	}

	lock, err := dispatcher.NewRedisLock(redisURL, redisPassword, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Using Redis action lock", "addr", redisURL)

	return lock, nil
}
