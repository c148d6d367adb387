// Package tag implements the add_tag and remove_tag workflow steps.
package tag

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/glowdesk/glowdesk/pkg/eventbus"
	"github.com/glowdesk/glowdesk/pkg/events"
	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/persistence"
	"github.com/glowdesk/glowdesk/pkg/protocol"
)

const (
	opAdd    = "add"
	opRemove = "remove"
)

type Factory struct {
	op        string
	clients   persistence.ClientRepository
	publisher eventbus.EventPublisher
}

// NewAddFactory creates the add_tag factory. Adding a tag publishes a
// tag.added event so tag-triggered workflows fire.
func NewAddFactory(clients persistence.ClientRepository, publisher eventbus.EventPublisher) *Factory {
	return &Factory{op: opAdd, clients: clients, publisher: publisher}
}

func NewRemoveFactory(clients persistence.ClientRepository) *Factory {
	return &Factory{op: opRemove, clients: clients}
}

func (f *Factory) ID() string {
	if f.op == opAdd {
		return "add_tag"
	}

	return "remove_tag"
}

func (f *Factory) Create(config map[string]any) (protocol.StepAction, error) {
	tag, _ := config["tag"].(string)
	if tag == "" {
		return nil, errors.New("tag step requires a non-empty tag")
	}

	return &Action{op: f.op, tag: tag, clients: f.clients, publisher: f.publisher}, nil
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tag": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Tag to add to or remove from the client.",
			},
		},
		"required": []string{"tag"},
	}
}

type Action struct {
	op        string
	tag       string
	clients   persistence.ClientRepository
	publisher eventbus.EventPublisher
}

func (a *Action) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("step_type", a.op+"_tag", "tag", a.tag)

	if executionCtx.Client == nil {
		return nil, errors.New("no client attached to execution")
	}

	client, err := a.clients.GetByID(ctx, executionCtx.OrganizationID, executionCtx.Client.ID)
	if err != nil {
		return nil, err
	}

	changed := false

	switch a.op {
	case opAdd:
		if !client.HasTag(a.tag) {
			client.Tags = append(client.Tags, a.tag)
			changed = true
		}
	case opRemove:
		tags := client.Tags[:0]

		for _, t := range client.Tags {
			if t != a.tag {
				tags = append(tags, t)
			} else {
				changed = true
			}
		}

		client.Tags = tags
	}

	if changed {
		client.UpdatedAt = time.Now().UTC()

		err = a.clients.Save(ctx, client)
		if err != nil {
			return nil, err
		}

		if a.op == opAdd && a.publisher != nil {
			event := events.DomainEvent{
				BaseEvent: events.BaseEvent{
					ID:             uuid.New().String(),
					Type:           events.TagAddedEvent,
					Timestamp:      time.Now().UTC(),
					OrganizationID: client.OrganizationID,
				},
				ClientID: client.ID,
				Data:     map[string]any{"tag": a.tag},
			}

			err = a.publisher.Publish(ctx, client.ID, event)
			if err != nil {
				logger.Error("Failed to publish tag.added event", "error", err)
			}
		}
	}

	logger.Info("Tag step executed", "changed", changed)

	return map[string]any{"tag": a.tag, "operation": a.op, "changed": changed}, nil
}
