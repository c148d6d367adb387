// Package sendsms implements the send_sms workflow step.
package sendsms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/notify"
	"github.com/glowdesk/glowdesk/pkg/protocol"
	"github.com/glowdesk/glowdesk/pkg/template"
)

type Factory struct {
	sender notify.SMSSender
}

func NewFactory(sender notify.SMSSender) *Factory {
	return &Factory{sender: sender}
}

func (*Factory) ID() string {
	return "send_sms"
}

func (f *Factory) Create(config map[string]any) (protocol.StepAction, error) {
	message, _ := config["message"].(string)

	return &Action{message: message, sender: f.sender}, nil
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "SMS body. Supports templating, e.g. {{.client.full_name}}.",
			},
		},
		"required": []string{"message"},
	}
}

type Action struct {
	message string
	sender  notify.SMSSender
}

func (a *Action) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("step_type", "send_sms")

	if executionCtx.Client == nil {
		return nil, errors.New("no client attached to execution")
	}

	if len(executionCtx.Client.Phones) == 0 {
		return nil, fmt.Errorf("client %s has no phone number", executionCtx.Client.ID)
	}

	body, err := template.RenderWithContext(a.message, &executionCtx)
	if err != nil {
		return nil, err
	}

	to := executionCtx.Client.Phones[0]

	messageID, err := a.sender.SendSMS(ctx, notify.Message{To: to, Body: body})
	if err != nil {
		return nil, fmt.Errorf("failed to send SMS: %w", err)
	}

	logger.Info("SMS sent", "to", to, "message_id", messageID)

	return map[string]any{"to": to, "body": body, "message_id": messageID}, nil
}
