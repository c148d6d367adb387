// Package sendemail implements the send_email workflow step.
package sendemail

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
	sender notify.EmailSender
}

func NewFactory(sender notify.EmailSender) *Factory {
	return &Factory{sender: sender}
}

func (*Factory) ID() string {
	return "send_email"
}

func (f *Factory) Create(config map[string]any) (protocol.StepAction, error) {
	subject, _ := config["subject"].(string)
	body, _ := config["body"].(string)

	return &Action{subject: subject, body: body, sender: f.sender}, nil
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subject": map[string]any{
				"type":        "string",
				"description": "Email subject line. Supports templating.",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Email body. Supports templating, e.g. {{.client.full_name}}.",
			},
		},
		"required": []string{"subject", "body"},
	}
}

type Action struct {
	subject string
	body    string
	sender  notify.EmailSender
}

func (a *Action) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("step_type", "send_email")

	if executionCtx.Client == nil {
		return nil, errors.New("no client attached to execution")
	}

	if executionCtx.Client.Email == "" {
		return nil, fmt.Errorf("client %s has no email address", executionCtx.Client.ID)
	}

	subject, err := template.RenderWithContext(a.subject, &executionCtx)
	if err != nil {
		return nil, err
	}

	body, err := template.RenderWithContext(a.body, &executionCtx)
	if err != nil {
		return nil, err
	}

	msg := notify.Message{To: executionCtx.Client.Email, Subject: subject, Body: body}

	messageID, err := a.sender.SendEmail(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	logger.Info("Email sent", "to", msg.To, "subject", subject, "message_id", messageID)

	return map[string]any{"to": msg.To, "subject": subject, "body": body, "message_id": messageID}, nil
}
