package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/notify"
	"github.com/glowdesk/glowdesk/pkg/persistence"
	"github.com/glowdesk/glowdesk/pkg/services"
	"github.com/glowdesk/glowdesk/pkg/template"
	"github.com/glowdesk/glowdesk/pkg/workflow"
)

// RegisterDefaultHandlers binds the built-in action handlers.
func RegisterDefaultHandlers(
	d *Dispatcher,
	engine *workflow.Engine,
	social *services.Social,
	messaging *services.Messaging,
	p persistence.Persistence,
	sender notify.Sender,
	logger *slog.Logger,
) {
	d.Register(models.ActionPublishPost, NewPublishPostHandler(social))
	d.Register(models.ActionRunWorkflowStep, NewRunWorkflowStepHandler(engine))
	d.Register(models.ActionRunWorkflow, NewRunWorkflowHandler(engine, p))
	d.Register(models.ActionSendBulkMessage, NewSendBulkMessageHandler(messaging, p, sender, logger))
}

// NewPublishPostHandler publishes the post named in the action arguments.
func NewPublishPostHandler(social *services.Social) Handler {
	return func(ctx context.Context, action *models.ScheduledAction) error {
		postID, _ := action.Args["post_id"].(string)
		if postID == "" {
			return errors.New("publish_post action missing post_id")
		}

		return social.Publish(ctx, action.OrganizationID, postID)
	}
}

// NewRunWorkflowStepHandler resumes a suspended execution after a wait block.
func NewRunWorkflowStepHandler(engine *workflow.Engine) Handler {
	return func(ctx context.Context, action *models.ScheduledAction) error {
		executionID, _ := action.Args["execution_id"].(string)
		if executionID == "" {
			return errors.New("run_workflow_step action missing execution_id")
		}

		index, ok := toInt(action.Args["resume_index"])
		if !ok {
			return errors.New("run_workflow_step action missing resume_index")
		}

		return engine.Resume(ctx, executionID, index)
	}
}

// NewRunWorkflowHandler runs a schedule-triggered workflow and rearms the
// action for the next cron occurrence.
func NewRunWorkflowHandler(engine *workflow.Engine, p persistence.Persistence) Handler {
	return func(ctx context.Context, action *models.ScheduledAction) error {
		workflowID, _ := action.Args["workflow_id"].(string)
		if workflowID == "" {
			return errors.New("run_workflow action missing workflow_id")
		}

		wf, err := p.Workflows().GetByID(ctx, action.OrganizationID, workflowID)
		if err != nil {
			// A deleted workflow completes its action instead of retrying forever.
			if persistence.IsNotFound(err) {
				return nil
			}

			return err
		}

		err = engine.RunScheduled(ctx, action.OrganizationID, workflowID)
		if err != nil {
			return err
		}

		if wf.Enabled {
			next, err := wf.NextScheduledRun(time.Now().UTC())
			if err != nil {
				return err
			}

			action.Rearm(next)
		}

		return nil
	}
}

// NewSendBulkMessageHandler delivers a campaign to its pending recipients.
// Per-recipient delivery failures are recorded on the recipient row; only
// infrastructure errors bubble up and retry the whole action.
func NewSendBulkMessageHandler(messaging *services.Messaging, p persistence.Persistence, sender notify.Sender, logger *slog.Logger) Handler {
	logger = logger.With("module", "bulk_delivery")

	return func(ctx context.Context, action *models.ScheduledAction) error {
		bulkMessageID, _ := action.Args["bulk_message_id"].(string)
		if bulkMessageID == "" {
			return errors.New("send_bulk_message action missing bulk_message_id")
		}

		message, err := p.BulkMessages().GetByID(ctx, action.OrganizationID, bulkMessageID)
		if err != nil {
			return err
		}

		recipients, err := p.Recipients().ListByBulkMessage(ctx, bulkMessageID)
		if err != nil {
			return err
		}

		for _, recipient := range recipients {
			if recipient.Status != models.RecipientStatusPending {
				continue
			}

			externalID, deliveryErr := deliverToRecipient(ctx, p, sender, message, recipient)

			status := models.RecipientStatusSent
			cause := ""

			if deliveryErr != nil {
				status = models.RecipientStatusFailed
				cause = deliveryErr.Error()

				logger.Warn("Delivery failed", "recipient_id", recipient.ID, "error", deliveryErr)
			}

			_, err = messaging.UpdateRecipientStatus(ctx, action.OrganizationID, recipient.ID, status, externalID, cause)
			if err != nil {
				return err
			}
		}

		return nil
	}
}

// deliverToRecipient sends one message and returns the provider message ID.
func deliverToRecipient(ctx context.Context, p persistence.Persistence, sender notify.Sender, message *models.BulkMessage, recipient *models.MessageRecipient) (string, error) {
	client, err := p.Clients().GetByID(ctx, message.OrganizationID, recipient.ClientID)
	if err != nil {
		return "", err
	}

	body, err := template.Render(message.Body, map[string]any{
		"client": map[string]any{
			"id":        client.ID,
			"full_name": client.FullName,
			"email":     client.Email,
		},
	})
	if err != nil {
		return "", err
	}

	switch message.Channel {
	case models.MessageChannelEmail:
		if client.Email == "" {
			return "", fmt.Errorf("client %s has no email address", client.ID)
		}

		return sender.SendEmail(ctx, notify.Message{To: client.Email, Subject: message.Subject, Body: body})
	case models.MessageChannelSMS:
		if len(client.Phones) == 0 {
			return "", fmt.Errorf("client %s has no phone number", client.ID)
		}

		return sender.SendSMS(ctx, notify.Message{To: client.Phones[0], Body: body})
	default:
		return "", fmt.Errorf("unknown channel '%s'", message.Channel)
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
