package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/persistence"
)

const bulkMessageColumns = `id, organization_id, channel, subject, body, status,
	total_recipients, sent_count, failed_count, scheduled_for, created_at, updated_at`

// BulkMessageRepository handles campaign rows.
type BulkMessageRepository struct {
	db *sql.DB
}

func (r *BulkMessageRepository) Save(ctx context.Context, message *models.BulkMessage) error {
	query := `
		INSERT INTO bulk_messages (id, organization_id, channel, subject, body, status,
			total_recipients, sent_count, failed_count, scheduled_for, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			channel = EXCLUDED.channel,
			subject = EXCLUDED.subject,
			body = EXCLUDED.body,
			status = EXCLUDED.status,
			total_recipients = EXCLUDED.total_recipients,
			sent_count = EXCLUDED.sent_count,
			failed_count = EXCLUDED.failed_count,
			scheduled_for = EXCLUDED.scheduled_for,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		message.ID, message.OrganizationID, message.Channel, nullString(message.Subject),
		message.Body, message.Status, message.TotalRecipients, message.SentCount,
		message.FailedCount, message.ScheduledFor, message.CreatedAt, message.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save bulk message: %w", err)
	}

	return nil
}

func (r *BulkMessageRepository) GetByID(ctx context.Context, orgID, id string) (*models.BulkMessage, error) {
	query := `SELECT ` + bulkMessageColumns + ` FROM bulk_messages WHERE id = $1 AND organization_id = $2`

	message, err := scanBulkMessage(r.db.QueryRowContext(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrBulkMessageNotFound
		}

		return nil, err
	}

	return message, nil
}

func (r *BulkMessageRepository) ListByOrganization(ctx context.Context, orgID string) ([]*models.BulkMessage, error) {
	query := `SELECT ` + bulkMessageColumns + ` FROM bulk_messages WHERE organization_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bulk messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.BulkMessage

	for rows.Next() {
		message, err := scanBulkMessage(rows)
		if err != nil {
			return nil, err
		}

		messages = append(messages, message)
	}

	return messages, rows.Err()
}

func (r *BulkMessageRepository) Delete(ctx context.Context, orgID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM bulk_messages WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete bulk message: %w", err)
	}

	return checkAffected(result, persistence.ErrBulkMessageNotFound)
}

func scanBulkMessage(scanner interface{ Scan(dest ...any) error }) (*models.BulkMessage, error) {
	var (
		message      models.BulkMessage
		subject      sql.NullString
		scheduledFor sql.NullTime
	)

	err := scanner.Scan(&message.ID, &message.OrganizationID, &message.Channel, &subject,
		&message.Body, &message.Status, &message.TotalRecipients, &message.SentCount,
		&message.FailedCount, &scheduledFor, &message.CreatedAt, &message.UpdatedAt)
	if err != nil {
		return nil, err
	}

	message.Subject = subject.String

	if scheduledFor.Valid {
		message.ScheduledFor = &scheduledFor.Time
	}

	return &message, nil
}

// RecipientRepository handles campaign recipient rows.
type RecipientRepository struct {
	db *sql.DB
}

func (r *RecipientRepository) Save(ctx context.Context, recipient *models.MessageRecipient) error {
	query := `
		INSERT INTO message_recipients (id, bulk_message_id, client_id, status, external_id, error_message, sent_at, delivered_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			external_id = EXCLUDED.external_id,
			error_message = EXCLUDED.error_message,
			sent_at = EXCLUDED.sent_at,
			delivered_at = EXCLUDED.delivered_at
	`

	_, err := r.db.ExecContext(ctx, query,
		recipient.ID, recipient.BulkMessageID, recipient.ClientID, recipient.Status,
		nullString(recipient.ExternalID), nullString(recipient.Error),
		recipient.SentAt, recipient.DeliveredAt, recipient.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save recipient: %w", err)
	}

	return nil
}

func (r *RecipientRepository) GetByID(ctx context.Context, id string) (*models.MessageRecipient, error) {
	query := `
		SELECT id, bulk_message_id, client_id, status, external_id, error_message, sent_at, delivered_at, created_at
		FROM message_recipients WHERE id = $1
	`

	recipient, err := scanRecipient(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrRecipientNotFound
		}

		return nil, err
	}

	return recipient, nil
}

func (r *RecipientRepository) ListByBulkMessage(ctx context.Context, bulkMessageID string) ([]*models.MessageRecipient, error) {
	query := `
		SELECT id, bulk_message_id, client_id, status, external_id, error_message, sent_at, delivered_at, created_at
		FROM message_recipients WHERE bulk_message_id = $1 ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, bulkMessageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipients: %w", err)
	}
	defer rows.Close()

	var recipients []*models.MessageRecipient

	for rows.Next() {
		recipient, err := scanRecipient(rows)
		if err != nil {
			return nil, err
		}

		recipients = append(recipients, recipient)
	}

	return recipients, rows.Err()
}

// CountByStatus is a single aggregate query so campaign counters never go
// through a read-modify-write cycle.
func (r *RecipientRepository) CountByStatus(ctx context.Context, bulkMessageID string, status models.RecipientStatus) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM message_recipients WHERE bulk_message_id = $1 AND status = $2`,
		bulkMessageID, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recipients: %w", err)
	}

	return count, nil
}

func scanRecipient(scanner interface{ Scan(dest ...any) error }) (*models.MessageRecipient, error) {
	var (
		recipient           models.MessageRecipient
		externalID, errMsg  sql.NullString
		sentAt, deliveredAt sql.NullTime
	)

	err := scanner.Scan(&recipient.ID, &recipient.BulkMessageID, &recipient.ClientID,
		&recipient.Status, &externalID, &errMsg, &sentAt, &deliveredAt, &recipient.CreatedAt)
	if err != nil {
		return nil, err
	}

	recipient.ExternalID = externalID.String
	recipient.Error = errMsg.String

	if sentAt.Valid {
		recipient.SentAt = &sentAt.Time
	}

	if deliveredAt.Valid {
		recipient.DeliveredAt = &deliveredAt.Time
	}

	return &recipient, nil
}
