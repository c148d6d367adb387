package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/persistence"
)

const scheduledActionColumns = `id, organization_id, action, args, scheduled_for,
	status, attempts, max_attempts, next_attempt_at, last_error, created_at, updated_at`

// ScheduledActionRepository handles deferred action rows.
type ScheduledActionRepository struct {
	db *sql.DB
}

func (r *ScheduledActionRepository) Save(ctx context.Context, action *models.ScheduledAction) error {
	argsJSON, err := json.Marshal(action.Args)
	if err != nil {
		return fmt.Errorf("failed to marshal args: %w", err)
	}

	query := `
		INSERT INTO scheduled_actions (id, organization_id, action, args, scheduled_for,
			status, attempts, max_attempts, next_attempt_at, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			args = EXCLUDED.args,
			scheduled_for = EXCLUDED.scheduled_for,
			status = EXCLUDED.status,
			attempts = EXCLUDED.attempts,
			max_attempts = EXCLUDED.max_attempts,
			next_attempt_at = EXCLUDED.next_attempt_at,
			last_error = EXCLUDED.last_error,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		action.ID, action.OrganizationID, action.Action, argsJSON, action.ScheduledFor,
		action.Status, action.Attempts, action.MaxAttempts, action.NextAttemptAt,
		nullString(action.LastError), action.CreatedAt, action.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save scheduled action: %w", err)
	}

	return nil
}

func (r *ScheduledActionRepository) GetByID(ctx context.Context, id string) (*models.ScheduledAction, error) {
	query := `SELECT ` + scheduledActionColumns + ` FROM scheduled_actions WHERE id = $1`

	action, err := scanScheduledAction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrScheduledActionNotFound
		}

		return nil, err
	}

	return action, nil
}

func (r *ScheduledActionRepository) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledAction, error) {
	query := `SELECT ` + scheduledActionColumns + `
		FROM scheduled_actions
		WHERE status IN ('pending', 'retrying') AND next_attempt_at <= $1
		ORDER BY next_attempt_at`

	return r.queryActions(ctx, query, now)
}

func (r *ScheduledActionRepository) ListStaleAttempts(ctx context.Context, cutoff time.Time) ([]*models.ScheduledAction, error) {
	query := `SELECT ` + scheduledActionColumns + `
		FROM scheduled_actions
		WHERE status = 'attempting' AND updated_at <= $1
		ORDER BY updated_at`

	return r.queryActions(ctx, query, cutoff)
}

func (r *ScheduledActionRepository) ListByOrganization(ctx context.Context, orgID string) ([]*models.ScheduledAction, error) {
	query := `SELECT ` + scheduledActionColumns + `
		FROM scheduled_actions WHERE organization_id = $1 ORDER BY scheduled_for`

	return r.queryActions(ctx, query, orgID)
}

func (r *ScheduledActionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_actions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scheduled action: %w", err)
	}

	return checkAffected(result, persistence.ErrScheduledActionNotFound)
}

func (r *ScheduledActionRepository) queryActions(ctx context.Context, query string, args ...any) ([]*models.ScheduledAction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled actions: %w", err)
	}
	defer rows.Close()

	var actions []*models.ScheduledAction

	for rows.Next() {
		action, err := scanScheduledAction(rows)
		if err != nil {
			return nil, err
		}

		actions = append(actions, action)
	}

	return actions, rows.Err()
}

func scanScheduledAction(scanner interface{ Scan(dest ...any) error }) (*models.ScheduledAction, error) {
	var (
		action    models.ScheduledAction
		argsJSON  []byte
		lastError sql.NullString
	)

	err := scanner.Scan(&action.ID, &action.OrganizationID, &action.Action, &argsJSON,
		&action.ScheduledFor, &action.Status, &action.Attempts, &action.MaxAttempts,
		&action.NextAttemptAt, &lastError, &action.CreatedAt, &action.UpdatedAt)
	if err != nil {
		return nil, err
	}

	action.LastError = lastError.String

	err = json.Unmarshal(argsJSON, &action.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal args: %w", err)
	}

	return &action, nil
}

const socialPostColumns = `id, organization_id, platforms, content, media_urls,
	status, scheduled_for, published_at, error_message, created_at, updated_at`

// SocialPostRepository handles social post rows.
type SocialPostRepository struct {
	db *sql.DB
}

func (r *SocialPostRepository) Save(ctx context.Context, post *models.SocialPost) error {
	platformsJSON, err := json.Marshal(post.Platforms)
	if err != nil {
		return fmt.Errorf("failed to marshal platforms: %w", err)
	}

	mediaJSON, err := json.Marshal(post.MediaURLs)
	if err != nil {
		return fmt.Errorf("failed to marshal media urls: %w", err)
	}

	query := `
		INSERT INTO social_posts (id, organization_id, platforms, content, media_urls,
			status, scheduled_for, published_at, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			platforms = EXCLUDED.platforms,
			content = EXCLUDED.content,
			media_urls = EXCLUDED.media_urls,
			status = EXCLUDED.status,
			scheduled_for = EXCLUDED.scheduled_for,
			published_at = EXCLUDED.published_at,
			error_message = EXCLUDED.error_message,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		post.ID, post.OrganizationID, platformsJSON, post.Content, mediaJSON,
		post.Status, post.ScheduledFor, post.PublishedAt, nullString(post.Error),
		post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save social post: %w", err)
	}

	return nil
}

func (r *SocialPostRepository) GetByID(ctx context.Context, orgID, id string) (*models.SocialPost, error) {
	query := `SELECT ` + socialPostColumns + ` FROM social_posts WHERE id = $1 AND organization_id = $2`

	post, err := scanSocialPost(r.db.QueryRowContext(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrSocialPostNotFound
		}

		return nil, err
	}

	return post, nil
}

func (r *SocialPostRepository) ListByOrganization(ctx context.Context, orgID string) ([]*models.SocialPost, error) {
	query := `SELECT ` + socialPostColumns + ` FROM social_posts WHERE organization_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query social posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.SocialPost

	for rows.Next() {
		post, err := scanSocialPost(rows)
		if err != nil {
			return nil, err
		}

		posts = append(posts, post)
	}

	return posts, rows.Err()
}

func (r *SocialPostRepository) Delete(ctx context.Context, orgID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM social_posts WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete social post: %w", err)
	}

	return checkAffected(result, persistence.ErrSocialPostNotFound)
}

func scanSocialPost(scanner interface{ Scan(dest ...any) error }) (*models.SocialPost, error) {
	var (
		post                     models.SocialPost
		platformsJSON, mediaJSON []byte
		errMsg                   sql.NullString
		scheduledFor, published  sql.NullTime
	)

	err := scanner.Scan(&post.ID, &post.OrganizationID, &platformsJSON, &post.Content,
		&mediaJSON, &post.Status, &scheduledFor, &published, &errMsg,
		&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	post.Error = errMsg.String

	if scheduledFor.Valid {
		post.ScheduledFor = &scheduledFor.Time
	}

	if published.Valid {
		post.PublishedAt = &published.Time
	}

	err = json.Unmarshal(platformsJSON, &post.Platforms)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal platforms: %w", err)
	}

	err = json.Unmarshal(mediaJSON, &post.MediaURLs)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal media urls: %w", err)
	}

	return &post, nil
}
