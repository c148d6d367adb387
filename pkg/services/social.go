package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glowdesk/glowdesk/pkg/eventbus"
	"github.com/glowdesk/glowdesk/pkg/events"
	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/persistence"
	"github.com/glowdesk/glowdesk/pkg/publisher"
)

const publishMaxAttempts = 3

// Social handles social posts. Posts scheduled for the future get a
// publish_post action the dispatcher runs when due; publishing fans the post
// out to its platforms and records the outcome.
type Social struct {
	persistence persistence.Persistence
	publisher   publisher.Publisher
	eventBus    eventbus.EventPublisher
}

func NewSocial(persistence persistence.Persistence, pub publisher.Publisher, eventBus eventbus.EventPublisher) *Social {
	return &Social{persistence: persistence, publisher: pub, eventBus: eventBus}
}

func (s *Social) Create(ctx context.Context, post *models.SocialPost) (*models.SocialPost, error) {
	err := validate.Struct(post)
	if err != nil {
		return nil, NewValidationError("Social.Create", "INVALID_POST", err.Error(), ErrInvalidRequest)
	}

	now := time.Now().UTC()
	post.ID = uuid.New().String()
	post.CreatedAt = now
	post.UpdatedAt = now

	if post.ScheduledFor != nil && post.ScheduledFor.After(now) {
		post.Status = models.PostStatusScheduled
	} else {
		post.Status = models.PostStatusDraft
	}

	err = s.persistence.SocialPosts().Save(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to save post: %w", err)
	}

	if post.Status == models.PostStatusScheduled {
		err = s.schedulePublish(ctx, post, *post.ScheduledFor)
		if err != nil {
			return nil, err
		}
	}

	return post, nil
}

func (s *Social) Get(ctx context.Context, orgID, id string) (*models.SocialPost, error) {
	return s.persistence.SocialPosts().GetByID(ctx, orgID, id)
}

func (s *Social) List(ctx context.Context, orgID string) ([]*models.SocialPost, error) {
	return s.persistence.SocialPosts().ListByOrganization(ctx, orgID)
}

func (s *Social) Delete(ctx context.Context, orgID, id string) error {
	return s.persistence.SocialPosts().Delete(ctx, orgID, id)
}

// PublishNow queues an immediate publish for a draft or scheduled post.
func (s *Social) PublishNow(ctx context.Context, orgID, id string) (*models.SocialPost, error) {
	post, err := s.persistence.SocialPosts().GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if post.Status != models.PostStatusDraft && post.Status != models.PostStatusScheduled {
		return nil, ErrPostNotPublishable
	}

	err = s.schedulePublish(ctx, post, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return post, nil
}

// Publish delivers the post to every target platform. The dispatcher calls
// this when a publish_post action comes due; a returned error makes the
// dispatcher retry the action.
func (s *Social) Publish(ctx context.Context, orgID, id string) error {
	post, err := s.persistence.SocialPosts().GetByID(ctx, orgID, id)
	if err != nil {
		return err
	}

	if post.Status == models.PostStatusPublished {
		return nil
	}

	post.Status = models.PostStatusPublishing
	post.UpdatedAt = time.Now().UTC()

	err = s.persistence.SocialPosts().Save(ctx, post)
	if err != nil {
		return fmt.Errorf("failed to save post: %w", err)
	}

	_, publishErr := s.publisher.PublishAll(ctx, post)

	now := time.Now().UTC()
	post.UpdatedAt = now

	if publishErr != nil {
		post.Status = models.PostStatusFailed
		post.Error = publishErr.Error()
	} else {
		post.Status = models.PostStatusPublished
		post.PublishedAt = &now
		post.Error = ""
	}

	err = s.persistence.SocialPosts().Save(ctx, post)
	if err != nil {
		return fmt.Errorf("failed to save post: %w", err)
	}

	s.publishOutcomeEvent(ctx, post, publishErr)

	return publishErr
}

func (s *Social) schedulePublish(ctx context.Context, post *models.SocialPost, due time.Time) error {
	action := models.NewScheduledAction(
		post.OrganizationID,
		models.ActionPublishPost,
		map[string]any{"post_id": post.ID},
		due,
		publishMaxAttempts,
	)
	action.ID = uuid.New().String()

	err := s.persistence.ScheduledActions().Save(ctx, action)
	if err != nil {
		return fmt.Errorf("failed to schedule publish: %w", err)
	}

	return nil
}

func (s *Social) publishOutcomeEvent(ctx context.Context, post *models.SocialPost, publishErr error) {
	base := events.BaseEvent{
		ID:             uuid.New().String(),
		Timestamp:      time.Now().UTC(),
		OrganizationID: post.OrganizationID,
	}

	var event eventbus.Event

	if publishErr != nil {
		base.Type = events.PostPublishFailedEvent
		event = events.PostPublishFailed{BaseEvent: base, PostID: post.ID, Error: publishErr.Error()}
	} else {
		base.Type = events.PostPublishedEvent
		event = events.PostPublished{BaseEvent: base, PostID: post.ID, Platforms: post.Platforms}
	}

	// Outcome events are best effort; the post row already records the result.
	_ = s.eventBus.Publish(ctx, post.ID, event)
}
