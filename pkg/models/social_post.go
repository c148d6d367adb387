package models

import "time"

// PostStatus is the lifecycle state of a social media post.
type PostStatus string

const (
	PostStatusDraft      PostStatus = "draft"
	PostStatusScheduled  PostStatus = "scheduled"
	PostStatusPublishing PostStatus = "publishing"
	PostStatusPublished  PostStatus = "published"
	PostStatusFailed     PostStatus = "failed"
)

// SocialPost is content to publish on one or more platforms. Posts with a
// future ScheduledFor are stored as scheduled and published by the
// dispatcher; otherwise they stay drafts until published explicitly.
type SocialPost struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id" validate:"required"`
	Platforms      []string   `json:"platforms"       validate:"required,min=1"`
	Content        string     `json:"content"         validate:"required"`
	MediaURLs      []string   `json:"media_urls,omitempty"`
	Status         PostStatus `json:"status"`
	ScheduledFor   *time.Time `json:"scheduled_for,omitempty"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	Error          string     `json:"error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
