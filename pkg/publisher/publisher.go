// Package publisher delivers social posts to external platforms.
package publisher

import (
	"context"

	"github.com/glowdesk/glowdesk/pkg/models"
)

// Platform publishes a post to one social network. Publish returns the
// platform-assigned identifier of the published content.
type Platform interface {
	ID() string
	Publish(ctx context.Context, post *models.SocialPost) (string, error)
}

// Publisher routes a post to every platform it targets.
type Publisher interface {
	PublishAll(ctx context.Context, post *models.SocialPost) (map[string]string, error)
}
