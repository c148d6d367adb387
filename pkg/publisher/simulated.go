package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/glowdesk/glowdesk/pkg/models"
)

const (
	minPublishLatency = 1 * time.Second
	maxPublishLatency = 2 * time.Second
	publishFailRate   = 0.1
)

// SimulatedPlatform mimics a social network API: it sleeps between one and
// two seconds per publish and fails roughly one call in ten. Sleep and random
// source are injectable so tests run deterministically.
type SimulatedPlatform struct {
	platformID string
	logger     *slog.Logger
	rand       *rand.Rand
	sleep      func(ctx context.Context, d time.Duration) error
}

type SimulatedOption func(*SimulatedPlatform)

func WithRand(r *rand.Rand) SimulatedOption {
	return func(p *SimulatedPlatform) {
		p.rand = r
	}
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) SimulatedOption {
	return func(p *SimulatedPlatform) {
		p.sleep = sleep
	}
}

func NewSimulatedPlatform(platformID string, logger *slog.Logger, opts ...SimulatedOption) *SimulatedPlatform {
	p := &SimulatedPlatform{
		platformID: platformID,
		logger:     logger.With("platform", platformID),
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:      sleepCtx,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *SimulatedPlatform) ID() string {
	return p.platformID
}

func (p *SimulatedPlatform) Publish(ctx context.Context, post *models.SocialPost) (string, error) {
	latency := minPublishLatency + time.Duration(p.rand.Int63n(int64(maxPublishLatency-minPublishLatency)))

	err := p.sleep(ctx, latency)
	if err != nil {
		return "", err
	}

	if p.rand.Float64() < publishFailRate {
		p.logger.Warn("Publish rejected by platform", "post_id", post.ID)

		return "", fmt.Errorf("platform '%s' rejected post %s", p.platformID, post.ID)
	}

	externalID := p.platformID + "-" + uuid.New().String()
	p.logger.Info("Post published", "post_id", post.ID, "external_id", externalID)

	return externalID, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// MultiPlatformPublisher fans a post out to each of its target platforms and
// fails if any platform fails.
type MultiPlatformPublisher struct {
	platforms map[string]Platform
	logger    *slog.Logger
}

func NewMultiPlatformPublisher(logger *slog.Logger, platforms ...Platform) *MultiPlatformPublisher {
	byID := make(map[string]Platform, len(platforms))
	for _, p := range platforms {
		byID[p.ID()] = p
	}

	return &MultiPlatformPublisher{platforms: byID, logger: logger}
}

func (m *MultiPlatformPublisher) PublishAll(ctx context.Context, post *models.SocialPost) (map[string]string, error) {
	externalIDs := make(map[string]string, len(post.Platforms))

	for _, platformID := range post.Platforms {
		platform, ok := m.platforms[platformID]
		if !ok {
			return externalIDs, fmt.Errorf("unknown platform '%s'", platformID)
		}

		externalID, err := platform.Publish(ctx, post)
		if err != nil {
			return externalIDs, fmt.Errorf("publish to '%s' failed: %w", platformID, err)
		}

		externalIDs[platformID] = externalID
	}

	return externalIDs, nil
}
