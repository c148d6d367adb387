// Package wait implements the wait workflow step. A wait block suspends the
// enrollment and hands resumption to the scheduled action dispatcher.
package wait

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "wait"
}

func (*Factory) Create(config map[string]any) (protocol.StepAction, error) {
	raw, _ := config["duration"].(string)
	if raw == "" {
		return nil, errors.New("wait step requires a duration")
	}

	duration, err := time.ParseDuration(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid wait duration '%s': %w", raw, err)
	}

	if duration <= 0 {
		return nil, fmt.Errorf("wait duration must be positive, got '%s'", raw)
	}

	return &Action{duration: duration}, nil
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"duration": map[string]any{
				"type":        "string",
				"description": "How long to wait before the next block, as a Go duration.",
				"examples":    []string{"30m", "24h", "72h"},
			},
		},
		"required": []string{"duration"},
	}
}

type Action struct {
	duration time.Duration
}

func (a *Action) Execute(_ context.Context, _ models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	resumeAt := time.Now().UTC().Add(a.duration)

	logger.Info("Execution waiting", "step_type", "wait", "resume_at", resumeAt)

	return nil, &protocol.WaitSignal{ResumeAt: resumeAt}
}
