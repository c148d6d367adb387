// Package protocol defines the contracts for pluggable workflow step actions.
package protocol

import (
	"context"
	"log/slog"
	"time"

	"github.com/glowdesk/glowdesk/pkg/models"
)

// StepAction executes one workflow block against an enrollment.
type StepAction interface {
	Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error)
}

// StepFactory creates step action instances and describes their configuration.
type StepFactory interface {
	// Create instantiates the action from block configuration.
	Create(config map[string]any) (StepAction, error)

	// ID returns the block type this factory serves.
	ID() string

	// Schema returns the JSON schema used to validate block configuration.
	Schema() map[string]any
}

// WaitSignal is returned as an error by wait actions to tell the engine to
// suspend the enrollment and resume it at ResumeAt.
type WaitSignal struct {
	ResumeAt time.Time
}

func (w *WaitSignal) Error() string {
	return "execution waiting until " + w.ResumeAt.Format(time.RFC3339)
}
