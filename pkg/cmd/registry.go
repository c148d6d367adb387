// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/glowdesk/glowdesk/pkg/eventbus"
	"github.com/glowdesk/glowdesk/pkg/notify"
	"github.com/glowdesk/glowdesk/pkg/persistence"
	"github.com/glowdesk/glowdesk/pkg/registry"
)

// NewRegistry builds a step registry with every built-in step type wired to
// the given sender, persistence, and event bus.
func NewRegistry(log *slog.Logger, sender notify.Sender, p persistence.Persistence, bus eventbus.EventPublisher) *registry.Registry {
	reg := registry.NewRegistry(log)
	registry.RegisterDefaultSteps(reg, sender, p.Clients(), bus)

	return reg
}
