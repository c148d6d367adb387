package registry

import (
	"github.com/glowdesk/glowdesk/pkg/eventbus"
	"github.com/glowdesk/glowdesk/pkg/notify"
	"github.com/glowdesk/glowdesk/pkg/persistence"
	"github.com/glowdesk/glowdesk/pkg/steps/sendemail"
	"github.com/glowdesk/glowdesk/pkg/steps/sendsms"
	"github.com/glowdesk/glowdesk/pkg/steps/tag"
	"github.com/glowdesk/glowdesk/pkg/steps/wait"
)

// RegisterDefaultSteps wires every built-in step action into the registry.
func RegisterDefaultSteps(
	registry *Registry,
	sender notify.Sender,
	clients persistence.ClientRepository,
	publisher eventbus.EventPublisher,
) {
	registry.RegisterStep(sendsms.NewFactory(sender))
	registry.RegisterStep(sendemail.NewFactory(sender))
	registry.RegisterStep(tag.NewAddFactory(clients, publisher))
	registry.RegisterStep(tag.NewRemoveFactory(clients))
	registry.RegisterStep(wait.NewFactory())
}
