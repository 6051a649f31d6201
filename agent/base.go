package agent

import (
	"github.com/routemesh/routemesh/logging"
)

// Config declares an agent's identity. The capability set is fixed at
// construction; the registry and router rely on it never changing after
// registration.
type Config struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
}

// BaseAgent bundles identity accessors shared by all concrete agents. Embed
// it and implement ReceiveMessage to satisfy core.Agent.
type BaseAgent struct {
	config Config
	logger logging.Logger
}

// NewBaseAgent constructs a BaseAgent from a config, substituting a no-op
// logger when logger is nil.
func NewBaseAgent(config Config, logger logging.Logger) BaseAgent {
	return BaseAgent{config: config, logger: logging.OrNoOp(logger)}
}

// ID returns the unique agent identifier.
func (b *BaseAgent) ID() string { return b.config.ID }

// Name returns the human-readable display name.
func (b *BaseAgent) Name() string { return b.config.Name }

// Description returns the agent's purpose description.
func (b *BaseAgent) Description() string { return b.config.Description }

// Capabilities returns a copy of the capability tags in declaration order.
func (b *BaseAgent) Capabilities() []string {
	caps := make([]string, len(b.config.Capabilities))
	copy(caps, b.config.Capabilities)
	return caps
}

// Logger returns the agent's logger.
func (b *BaseAgent) Logger() logging.Logger { return b.logger }
