package presence

import (
	"context"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// Module owns the presence registry instance shared by the gateway and the
// broadcast module. There is deliberately no package-level registry; the
// single instance is created here and handed out in main.
type Module struct {
	registry *Registry
	logger   types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the presence module and its registry.
func NewModule(logger types.Logger) *Module {
	return &Module{
		registry: NewRegistry(),
		logger:   logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "presence"
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Presence module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Presence module stopped", "activeUsers", m.registry.UserCount())
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"active_users": m.registry.UserCount(),
		},
	}
}

// Registry exposes the registry for the modules wired up in main.
func (m *Module) Registry() *Registry {
	return m.registry
}
