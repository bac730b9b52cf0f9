package presence

import (
	"context"
	"testing"

	"github.com/go-monolith/mono/pkg/types"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

func TestModule_Lifecycle(t *testing.T) {
	m := NewModule(&mockLogger{})
	ctx := context.Background()

	if name := m.Name(); name != "presence" {
		t.Errorf("Name() = %q, want 'presence'", name)
	}
	if m.Registry() == nil {
		t.Fatal("Registry() returned nil")
	}
	if err := m.Start(ctx); err != nil {
		t.Errorf("Start() error = %v", err)
	}
	if health := m.Health(ctx); !health.Healthy {
		t.Error("Health() reported unhealthy")
	}
	if err := m.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
