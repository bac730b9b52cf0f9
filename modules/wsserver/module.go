package wsserver

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/chat-rooms-demo/modules/broadcast"
	"github.com/example/chat-rooms-demo/modules/gateway"
	"github.com/example/chat-rooms-demo/modules/presence"
)

// Module is the transport boundary: a Fiber server that upgrades WebSocket
// connections and hands their events to the session gateway.
type Module struct {
	app       *fiber.App
	handlers  *Handlers
	addr      string
	gateway   *gateway.Module
	hub       *broadcast.Hub
	registry  *presence.Registry
	rateLimit RateLimitConfig
	logger    types.Logger
}

// NewModule creates a new WebSocket server module.
func NewModule(addr string, gw *gateway.Module, hub *broadcast.Hub, registry *presence.Registry, rateLimit RateLimitConfig, moduleLogger types.Logger) *Module {
	return &Module{
		addr:      addr,
		gateway:   gw,
		hub:       hub,
		registry:  registry,
		rateLimit: rateLimit,
		logger:    moduleLogger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "ws-server"
}

// Start initializes and starts the WebSocket server.
func (m *Module) Start(_ context.Context) error {
	m.app = fiber.New(fiber.Config{
		AppName:               "Chat Rooms Demo",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
	}))

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:8080"
	}
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	m.handlers = NewHandlers(m.gateway, m.hub, m.registry, m.rateLimit, m.logger)
	m.registerRoutes()

	// Start server in goroutine with startup error detection
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			errCh <- err
		}
	}()

	// Wait briefly to catch immediate startup errors
	select {
	case err := <-errCh:
		return fmt.Errorf("WebSocket server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("WebSocket server started", "addr", m.addr)
	return nil
}

// Stop gracefully shuts down the WebSocket server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	m.logger.Info("WebSocket server stopped")
	return nil
}

// registerRoutes sets up all HTTP and WebSocket routes.
func (m *Module) registerRoutes() {
	m.app.Get("/health", m.handlers.HealthCheck)

	// WebSocket upgrade middleware
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handlers.HandleWebSocket))

	api := m.app.Group("/api/v1")
	api.Get("/rooms/:room/users", m.handlers.RoomUsers)
}

// errorHandler handles errors globally.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	m.logger.Error("HTTP error", "code", code, "message", message, "error", err)

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
