package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/chat-rooms-demo/modules/broadcast"
	"github.com/example/chat-rooms-demo/modules/gateway"
	"github.com/example/chat-rooms-demo/modules/presence"
	"github.com/example/chat-rooms-demo/modules/wsserver"
	"github.com/example/chat-rooms-demo/profanity"
)

const shutdownTimeout = 30 * time.Second

func main() {
	port := getEnv("PORT", "3000")
	rateLimit := wsserver.RateLimitConfig{
		Burst:     getEnvInt("RATE_LIMIT_BURST", 20),
		PerSecond: getEnvInt("RATE_LIMIT_PER_SECOND", 10),
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	moduleLogger := app.Logger()

	// Create modules
	presenceModule := presence.NewModule(moduleLogger)
	broadcastModule := broadcast.NewModule(presenceModule.Registry(), moduleLogger)
	gatewayModule := gateway.NewModule(presenceModule.Registry(), profanity.NewDetector(), moduleLogger)
	wsModule := wsserver.NewModule(":"+port, gatewayModule, broadcastModule.Hub(), presenceModule.Registry(), rateLimit, moduleLogger)

	// Inject the broadcaster into the gateway module
	// (done manually because the publisher is not exposed via ServiceContainer)
	gatewayModule.SetBroadcaster(broadcastModule.Publisher())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - presence: the registry every other module reads
	// - broadcast: WebSocket hub + outbound event consumer
	// - gateway: per-connection session state machines
	// - ws-server: Fiber HTTP/WebSocket transport boundary
	app.Register(presenceModule)
	app.Register(broadcastModule)
	app.Register(gatewayModule)
	app.Register(wsModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	moduleLogger.Info("Chat rooms demo started", "port", port)
	moduleLogger.Info("WebSocket endpoint", "url", "ws://localhost:"+port+"/ws")
	moduleLogger.Info("Inbound events", "types", []string{"join", "sendMessage", "sendLocation"})
	moduleLogger.Info("Roster endpoint", "url", "http://localhost:"+port+"/api/v1/rooms/:room/users")

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				moduleLogger.Info("Graceful shutdown initiated")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	moduleLogger.Info("Application exited", "code", exitCode)
	os.Exit(exitCode)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
