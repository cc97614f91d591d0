package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"github.com/samirrijal/mapgood/internal/adapters/http"
	natsadapter "github.com/samirrijal/mapgood/internal/adapters/nats"
	"github.com/samirrijal/mapgood/internal/adapters/nominatim"
	"github.com/samirrijal/mapgood/internal/adapters/ofdb"
	"github.com/samirrijal/mapgood/internal/adapters/valkey"
	"github.com/samirrijal/mapgood/internal/core/bridge"
	"github.com/samirrijal/mapgood/internal/core/domain"
	"github.com/samirrijal/mapgood/internal/core/engine"
	"github.com/samirrijal/mapgood/internal/core/ports"
	"github.com/samirrijal/mapgood/internal/core/usecases"
	"github.com/samirrijal/mapgood/internal/pkg/config"
	"github.com/samirrijal/mapgood/internal/pkg/logging"
	"github.com/samirrijal/mapgood/internal/pkg/telemetry"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load("mapgood-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	sessionID := uuid.NewString()
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName).
		Info("starting", "version", version, "session_id", sessionID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{Hub: http.NewHub(), Version: version}

	// Cache (optional)
	var cache *valkey.Cache
	if cfg.Valkey.Addr != "" {
		cache, err = valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix)
		if err != nil {
			slog.Warn("valkey unavailable, lookups are not cached", "error", err)
		} else {
			defer cache.Close()
			deps.Cache = cache
		}
	}

	// Lookup services
	placeSvc := usecases.NewPlaceService(nominatim.New(nominatim.Config{
		BaseURL:   cfg.Nominatim.BaseURL,
		UserAgent: cfg.Nominatim.UserAgent,
		Timeout:   cfg.Nominatim.Timeout,
	}), cacheService(cache))
	entrySvc := usecases.NewEntryService(ofdb.New(ofdb.Config{
		BaseURL:    cfg.OFDB.BaseURL,
		Categories: cfg.OFDB.Categories,
		Timeout:    cfg.OFDB.Timeout,
	}), cacheService(cache))
	deps.Places = placeSvc

	engineDeps := engine.Deps{
		Places:  placeSvc,
		Entries: entrySvc,
		Surface: deps.Hub,
	}

	// NATS (optional)
	if cfg.NATS.URL != "" {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL, sessionID)
		if err != nil {
			slog.Warn("nats unavailable, submissions are not forwarded", "error", err)
		} else {
			defer pub.Close()
			engineDeps.Sink = pub
			engineDeps.Diagnostics = pub
			deps.NATS = pub
		}
	}

	// Session engine
	eng := engine.New(engineDeps, engine.Config{
		QueueSize:     cfg.Engine.QueueSize,
		LookupTimeout: cfg.Engine.LookupTimeout,
		Rules:         domain.FormRules{TitleMin: cfg.Engine.TitleMin, TitleMax: cfg.Engine.TitleMax},
	})
	eng.Observe(deps.Hub)

	engineDone := make(chan error, 1)
	go func() { engineDone <- eng.Run(ctx) }()

	deps.Session = eng
	deps.Input = bridge.New(eng, cfg.Engine.SettleDelay(), func(msg engine.Msg, err error) {
		slog.Warn("deferred dispatch failed", "msg", fmt.Sprintf("%T", msg), "error", err)
	})

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "mapgood",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	engineExited := false
	select {
	case sig := <-quit:
		slog.Info("shutdown signal received, draining connections...", "signal", sig.String())
	case err := <-engineDone:
		engineExited = true
		slog.Error("session engine exited", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	cancel()

	// In-flight lookups and publishes must finish before the deferred
	// cache and NATS closes run.
	if !engineExited {
		if err := awaitEngine(shutdownCtx, engineDone); err != nil {
			slog.Error("session engine did not drain", "error", err)
		}
	}

	slog.Info("server stopped")
}

// awaitEngine waits for the run loop to return, bounded by ctx.
func awaitEngine(ctx context.Context, done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cacheService keeps a disabled cache a true nil interface.
func cacheService(c *valkey.Cache) ports.CacheService {
	if c == nil {
		return nil
	}
	return c
}
