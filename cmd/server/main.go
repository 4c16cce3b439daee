// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/herald/internal/alerting"
	"github.com/tomtom215/herald/internal/api"
	"github.com/tomtom215/herald/internal/cache"
	"github.com/tomtom215/herald/internal/config"
	"github.com/tomtom215/herald/internal/database"
	"github.com/tomtom215/herald/internal/events"
	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/notification"
	"github.com/tomtom215/herald/internal/realtime"
	"github.com/tomtom215/herald/internal/reminder"
	"github.com/tomtom215/herald/internal/supervisor"
	"github.com/tomtom215/herald/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	logger := logging.Logger()

	logging.Info().
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Str("events_backend", cfg.Events.Backend).
		Str("reminder_keystore", cfg.Reminders.KeyStore).
		Str("alert_gate", cfg.Alerting.Gate).
		Msg("Starting Herald")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	listings := cache.NewWithCleanup(cfg.Cache.ListingTTL, cfg.Cache.ListingTTL*2)
	defer listings.Close()

	bus, err := events.NewBus(events.Config{
		Backend:    cfg.Events.Backend,
		BufferSize: cfg.Events.BufferSize,
		NATSURL:    cfg.Events.NATSURL,
		QueueGroup: cfg.Events.QueueGroup,
	}, logging.NewWatermillAdapter(logging.WithComponent("events")))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create event bus")
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	dispatcher := notification.NewDispatcher(db, &logger, notification.Config{
		Listings:  listings,
		Publisher: bus,
	})

	redisClient := newRedisClient(cfg)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing redis client")
			}
		}()
	}

	keys, err := buildKeyStore(cfg, redisClient)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open reminder key store")
	}
	if keys != nil {
		defer func() {
			if err := keys.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing reminder key store")
			}
		}()
	}

	scanner := reminder.NewScanner(db, dispatcher, &logger, reminder.ScannerConfig{
		LookaheadMinutes: cfg.Reminders.LookaheadMinutes,
		BatchSize:        cfg.Reminders.BatchSize,
		KeyStore:         keys,
		DispatchRate:     cfg.Reminders.DispatchRate,
	})
	scheduler := reminder.NewScheduler(scanner, &logger, reminder.SchedulerConfig{
		Interval:        cfg.Reminders.Interval,
		ScanTimeout:     cfg.Reminders.ScanTimeout,
		CleanupInterval: cfg.Reminders.CleanupInterval,
		Enabled:         cfg.Reminders.Enabled,
	})

	gate := buildGate(cfg, redisClient)
	evaluator := alerting.NewEvaluator(gate, dispatcher, &logger, alerting.EvaluatorConfig{
		Recipients: cfg.Alerting.Recipients,
		Thresholds: thresholdsFromConfig(cfg.Alerting),
	})
	monitor := alerting.NewMonitor(
		alerting.NewHTTPSnapshotSource(alerting.HTTPSourceConfig{
			URL:     cfg.Alerting.SnapshotURL,
			Timeout: cfg.Alerting.Timeout,
		}),
		evaluator,
		&logger,
		alerting.MonitorConfig{
			Interval: cfg.Alerting.Interval,
			Enabled:  cfg.Alerting.Enabled && cfg.Alerting.SnapshotURL != "",
		},
	)
	if len(cfg.Alerting.Recipients) == 0 {
		logging.Warn().Msg("ALERT_RECIPIENTS is empty; operational alerts will be evaluated but not delivered")
	}

	hub := realtime.NewHub()
	bridge := realtime.NewBridge(bus, hub)

	handler := api.NewHandler(api.Dependencies{
		Notifications: dispatcher,
		Preferences:   db,
		Calendar:      db,
		Reminders:     scanner,
		Alerts:        evaluator,
		Database:      db,
		Hub:           hub,
		Version:       version,
	})
	router := api.NewRouter(handler, &api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		CORSMaxAge:         86400,
		RateLimitRequests:  cfg.Server.RateLimitReqs,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
		RateLimitDisabled:  cfg.Server.RateLimitDisabled,
	}, &logger)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		// WriteTimeout stays 0: it would cut long-lived WebSocket streams.
		IdleTimeout: 120 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(services.NewReminderSchedulerService(scheduler))
	tree.AddDataService(services.NewAlertMonitorService(monitor))
	tree.AddMessagingService(services.NewRealtimeHubService(hub))
	tree.AddMessagingService(services.NewEventBridgeService(bridge))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("Herald stopped")
}

// newRedisClient returns a client when any backend needs Redis, else nil.
func newRedisClient(cfg *config.Config) *redis.Client {
	if cfg.Reminders.KeyStore != config.KeyStoreRedis && cfg.Alerting.Gate != config.GateRedis {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
