// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package config

import (
	"fmt"
	"time"
)

// Reminder scan floors. The scanner clamps direct calls to the same values.
const (
	MinLookaheadMinutes = 5
	MinBatchSize        = 1
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateReminders(); err != nil {
		return err
	}

	if err := c.validateAlerting(); err != nil {
		return err
	}

	if err := c.validateEvents(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	return nil
}

// validateReminders validates the scan parameters and the key store backend.
func (c *Config) validateReminders() error {
	r := c.Reminders
	if r.LookaheadMinutes < MinLookaheadMinutes {
		return fmt.Errorf("REMINDER_LOOKAHEAD_MINUTES must be at least %d, got %d", MinLookaheadMinutes, r.LookaheadMinutes)
	}
	if r.BatchSize < MinBatchSize {
		return fmt.Errorf("REMINDER_BATCH_SIZE must be at least %d, got %d", MinBatchSize, r.BatchSize)
	}
	if r.Interval <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL must be positive")
	}
	if r.DispatchRate < 0 {
		return fmt.Errorf("REMINDER_DISPATCH_RATE must not be negative")
	}

	switch r.KeyStore {
	case KeyStoreNone, KeyStoreMemory:
	case KeyStoreBadger:
		if r.BadgerPath == "" {
			return fmt.Errorf("REMINDER_BADGER_PATH is required when REMINDER_KEYSTORE=badger")
		}
	case KeyStoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required when REMINDER_KEYSTORE=redis")
		}
	default:
		return fmt.Errorf("REMINDER_KEYSTORE must be one of: none, memory, badger, redis, got %q", r.KeyStore)
	}
	return nil
}

// validateAlerting validates the cooldown, gate backend and snapshot source.
func (c *Config) validateAlerting() error {
	a := c.Alerting
	if a.Cooldown <= 0 {
		return fmt.Errorf("ALERT_COOLDOWN must be positive")
	}

	switch a.Gate {
	case GateMemory:
	case GateRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required when ALERT_GATE=redis")
		}
	default:
		return fmt.Errorf("ALERT_GATE must be one of: memory, redis, got %q", a.Gate)
	}

	if a.SnapshotURL != "" {
		if err := validateSnapshotURL(a.SnapshotURL); err != nil {
			return fmt.Errorf("ALERT_SNAPSHOT_URL is invalid: %w", err)
		}
		if a.Interval < time.Second {
			return fmt.Errorf("ALERT_INTERVAL must be at least 1s")
		}
	}

	if a.StaleAfter < 0 || a.RateLimitBlocked < 0 || a.WAFAutoBlockedIPs < 0 ||
		a.QueueDepthWarning < 0 || a.QueueDepthCritical < 0 {
		return fmt.Errorf("alert thresholds must not be negative")
	}
	if a.QueueDepthWarning > 0 && a.QueueDepthCritical > 0 && a.QueueDepthCritical < a.QueueDepthWarning {
		return fmt.Errorf("ALERT_QUEUE_DEPTH_CRITICAL must not be below ALERT_QUEUE_DEPTH_WARNING")
	}
	return nil
}

func (c *Config) validateEvents() error {
	switch c.Events.Backend {
	case EventsGoChannel:
		return nil
	case EventsNATS:
		if err := validateNATSURL(c.Events.NATSURL); err != nil {
			return fmt.Errorf("NATS_URL is invalid: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("EVENTS_BACKEND must be one of: gochannel, nats, got %q", c.Events.Backend)
	}
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Cache.ListingTTL <= 0 {
		return fmt.Errorf("LISTING_CACHE_TTL must be positive")
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitReqs < 1 || c.Server.RateLimitReqs > 100000 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be between 1 and 100000")
		}
		if c.Server.RateLimitWindow < time.Second {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
