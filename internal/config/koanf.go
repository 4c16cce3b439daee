// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/herald/config.yaml",
	"/etc/herald/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "/data/herald.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Reminders: RemindersConfig{
			Enabled:          true,
			LookaheadMinutes: 120,
			BatchSize:        50,
			Interval:         time.Minute,
			ScanTimeout:      2 * time.Minute,
			KeyStore:         KeyStoreMemory,
			BadgerPath:       "/data/reminder-keys",
			CleanupInterval:  10 * time.Minute,
			DispatchRate:     0,
		},
		Alerting: AlertingConfig{
			Enabled:            true,
			Cooldown:           5 * time.Minute,
			Recipients:         []string{},
			Gate:               GateMemory,
			SnapshotURL:        "",
			Interval:           time.Minute,
			Timeout:            10 * time.Second,
			StaleAfter:         10 * time.Minute,
			RateLimitBlocked:   100,
			WAFAutoBlockedIPs:  5,
			QueueDepthWarning:  500,
			QueueDepthCritical: 2000,
		},
		Redis: RedisConfig{
			Addr:      "",
			DB:        0,
			KeyPrefix: "herald:",
		},
		Events: EventsConfig{
			Backend:    EventsGoChannel,
			BufferSize: 256,
			NATSURL:    "nats://127.0.0.1:4222",
			QueueGroup: "herald",
		},
		Cache: CacheConfig{
			ListingTTL: 30 * time.Second,
		},
		Server: ServerConfig{
			Port:              8080,
			Host:              "0.0.0.0",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{},
			RateLimitReqs:     300,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// REMINDER_BATCH_SIZE -> reminders.batch_size
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "" if none.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated slices.
var sliceConfigPaths = []string{
	"alerting.recipients",
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. YAML lists are left as they are.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		trimmed := []string{}
		for _, p := range strings.Split(strVal, ",") {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps recognized environment variables (lowercased) to koanf
// paths. Anything else in the environment is ignored.
var envMappings = map[string]string{
	// Reminders
	"reminder_enabled":           "reminders.enabled",
	"reminder_lookahead_minutes": "reminders.lookahead_minutes",
	"reminder_batch_size":        "reminders.batch_size",
	"reminder_interval":          "reminders.interval",
	"reminder_scan_timeout":      "reminders.scan_timeout",
	"reminder_keystore":          "reminders.keystore",
	"reminder_badger_path":       "reminders.badger_path",
	"reminder_cleanup_interval":  "reminders.cleanup_interval",
	"reminder_dispatch_rate":     "reminders.dispatch_rate",

	// Alerting
	"alert_enabled":              "alerting.enabled",
	"alert_cooldown":             "alerting.cooldown",
	"alert_recipients":           "alerting.recipients",
	"alert_gate":                 "alerting.gate",
	"alert_snapshot_url":         "alerting.snapshot_url",
	"alert_interval":             "alerting.interval",
	"alert_timeout":              "alerting.timeout",
	"alert_stale_after":          "alerting.stale_after",
	"alert_rate_limit_blocked":   "alerting.rate_limit_blocked",
	"alert_waf_auto_blocked_ips": "alerting.waf_auto_blocked_ips",
	"alert_queue_depth_warning":  "alerting.queue_depth_warning",
	"alert_queue_depth_critical": "alerting.queue_depth_critical",

	// Storage
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",
	"redis_addr":        "redis.addr",
	"redis_password":    "redis.password",
	"redis_db":          "redis.db",
	"redis_key_prefix":  "redis.key_prefix",

	// Events
	"events_backend":     "events.backend",
	"events_buffer_size": "events.buffer_size",
	"nats_url":           "events.nats_url",
	"nats_queue_group":   "events.queue_group",

	// Cache
	"listing_cache_ttl": "cache.listing_ttl",

	// Server
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unmapped names return "" so koanf skips them.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
