// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package config

import (
	"time"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file and environment variables, in that order of precedence.
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Reminders RemindersConfig `koanf:"reminders"`
	Alerting  AlertingConfig  `koanf:"alerting"`
	Redis     RedisConfig     `koanf:"redis"`
	Events    EventsConfig    `koanf:"events"`
	Cache     CacheConfig     `koanf:"cache"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use NumCPU
}

// Reminder key store backends.
const (
	KeyStoreNone   = "none"
	KeyStoreMemory = "memory"
	KeyStoreBadger = "badger"
	KeyStoreRedis  = "redis"
)

// RemindersConfig controls the calendar reminder scanner and its scheduler.
//
// Environment Variables:
//   - REMINDER_LOOKAHEAD_MINUTES: scan window length (default: 120, minimum 5)
//   - REMINDER_BATCH_SIZE: events per scan (default: 50, minimum 1)
//   - REMINDER_INTERVAL: how often the scheduler scans (default: 1m)
//   - REMINDER_KEYSTORE: none, memory, badger or redis (default: memory)
type RemindersConfig struct {
	Enabled          bool          `koanf:"enabled"`
	LookaheadMinutes int           `koanf:"lookahead_minutes"`
	BatchSize        int           `koanf:"batch_size"`
	Interval         time.Duration `koanf:"interval"`
	ScanTimeout      time.Duration `koanf:"scan_timeout"`

	// KeyStore selects the claim store checked before each dispatch.
	// "none" relies on the event metadata marker alone.
	KeyStore        string        `koanf:"keystore"`
	BadgerPath      string        `koanf:"badger_path"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`

	// DispatchRate caps reminder dispatches per second. 0 disables pacing.
	DispatchRate float64 `koanf:"dispatch_rate"`
}

// Alert throttle gate backends.
const (
	GateMemory = "memory"
	GateRedis  = "redis"
)

// AlertingConfig controls the alert evaluator, its throttle gate and the
// snapshot monitor.
//
// Environment Variables:
//   - ALERT_COOLDOWN: minimum interval between alerts sharing a key (default: 5m)
//   - ALERT_RECIPIENTS: comma-separated user IDs notified of every alert
//   - ALERT_SNAPSHOT_URL: metrics snapshot endpoint polled by the monitor (empty disables polling)
type AlertingConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Cooldown    time.Duration `koanf:"cooldown"`
	Recipients  []string      `koanf:"recipients"`
	Gate        string        `koanf:"gate"`
	SnapshotURL string        `koanf:"snapshot_url"`
	Interval    time.Duration `koanf:"interval"`
	Timeout     time.Duration `koanf:"timeout"`

	StaleAfter         time.Duration `koanf:"stale_after"`
	RateLimitBlocked   int           `koanf:"rate_limit_blocked"`
	WAFAutoBlockedIPs  int           `koanf:"waf_auto_blocked_ips"`
	QueueDepthWarning  int           `koanf:"queue_depth_warning"`
	QueueDepthCritical int           `koanf:"queue_depth_critical"`
}

// RedisConfig holds the shared Redis connection used by the redis key store
// and throttle gate.
type RedisConfig struct {
	Addr      string `koanf:"addr"`
	Password  string `koanf:"password"`
	DB        int    `koanf:"db"`
	KeyPrefix string `koanf:"key_prefix"`
}

// Event bus backends.
const (
	EventsGoChannel = "gochannel"
	EventsNATS      = "nats"
)

// EventsConfig selects the Watermill Pub/Sub used for notification fan-out.
type EventsConfig struct {
	Backend    string `koanf:"backend"`
	BufferSize int64  `koanf:"buffer_size"`
	NATSURL    string `koanf:"nats_url"`
	QueueGroup string `koanf:"queue_group"`
}

// CacheConfig controls the notification listing cache.
type CacheConfig struct {
	ListingTTL time.Duration `koanf:"listing_ttl"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging configuration for zerolog.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// Load reads configuration from all sources and validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
