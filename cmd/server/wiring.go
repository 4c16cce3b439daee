// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package main

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/herald/internal/alerting"
	"github.com/tomtom215/herald/internal/config"
	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/reminder"
)

// buildKeyStore opens the configured reminder claim store. "none" returns
// nil and the scanner relies on event metadata alone.
func buildKeyStore(cfg *config.Config, client *redis.Client) (reminder.KeyStore, error) {
	switch cfg.Reminders.KeyStore {
	case config.KeyStoreNone:
		logging.Info().Msg("Reminder key store disabled; deduplicating on event metadata only")
		return nil, nil
	case config.KeyStoreMemory:
		return reminder.NewMemoryKeyStore(), nil
	case config.KeyStoreBadger:
		db, err := reminder.OpenBadger(cfg.Reminders.BadgerPath)
		if err != nil {
			return nil, fmt.Errorf("open badger at %s: %w", cfg.Reminders.BadgerPath, err)
		}
		logging.Info().Str("path", cfg.Reminders.BadgerPath).Msg("Reminder key store: badger")
		return reminder.NewBadgerKeyStore(db, "reminder:"), nil
	case config.KeyStoreRedis:
		if client == nil {
			return nil, fmt.Errorf("redis key store selected without a redis client")
		}
		logging.Info().Str("addr", cfg.Redis.Addr).Msg("Reminder key store: redis")
		return reminder.NewRedisKeyStore(client, cfg.Redis.KeyPrefix+"reminder:"), nil
	default:
		return nil, fmt.Errorf("unknown reminder key store %q", cfg.Reminders.KeyStore)
	}
}

// buildGate returns the shared alert throttle gate. Redis makes the
// cooldown hold across replicas.
func buildGate(cfg *config.Config, client *redis.Client) alerting.Gate {
	if cfg.Alerting.Gate == config.GateRedis && client != nil {
		logging.Info().Str("addr", cfg.Redis.Addr).Msg("Alert throttle gate: redis")
		return alerting.NewRedisThrottleGate(client, cfg.Alerting.Cooldown, cfg.Redis.KeyPrefix+"alert:")
	}
	return alerting.NewThrottleGate(cfg.Alerting.Cooldown)
}

func thresholdsFromConfig(a config.AlertingConfig) alerting.Thresholds {
	return alerting.Thresholds{
		StaleAfter:         a.StaleAfter,
		RateLimitBlocked:   a.RateLimitBlocked,
		WAFAutoBlockedIPs:  a.WAFAutoBlockedIPs,
		QueueDepthWarning:  a.QueueDepthWarning,
		QueueDepthCritical: a.QueueDepthCritical,
	}
}
