// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

/*
Package config loads and validates Herald configuration.

Configuration is layered with Koanf v2:

 1. Defaults from defaultConfig()
 2. An optional YAML file: $CONFIG_PATH, ./config.yaml or /etc/herald/config.yaml
 3. Environment variables, mapped explicitly in envMappings

Only mapped environment variables are read. Comma-separated values are
accepted for list settings (ALERT_RECIPIENTS, CORS_ORIGINS).

Example config.yaml:

	reminders:
	  lookahead_minutes: 90
	  keystore: badger
	  badger_path: /var/lib/herald/keys
	alerting:
	  cooldown: 10m
	  recipients: [ops-oncall, sre-lead]
	  snapshot_url: http://gateway:9100/internal/metrics-snapshot
	events:
	  backend: nats
	  nats_url: nats://nats:4222

Load() validates the result and fails fast on out-of-range scan settings,
unknown backends or a backend whose connection settings are missing.
*/
package config
