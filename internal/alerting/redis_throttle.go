// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisGatePrefix namespaces throttle keys in a shared Redis.
const DefaultRedisGatePrefix = "herald:alert:"

// throttleScript compares the caller's now with the stored last dispatch
// and records it in one server-side step. The key outlives the cooldown so
// clock skew between replicas cannot expire it early.
var throttleScript = redis.NewScript(`
local last = redis.call('GET', KEYS[1])
local now = tonumber(ARGV[1])
local cooldown = tonumber(ARGV[2])
if last and (now - tonumber(last)) < cooldown then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', cooldown * 2)
return 1
`)

// RedisThrottleGate is a Gate shared by every replica pointing at one Redis.
type RedisThrottleGate struct {
	client   redis.Scripter
	cooldown time.Duration
	prefix   string
}

// NewRedisThrottleGate creates a Redis-backed gate.
func NewRedisThrottleGate(client redis.Scripter, cooldown time.Duration, prefix string) *RedisThrottleGate {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if prefix == "" {
		prefix = DefaultRedisGatePrefix
	}
	return &RedisThrottleGate{client: client, cooldown: cooldown, prefix: prefix}
}

// ShouldDispatch runs the throttle script for key.
func (g *RedisThrottleGate) ShouldDispatch(ctx context.Context, key string, now time.Time) (bool, error) {
	allowed, err := throttleScript.Run(ctx, g.client,
		[]string{g.prefix + key},
		now.UnixMilli(), g.cooldown.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("throttle script for %s: %w", key, err)
	}
	return allowed == 1, nil
}
