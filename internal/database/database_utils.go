// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// nullableJSON returns nil for empty JSON data so the column stays NULL.
func nullableJSON(data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}

// nullableString returns nil for an empty string so the column stays NULL.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nullableTime returns nil for a nil time, otherwise the UTC instant.
func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// nullableBool returns nil for an unset toggle.
func nullableBool(b *bool) interface{} {
	if b == nil {
		return nil
	}
	return *b
}

func boolFromNull(nb sql.NullBool) *bool {
	if !nb.Valid {
		return nil
	}
	v := nb.Bool
	return &v
}

func timeFromNull(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// parseJSONFieldInto unmarshals a NullString JSON field into an existing destination.
// Returns nil error if the field is not valid or empty (no-op).
func parseJSONFieldInto(field sql.NullString, dest interface{}, fieldName string) error {
	if !field.Valid || field.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(field.String), dest); err != nil {
		return fmt.Errorf("failed to parse %s: %w", fieldName, err)
	}
	return nil
}

// marshalJSONField marshals a map to JSON bytes with error wrapping.
// Empty maps are stored as NULL.
func marshalJSONField(v map[string]interface{}, fieldName string) ([]byte, error) {
	if len(v) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", fieldName, err)
	}
	return data, nil
}
