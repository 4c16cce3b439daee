// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package services

import (
	"context"
	"fmt"
)

// Lifecycle is the Start/Stop pattern shared by reminder.Scheduler and
// alerting.Monitor.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop() error
}

// LifecycleService adapts a Lifecycle to suture's Serve pattern:
// Start, wait for cancellation, Stop.
type LifecycleService struct {
	component Lifecycle
	name      string
}

// NewLifecycleService wraps component under name.
func NewLifecycleService(component Lifecycle, name string) *LifecycleService {
	return &LifecycleService{component: component, name: name}
}

// NewReminderSchedulerService wraps the reminder scheduler.
func NewReminderSchedulerService(scheduler Lifecycle) *LifecycleService {
	return NewLifecycleService(scheduler, "reminder-scheduler")
}

// NewAlertMonitorService wraps the alert snapshot monitor.
func NewAlertMonitorService(monitor Lifecycle) *LifecycleService {
	return NewLifecycleService(monitor, "alert-monitor")
}

// Serve implements suture.Service. A Start failure is returned at once so
// suture restarts the service with backoff.
func (s *LifecycleService) Serve(ctx context.Context) error {
	if err := s.component.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()

	if err := s.component.Stop(); err != nil {
		return fmt.Errorf("%s stop failed: %w", s.name, err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture logs.
func (s *LifecycleService) String() string {
	return s.name
}
