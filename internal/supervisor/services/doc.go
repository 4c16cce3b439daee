// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

// Package services adapts Herald components to suture.Service.
//
//   - LifecycleService: Start/Stop components (reminder scheduler, alert monitor)
//   - RealtimeHubService: the hub's RunWithContext loop
//   - EventBridgeService: the bus-to-hub bridge
//   - HTTPServerService: the API server with graceful shutdown
//
// Example:
//
//	tree.AddDataService(services.NewReminderSchedulerService(scheduler))
//	tree.AddMessagingService(services.NewRealtimeHubService(hub))
//	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
package services
