// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Login outcome labels recorded by IncLoginAttempt.
const (
	OutcomeGranted             = "granted"
	OutcomeInvalidCredentials  = "invalid_credentials"
	OutcomeDeviceConflict      = "device_conflict"
	OutcomeSubscriptionExpired = "subscription_expired"
	OutcomeServerError         = "server_error"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Login metrics
	IncLoginAttempt(outcome string)
	ObserveLoginDuration(duration time.Duration)

	// Device binding metrics
	IncDeviceBound()
	IncDeviceRemoved()

	// Subscription metrics
	IncPaymentApplied(plan string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
