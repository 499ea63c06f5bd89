package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncLoginAttempt is a no-op.
func (n *NoopRecorder) IncLoginAttempt(outcome string) {}

// ObserveLoginDuration is a no-op.
func (n *NoopRecorder) ObserveLoginDuration(duration time.Duration) {}

// IncDeviceBound is a no-op.
func (n *NoopRecorder) IncDeviceBound() {}

// IncDeviceRemoved is a no-op.
func (n *NoopRecorder) IncDeviceRemoved() {}

// IncPaymentApplied is a no-op.
func (n *NoopRecorder) IncPaymentApplied(plan string) {}
