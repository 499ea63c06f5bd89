package metrics

import (
	"sync"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	LoginAttempts        map[string]uint64
	LoginDurationCount   uint64
	LoginDurationTotalNs int64
	DevicesBound         uint64
	DevicesRemoved       uint64
	PaymentsApplied      map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu                   sync.Mutex
	loginAttempts        map[string]uint64
	loginDurationCount   uint64
	loginDurationTotalNs int64
	devicesBound         uint64
	devicesRemoved       uint64
	paymentsApplied      map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		loginAttempts:   make(map[string]uint64),
		paymentsApplied: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	attempts := make(map[string]uint64, len(m.loginAttempts))
	for k, v := range m.loginAttempts {
		attempts[k] = v
	}
	payments := make(map[string]uint64, len(m.paymentsApplied))
	for k, v := range m.paymentsApplied {
		payments[k] = v
	}

	return Snapshot{
		LoginAttempts:        attempts,
		LoginDurationCount:   m.loginDurationCount,
		LoginDurationTotalNs: m.loginDurationTotalNs,
		DevicesBound:         m.devicesBound,
		DevicesRemoved:       m.devicesRemoved,
		PaymentsApplied:      payments,
	}
}

// IncLoginAttempt increments the counter for a login outcome.
func (m *InMemoryRecorder) IncLoginAttempt(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginAttempts[outcome]++
}

// ObserveLoginDuration records login duration.
func (m *InMemoryRecorder) ObserveLoginDuration(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginDurationCount++
	m.loginDurationTotalNs += duration.Nanoseconds()
}

// IncDeviceBound increments the device bound counter.
func (m *InMemoryRecorder) IncDeviceBound() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devicesBound++
}

// IncDeviceRemoved increments the device removed counter.
func (m *InMemoryRecorder) IncDeviceRemoved() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devicesRemoved++
}

// IncPaymentApplied increments the payment counter for a plan.
func (m *InMemoryRecorder) IncPaymentApplied(plan string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paymentsApplied[plan]++
}
