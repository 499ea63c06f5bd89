package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/subsgate/subsgate/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	for _, outcome := range sortedKeys(snap.LoginAttempts) {
		writeMetric(w, "subsgate_login_attempts_total{outcome=%q} %d\n", outcome, snap.LoginAttempts[outcome])
	}
	writeMetric(w, "subsgate_login_duration_seconds_count %d\n", snap.LoginDurationCount)
	writeMetric(w, "subsgate_login_duration_seconds_sum %.6f\n", float64(snap.LoginDurationTotalNs)/1e9)

	writeMetric(w, "subsgate_devices_bound_total %d\n", snap.DevicesBound)
	writeMetric(w, "subsgate_devices_removed_total %d\n", snap.DevicesRemoved)

	for _, plan := range sortedKeys(snap.PaymentsApplied) {
		writeMetric(w, "subsgate_payments_applied_total{plan=%q} %d\n", plan, snap.PaymentsApplied[plan])
	}
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
