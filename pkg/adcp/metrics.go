package adcp

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	exchangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adcp_exchanges_total",
			Help: "ADCP command exchanges by device, command and result",
		},
		[]string{"device", "command", "result"},
	)
	exchangeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adcp_exchange_duration_seconds",
			Help:    "Duration of ADCP command exchanges from dial to close",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"device", "command"},
	)
	switchStateGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "adcp_switch_state",
			Help: "Last known switch state (1 on, 0 off, -1 unknown)",
		},
		[]string{"device"},
	)
)

// MetricsCollectors exposes the package collectors for registration.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		exchangesTotal,
		exchangeDuration,
		switchStateGauge,
	}
}

// resultLabel maps an exchange error to a low-cardinality label value.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrEncoding):
		return "encoding"
	case errors.Is(err, ErrAuthRejected):
		return "auth_rejected"
	case errors.Is(err, ErrCommandRejected):
		return "command_rejected"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "connection"
	}
}
