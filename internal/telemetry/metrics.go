package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "missedcall"

// HTTPRequestDuration tracks HTTP request latency.
var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "path", "status"},
)

// CallsTotal counts intake outcomes (received, callback, complaint, invalid, no_input, error).
var CallsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calls_total",
		Help:      "Inbound call intake transitions by outcome.",
	},
	[]string{"outcome"},
)

// SMSTotal counts outbound message attempts.
var SMSTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sms_total",
		Help:      "Outbound SMS attempts by message type and initial status.",
	},
	[]string{"type", "status"},
)

// SMSStatusCallbacksTotal counts delivery-status callbacks by mapped status.
var SMSStatusCallbacksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sms_status_callbacks_total",
		Help:      "Delivery status callbacks by mapped status.",
	},
	[]string{"status"},
)

// BookingOutcomesTotal counts booking attempts by result (accepted or a rejection kind).
var BookingOutcomesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "booking_outcomes_total",
		Help:      "Booking attempts by result.",
	},
	[]string{"result"},
)

// VerificationRequestsTotal counts OTP requests by result.
var VerificationRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_requests_total",
		Help:      "Phone verification code requests by result.",
	},
	[]string{"result"},
)

// AudioPregenerationTotal counts IVR greeting synthesis jobs by result.
var AudioPregenerationTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audio_pregeneration_total",
		Help:      "IVR greeting audio pre-generation jobs by result.",
	},
	[]string{"result"},
)

// NewMetricsRegistry creates a Prometheus registry with default and custom collectors.
func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequestDuration,
		CallsTotal,
		SMSTotal,
		SMSStatusCallbacksTotal,
		BookingOutcomesTotal,
		VerificationRequestsTotal,
		AudioPregenerationTotal,
	)
	return reg
}

// ObserveRequest feeds HTTPRequestDuration; its signature matches logger.Observer.
func ObserveRequest(method, path string, status int, dur time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(dur.Seconds())
}
