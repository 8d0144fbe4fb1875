package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barbershop_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "barbershop_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barbershop_bookings_created_total",
			Help: "Total number of pending bookings created",
		},
		[]string{"intake"},
	)

	BookingRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barbershop_booking_rejections_total",
			Help: "Total number of booking requests rejected at intake",
		},
		[]string{"reason"},
	)

	AvailabilityFailOpenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "barbershop_availability_fail_open_total",
			Help: "Total number of availability lookups served unfiltered after a store error",
		},
	)

	PaymentsInitiatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barbershop_payments_initiated_total",
			Help: "Total number of payment initiations",
		},
		[]string{"outcome"},
	)

	PaymentConfirmationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barbershop_payment_confirmations_total",
			Help: "Total number of reconciliation attempts by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "barbershop_gateway_request_duration_seconds",
			Help:    "Payment gateway request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barbershop_notifications_total",
			Help: "Total number of booking notifications by channel and status",
		},
		[]string{"channel", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "barbershop_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBookingCreated(intake string) {
	BookingsCreatedTotal.WithLabelValues(intake).Inc()
}

func RecordBookingRejected(reason string) {
	BookingRejectionsTotal.WithLabelValues(reason).Inc()
}

func RecordAvailabilityFailOpen() {
	AvailabilityFailOpenTotal.Inc()
}

func RecordPaymentInitiated(outcome string) {
	PaymentsInitiatedTotal.WithLabelValues(outcome).Inc()
}

func RecordPaymentConfirmation(source, outcome string) {
	PaymentConfirmationsTotal.WithLabelValues(source, outcome).Inc()
}

func ObserveGatewayRequest(operation string, seconds float64) {
	GatewayRequestDuration.WithLabelValues(operation).Observe(seconds)
}

func RecordNotification(channel, status string) {
	NotificationsTotal.WithLabelValues(channel, status).Inc()
}
