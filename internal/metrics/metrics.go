package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "boxoffice/internal/errors"
)

var (
	bookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_bookings_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	bookingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "boxoffice_booking_duration_seconds",
			Help:    "Duration of booking transactions",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	reconciliationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_reconciliations_total",
			Help: "Payment reconciliations by outcome",
		},
		[]string{"outcome"},
	)

	cancellationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_cancellations_total",
			Help: "Ticket cancellations by outcome",
		},
		[]string{"outcome"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "boxoffice_http_request_duration_seconds",
			Help:    "HTTP request latency by method, path and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Outcome buckets attempts by the error taxonomy so contention is visible
// separately from client bugs and infrastructure trouble.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, apperrors.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, apperrors.ErrSeatTaken):
		return "seat_taken"
	case errors.Is(err, apperrors.ErrAmountMismatch):
		return "amount_mismatch"
	case errors.Is(err, apperrors.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrForbidden):
		return "forbidden"
	case errors.Is(err, apperrors.ErrTransient):
		return "transient"
	default:
		return "error"
	}
}

func ObserveBooking(d time.Duration, err error) {
	bookingsTotal.WithLabelValues(Outcome(err)).Inc()
	bookingDuration.Observe(d.Seconds())
}

func CountReconciliation(err error) {
	reconciliationsTotal.WithLabelValues(Outcome(err)).Inc()
}

func CountCancellation(err error) {
	cancellationsTotal.WithLabelValues(Outcome(err)).Inc()
}

func ObserveHTTPRequest(method, path, status string, d time.Duration) {
	httpRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}
