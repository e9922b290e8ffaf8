package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	seatOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seat_operations_total",
			Help: "Seat ledger operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	sagaOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_saga_total",
			Help: "Booking saga runs by outcome",
		},
		[]string{"outcome"},
	)

	stepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "booking_saga_step_duration_seconds",
			Help:    "Duration of booking saga steps",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"step"},
	)

	tripOccupancy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trip_seats",
			Help: "Effective seat count per trip and status",
		},
		[]string{"trip_id", "status"},
	)

	reconciliations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_reconciliation_total",
			Help: "Sold seats that need manual reconciliation",
		},
		[]string{"reason", "source"},
	)
)

// Outcome labels
const (
	OutcomeOK       = "ok"
	OutcomeConflict = "conflict"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
	OutcomeReplay   = "replay"
)

func TrackSeatOperation(operation, outcome string) {
	seatOperations.WithLabelValues(operation, outcome).Inc()
}

func TrackSaga(outcome string) {
	sagaOutcomes.WithLabelValues(outcome).Inc()
}

// TimeStep returns a func that records the elapsed time of step when called.
func TimeStep(step string) func() {
	start := time.Now()
	return func() {
		stepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
	}
}

func SetOccupancy(tripID int64, available, held, sold int) {
	id := strconv.FormatInt(tripID, 10)
	tripOccupancy.WithLabelValues(id, "AVAILABLE").Set(float64(available))
	tripOccupancy.WithLabelValues(id, "HELD").Set(float64(held))
	tripOccupancy.WithLabelValues(id, "SOLD").Set(float64(sold))
}

func TrackReconciliation(reason, source string) {
	reconciliations.WithLabelValues(reason, source).Inc()
}
