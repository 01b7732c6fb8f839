package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "roombot",
			Name:      "booking_created_total",
			Help:      "Count of bookings placed.",
		},
	)

	bookingCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "roombot",
			Name:      "booking_cancelled_total",
			Help:      "Count of bookings cancelled.",
		},
	)

	refusals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roombot",
			Name:      "refusal_total",
			Help:      "Count of refused operations by reason.",
		},
		[]string{"reason"},
	)

	updates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roombot",
			Name:      "update_total",
			Help:      "Count of processed updates by kind.",
		},
		[]string{"kind"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingCancelled, refusals, updates)
	})
}

func BookingCreated() {
	bookingCreated.Inc()
}

func BookingCancelled() {
	bookingCancelled.Inc()
}

func IncRefusal(reason string) {
	refusals.WithLabelValues(reason).Inc()
}

func IncUpdate(kind string) {
	updates.WithLabelValues(kind).Inc()
}
