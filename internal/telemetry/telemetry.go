// Package telemetry exposes the live Prometheus gauges/counters that sit
// alongside the per-drone metrics sink (internal/metrics writes one JSON
// file per drone on termination; this package is the ambient, queryable
// view of the fleet while a run is in progress).
package telemetry

import "github.com/prometheus/client_golang/prometheus"

const namespace = "droneswarm"

var (
	// DronesAlive is the number of drones not yet in the Dead state.
	DronesAlive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "drones_alive",
		Help:      "Number of drones that have not yet reached the Dead state.",
	})

	// OrdersDelivered counts orders that reached the Delivered status.
	OrdersDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_delivered_total",
		Help:      "Total number of orders delivered across the run.",
	})

	// MessagesRouted counts mailbox sends, partitioned by performative.
	MessagesRouted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_routed_total",
		Help:      "Total number of negotiation messages routed through the mailbox directory.",
	}, []string{"performative"})

	// ReservationTimeouts counts matrix reservation rollbacks caused by a
	// warehouse timing out waiting for accept/reject-proposal.
	ReservationTimeouts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservation_timeouts_total",
		Help:      "Total number of order-reservation rollbacks caused by timeout.",
	})
)

func init() {
	prometheus.MustRegister(DronesAlive, OrdersDelivered, MessagesRouted, ReservationTimeouts)
}
