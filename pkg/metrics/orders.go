package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OrdersPlacedTotal counts successfully placed orders.
var OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "vietcart",
	Subsystem: "orders",
	Name:      "placed_total",
	Help:      "Orders successfully placed.",
})

// PlacementFailuresTotal counts placement aborts by failure reason.
var PlacementFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vietcart",
	Subsystem: "orders",
	Name:      "placement_failures_total",
	Help:      "Order placements aborted, labeled by reason.",
}, []string{"reason"})

// OrdersCancelledTotal counts cancelled orders.
var OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "vietcart",
	Subsystem: "orders",
	Name:      "cancelled_total",
	Help:      "Orders cancelled.",
})

// CartMergesTotal counts local-cart reconciliations by outcome.
var CartMergesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vietcart",
	Subsystem: "cart",
	Name:      "merges_total",
	Help:      "Local cart merges, labeled by outcome.",
}, []string{"outcome"})
