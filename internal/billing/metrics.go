package billing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "powerbill"

var (
	billsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bills",
			Name:      "created_total",
			Help:      "Total bills created",
		},
	)

	billedAmount = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bills",
			Name:      "billed_amount_total",
			Help:      "Sum of totals of created bills, in rupiah",
		},
	)

	billsSettled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bills",
			Name:      "settlement_toggles_total",
			Help:      "Settlement toggles by resulting state",
		},
		[]string{"transition"},
	)
)
