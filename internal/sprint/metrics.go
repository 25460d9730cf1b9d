package sprint

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	settlements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chorebank_settlements_total",
		Help: "Number of sprint settlements committed.",
	})
	settlementErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chorebank_settlement_errors_total",
		Help: "Number of group settlement attempts that failed.",
	})
	deliveryErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chorebank_delivery_errors_total",
		Help: "Number of sprint report messages that could not be delivered.",
	})
)
