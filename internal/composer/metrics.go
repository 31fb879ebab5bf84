package composer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paymentcore",
		Subsystem: "composer",
		Name:      "operations_total",
		Help:      "Composer operations by instrument, operation and outcome.",
	}, []string{"instrument", "operation", "outcome"})

	probesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paymentcore",
		Subsystem: "composer",
		Name:      "credential_probes_total",
		Help:      "Credential probes by instrument and result.",
	}, []string{"instrument", "result"})
)

func GetOperationsTotal() *prometheus.CounterVec { return operationsTotal }

func GetProbesTotal() *prometheus.CounterVec { return probesTotal }
