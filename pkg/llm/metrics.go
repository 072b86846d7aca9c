package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Package-level metrics (registered once on the default registry).
var (
	modelCalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "consensus_model_calls_total",
		Help: "Total model calls issued through the shared Complete adapter",
	})

	modelCallFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "consensus_model_call_failures_total",
		Help: "Model calls that resolved with an error (no retries are attempted)",
	})
)
