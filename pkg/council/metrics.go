package council

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var debatesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "consensus_council_debates_total",
	Help: "Completed council debate runs",
})
