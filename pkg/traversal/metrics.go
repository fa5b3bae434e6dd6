package traversal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipetypeInvocationCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipegraph_pipetype_invocations_total",
		Help: "The total number of handler invocations, by pipetype.",
	}, []string{"pipetype"})

	traversalResultCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipegraph_traversal_results_total",
		Help: "The total number of gremlins yielded by traversals.",
	})

	traversalErrorCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipegraph_traversal_errors_total",
		Help: "The total number of traversals aborted by a fatal error.",
	})
)
