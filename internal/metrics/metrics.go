package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PlannerMetrics collects planning counters for the REST service.
type PlannerMetrics struct {
	registry *prometheus.Registry

	PlansBuilt        prometheus.Counter
	PlanFailures      prometheus.Counter
	JobsPlanned       prometheus.Counter
	MergeNodesPlanned prometheus.Counter
	MergeDepth        prometheus.Gauge
}

func New() *PlannerMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &PlannerMetrics{
		registry: registry,
		PlansBuilt: factory.NewCounter(prometheus.CounterOpts{
			Name: "gridplan_plans_built_total",
			Help: "Number of plans built successfully.",
		}),
		PlanFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "gridplan_plan_failures_total",
			Help: "Number of plan requests rejected at planning time.",
		}),
		JobsPlanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "gridplan_jobs_planned_total",
			Help: "Number of compute jobs produced by the partitioner.",
		}),
		MergeNodesPlanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "gridplan_merge_nodes_planned_total",
			Help: "Number of merge nodes produced by the merge-tree scheduler.",
		}),
		MergeDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gridplan_last_merge_depth",
			Help: "Merge-tree depth of the most recently built plan.",
		}),
	}
}

// Handler exposes the metrics in Prometheus text format.
func (m *PlannerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
