// Package coordinator provides the simulation host for the shard allocator.
// This file implements Prometheus instrumentation for allocation runs.
package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dreamware/shardsim/internal/allocator"
)

const metricsNamespace = "shardsim"

// Metrics records the outcome of every allocation run.
// Thread-safe: Prometheus collectors are safe for concurrent use.
type Metrics struct {
	allocations *prometheus.CounterVec // Runs per session
	relocations *prometheus.CounterVec // Relocated copies per session
	health      *prometheus.GaugeVec   // 0 green, 1 yellow, 2 red
	unassigned  *prometheus.GaugeVec   // Unassigned copies per session and role
	placed      *prometheus.GaugeVec   // Placed copies per session
	nodes       *prometheus.GaugeVec   // Simulated nodes per session
}

// NewMetrics creates the collectors and registers them with reg.
//
// Parameters:
//   - reg: Registry to register with; prometheus.DefaultRegisterer in production,
//     a fresh prometheus.NewRegistry() in tests
//
// Returns:
//   - *Metrics ready for Observe
//
// Panics if the collectors are already registered with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "allocations_total",
			Help:      "Number of allocation runs",
		}, []string{"session"}),
		relocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "relocations_total",
			Help:      "Number of shard copies that moved between consecutive runs",
		}, []string{"session"}),
		health: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "cluster_health",
			Help:      "Cluster health of the last run: 0 green, 1 yellow, 2 red",
		}, []string{"session"}),
		unassigned: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "unassigned_shards",
			Help:      "Shard copies left unassigned by the last run",
		}, []string{"session", "role"}),
		placed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "placed_shards",
			Help:      "Shard copies placed on a node by the last run",
		}, []string{"session"}),
		nodes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "nodes",
			Help:      "Simulated nodes in the last run",
		}, []string{"session"}),
	}

	reg.MustRegister(m.allocations, m.relocations, m.health, m.unassigned, m.placed, m.nodes)
	return m
}

// Observe records one allocation run for session
func (m *Metrics) Observe(session string, snap *allocator.Snapshot) {
	primaries, replicas := snap.UnassignedByRole()

	m.allocations.WithLabelValues(session).Inc()
	m.relocations.WithLabelValues(session).Add(float64(len(snap.Relocated)))
	m.health.WithLabelValues(session).Set(float64(snap.Health.Severity()))
	m.unassigned.WithLabelValues(session, "primary").Set(float64(primaries))
	m.unassigned.WithLabelValues(session, "replica").Set(float64(replicas))
	m.placed.WithLabelValues(session).Set(float64(snap.Placed()))
	m.nodes.WithLabelValues(session).Set(float64(len(snap.Nodes)))
}

// Forget drops every series of session
func (m *Metrics) Forget(session string) {
	labels := prometheus.Labels{"session": session}
	m.allocations.DeletePartialMatch(labels)
	m.relocations.DeletePartialMatch(labels)
	m.health.DeletePartialMatch(labels)
	m.unassigned.DeletePartialMatch(labels)
	m.placed.DeletePartialMatch(labels)
	m.nodes.DeletePartialMatch(labels)
}
