// Package metric provides Prometheus metrics for ccm.
package metric

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ccm"

// Start phases used as the "phase" label of failure counters.
const (
	PhaseLaunch       = "launch"
	PhaseReadiness    = "readiness"
	PhaseLiveness     = "liveness"
	PhaseAliveness    = "aliveness"
	PhaseWireProtocol = "wire_protocol"
)

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	StartDuration  *prometheus.HistogramVec
	StartFailures  *prometheus.CounterVec
	NodesLaunched  prometheus.Counter
	NodesStopped   *prometheus.CounterVec
	NodesPopulated prometheus.Counter
	ScanDuration   prometheus.Histogram
}

// NewRegistry creates a registry with every ccm metric registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		StartDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cluster",
			Name:      "start_duration_seconds",
			Help:      "Wall-clock time of cluster start calls.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		}, []string{"result"}),
		StartFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cluster",
			Name:      "start_failures_total",
			Help:      "Cluster start failures by phase.",
		}, []string{"phase"}),
		NodesLaunched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "launched_total",
			Help:      "Node processes launched.",
		}),
		NodesStopped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "stopped_total",
			Help:      "Node processes stopped, by mode.",
		}, []string{"mode"}),
		NodesPopulated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "populated_total",
			Help:      "Nodes created by populate.",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "log",
			Name:      "scan_duration_seconds",
			Help:      "Time spent waiting for a log marker.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}

	r.reg.MustRegister(
		r.StartDuration,
		r.StartFailures,
		r.NodesLaunched,
		r.NodesStopped,
		r.NodesPopulated,
		r.ScanDuration,
	)
	return r
}

// MustRegister registers additional collectors, such as a NodeCollector.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.reg.MustRegister(cs...)
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveStart records the outcome of one start call.
func (r *Registry) ObserveStart(result string, d time.Duration) {
	r.StartDuration.WithLabelValues(result).Observe(d.Seconds())
}

// WriteTextfile writes all metrics to path in text exposition format.
// The write is atomic.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
