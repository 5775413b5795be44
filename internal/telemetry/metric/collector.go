package metric

import "github.com/prometheus/client_golang/prometheus"

// NodeStatus is a snapshot of one node for the collector.
type NodeStatus struct {
	Name       string
	DataCenter string
	Up         bool
}

// NodeCollector reports ccm_node_up for every node of a cluster. The
// source is queried on each collection, so values are never stale.
type NodeCollector struct {
	cluster string
	source  func() []NodeStatus
	up      *prometheus.Desc
}

// NewNodeCollector creates a collector for the named cluster.
func NewNodeCollector(cluster string, source func() []NodeStatus) *NodeCollector {
	return &NodeCollector{
		cluster: cluster,
		source:  source,
		up: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "node", "up"),
			"Whether the node process is running (1) or not (0).",
			[]string{"node", "dc"},
			prometheus.Labels{"cluster": cluster},
		),
	}
}

// Describe implements prometheus.Collector.
func (c *NodeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.up
}

// Collect implements prometheus.Collector.
func (c *NodeCollector) Collect(ch chan<- prometheus.Metric) {
	for _, n := range c.source() {
		v := 0.0
		if n.Up {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, v, n.Name, n.DataCenter)
	}
}
