// Package metric provides Prometheus metrics for ccm.
//
//   - prometheus.go: the registry of start/stop/provisioning metrics
//   - collector.go: a collector reporting node liveness on scrape
//
// ccm is a short-lived CLI, so metrics are not served over HTTP. They are
// written in text exposition format to a file (see Registry.WriteTextfile)
// for pickup by a node_exporter textfile collector.
package metric
