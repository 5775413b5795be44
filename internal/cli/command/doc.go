// Package command defines the ccm command line.
//
//   - root.go: application, global flags, per-run environment
//   - cluster.go: create, list, status, remove, clear, liveset, setdir
//   - node.go: add, populate
//   - lifecycle.go: start, stop
//   - settings.go: updateconf, setlog
//   - ring.go: ring, version
//
// Every cluster command works on the cluster named by --cluster.
package command
