// Package cluster is the persisted state of a local cluster: its node
// registry, seed list and shared configuration.
//
// A *Cluster is an explicit handle obtained with Create or Load. Every
// mutation is serialised by the handle and written through to disk
// before it returns:
//
//	<root>/<name>/cluster.conf                 cluster descriptor
//	<root>/<name>/<node>/node.conf             node descriptor
//	<root>/<name>/<node>/conf/cassandra.yaml   effective node config
//
// Process liveness is never stored; it is asked of a process.Stopper.
package cluster
