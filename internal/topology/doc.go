// Package topology publishes the datacenter/rack map read by the
// database's property-file snitch.
//
// Every node receives a byte-identical cassandra-topology.properties so
// that all members agree on placement before they are (re)started.
package topology
