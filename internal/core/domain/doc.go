// Package domain defines the core domain model of ccm.
//
// Domain models are plain values without IO dependencies. This package
// contains:
//
//   - ClusterConfig: identity and settings shared by every node
//   - Node: one cluster member and its network interfaces
//   - Options: configuration overrides with explicit set/unset values
//   - Errors: coded domain errors shared by every layer
//
// Persistence and process management live in internal/cluster and
// internal/process; nothing here touches the filesystem.
package domain
