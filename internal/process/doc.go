// Package process controls node processes on the local host.
//
// The Controller interface is what the rest of ccm consumes:
// launching a node, asking whether it is alive, stopping it, and
// inspecting its log through marks and forward scans.
//
// ExecController is the real implementation. It runs the database
// launcher from the install directory with a per-node configuration
// directory, records the PID in the node directory and captures the
// process stdout/stderr to files so failures can be diagnosed.
//
// Log scans are driven by fsnotify write events on the log directory,
// with a slow polling tick as a safety net for missed events and for
// detecting that the process died while being waited on.
package process
