// Package orchestrator starts and stops the nodes of a cluster together.
//
// A start runs in phases, each joined before the next begins:
//
//  1. launch every stopped node, remembering where its log ended
//  2. wait for each node to accept clients
//  3. check that every launched process is still running
//  4. wait until every node has seen every other node come up
//  5. optionally wait for the native protocol listener
//
// A node that never becomes ready is reported through Result.Ready;
// any other failure is a *StartupError.
package orchestrator
