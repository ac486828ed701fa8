// Package cmd implements the command-line interface for mongomock. It
// provides a hierarchical command structure for inspecting the operator
// catalog and working with an in-memory server interactively.
//
// The package is organized into several subpackages:
//
//   - features: Commands for listing the operator catalog and its statuses
//   - shell: An interactive shell against an in-memory server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See mongomock -help for a list of all commands.
package cmd
