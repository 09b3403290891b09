// Package internal contains shared utilities for vessel.
//
// It provides configuration parsing, slug generation, cleanup
// orchestration, and the output abstraction used by the docker package.
package internal
