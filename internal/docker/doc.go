// Package docker provisions ephemeral Docker containers.
//
// ContainerBuilder accumulates the desired configuration and, on Build,
// drives the pull, create, start, inspect sequence against the engine.
// The resulting Container is an immutable handle over the inspection
// snapshot with a force-removal Delete operation.
package docker
