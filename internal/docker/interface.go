package docker

import (
	"context"

	"github.com/moby/moby/client"
)

// EngineClient is an interface that wraps the Docker API methods we use.
// This allows for dependency injection and testing with mocks.
//
// The real Docker client (*client.Client from moby/moby/client) implements
// this interface.
//
// Usage:
//
//	// Production code: use a real Docker client
//	engine, err := client.New(client.FromEnv, client.WithAPIVersionNegotiation())
//	if err != nil {
//	    return err
//	}
//	c := docker.NewClient(engine)
//
//	// Or use the convenience function:
//	c, err := docker.NewDefaultClient()
//
//	// Test code: inject a mock
//	type mockEngineClient struct{}
//	func (m *mockEngineClient) ImagePull(...) { /* mock implementation */ }
//	// ... implement other methods ...
//	c := docker.NewClient(&mockEngineClient{})
type EngineClient interface {
	ImagePull(ctx context.Context, refStr string, options client.ImagePullOptions) (client.ImagePullResponse, error)
	ContainerCreate(ctx context.Context, options client.ContainerCreateOptions) (client.ContainerCreateResult, error)
	ContainerStart(ctx context.Context, containerID string, options client.ContainerStartOptions) (client.ContainerStartResult, error)
	ContainerInspect(ctx context.Context, containerID string, options client.ContainerInspectOptions) (client.ContainerInspectResult, error)
	ContainerAttach(ctx context.Context, containerID string, options client.ContainerAttachOptions) (client.ContainerAttachResult, error)
	ContainerWait(ctx context.Context, containerID string, options client.ContainerWaitOptions) client.ContainerWaitResult
	ContainerStop(ctx context.Context, containerID string, options client.ContainerStopOptions) (client.ContainerStopResult, error)
	ContainerResize(ctx context.Context, containerID string, options client.ContainerResizeOptions) (client.ContainerResizeResult, error)
	ContainerRemove(ctx context.Context, containerID string, options client.ContainerRemoveOptions) (client.ContainerRemoveResult, error)
	Ping(ctx context.Context, options client.PingOptions) (client.PingResult, error)
	Close() error
}
