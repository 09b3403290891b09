package docker

import (
	"context"
	"fmt"

	"github.com/moby/moby/client"
	"github.com/vesselkit/vessel/internal"
)

// Client wraps an engine connection. It is a cheap value: copies share
// the same underlying connection, which is safe for concurrent use.
type Client struct {
	engine EngineClient
}

// NewClient creates a Client that wraps the provided engine client interface.
func NewClient(engine EngineClient) Client {
	return Client{
		engine: engine,
	}
}

// NewDefaultClient creates a Client with a real Docker client from the environment.
func NewDefaultClient() (Client, error) {
	cli, err := client.New(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return Client{}, fmt.Errorf("failed to create docker client: %w\nEnsure Docker is running and DOCKER_HOST is set correctly", err)
	}

	return NewClient(cli), nil
}

// Close closes the underlying engine connection.
func (c Client) Close() {
	c.engine.Close()
}

// PullImage pulls the named image from its registry, streaming progress to
// the provided Writer. The progress stream must be fully drained before the
// engine considers the pull complete, so this blocks until the stream ends.
// Returns an error if the pull cannot be started, the stream is malformed,
// or the engine reports a pull failure mid-stream.
func (c Client) PullImage(ctx context.Context, ref string, w internal.Writer) error {
	w.Printf("Pulling image %s\n", ref)

	response, err := c.engine.ImagePull(ctx, ref, client.ImagePullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %q: %w\nCheck the image name and registry access", ref, err)
	}

	// JSONMessages closes the response when the sequence ends
	for message, err := range response.JSONMessages(ctx) {
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to decode pull output: %w\nDocker may have returned malformed JSON", err)
		}

		if message.Error != nil {
			return fmt.Errorf("image pull failed: %s\nCheck the image name and registry access", message.Error.Message)
		}

		if message.Status != "" {
			w.Println(message.Status)
		}
	}

	w.Printf("Pulled image %s\n", ref)
	return nil
}

// Ping pings the Docker daemon and returns the API version if successful.
func (c Client) Ping(ctx context.Context) (string, error) {
	ping, err := c.engine.Ping(ctx, client.PingOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to ping docker daemon: %w", err)
	}
	return ping.APIVersion, nil
}
