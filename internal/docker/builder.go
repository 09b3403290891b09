package docker

import (
	"context"
	"fmt"
	"strconv"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/network"
	"github.com/moby/moby/client"
	"github.com/vesselkit/vessel/internal"
)

// ContainerBuilder accumulates container configuration and, on Build,
// drives the creation sequence against the engine. Mutators take the
// builder by value and return the updated copy, so configuration reads
// as a chain and a finalized builder is not reused:
//
//	ctr, err := docker.NewContainerBuilder(c, "redis").
//		WithName("cache").
//		WithSlugLength(8).
//		Expose(docker.Port{Source: 6379, Host: 6379}).
//		Build(ctx, w)
type ContainerBuilder struct {
	client Client

	imageName string
	imageTag  string
	name      string

	slugLength  int
	ports       []Port
	command     []string
	env         []string
	pullOnBuild bool
	tty         bool
}

// NewContainerBuilder creates a builder for a container running the named
// image. The tag defaults to "latest"; no name or ports are set and the
// image is not pulled on build unless WithPull is called.
func NewContainerBuilder(c Client, imageName string) ContainerBuilder {
	return ContainerBuilder{
		client:    c,
		imageName: imageName,
		imageTag:  "latest",
	}
}

// WithTag sets the image tag, overwriting the "latest" default.
func (b ContainerBuilder) WithTag(tag string) ContainerBuilder {
	b.imageTag = tag
	return b
}

// WithName sets the base container name. Without a name the engine
// assigns one.
func (b ContainerBuilder) WithName(name string) ContainerBuilder {
	b.name = name
	return b
}

// WithSlugLength sets the length of the random alphanumeric suffix
// appended to the name at build time. Zero means no suffix. A suffix
// avoids name collisions across repeated runs, e.g. parallel test
// invocations; see internal.Slug for the collision caveats.
func (b ContainerBuilder) WithSlugLength(length int) ContainerBuilder {
	b.slugLength = length
	return b
}

// Expose appends a port mapping. Ports are declared to the engine in
// the order Expose is called.
func (b ContainerBuilder) Expose(port Port) ContainerBuilder {
	b.ports = append(b.ports, port)
	return b
}

// WithCommand sets the command the container runs, overriding the
// image's default.
func (b ContainerBuilder) WithCommand(command ...string) ContainerBuilder {
	b.command = command
	return b
}

// WithEnv appends environment variables, each in "KEY=value" form, to
// the container's environment.
func (b ContainerBuilder) WithEnv(env ...string) ContainerBuilder {
	b.env = append(b.env, env...)
	return b
}

// WithPull makes Build pull the image before creating the container.
func (b ContainerBuilder) WithPull() ContainerBuilder {
	b.pullOnBuild = true
	return b
}

// WithTTY allocates a TTY and keeps stdin open, so the container can be
// attached to interactively.
func (b ContainerBuilder) WithTTY() ContainerBuilder {
	b.tty = true
	return b
}

func (b ContainerBuilder) image() string {
	return fmt.Sprintf("%s:%s", b.imageName, b.imageTag)
}

func (b ContainerBuilder) resolvedName() string {
	if b.name == "" {
		return ""
	}

	if b.slugLength > 0 {
		return b.name + "_" + internal.Slug(b.slugLength)
	}

	return b.name
}

// PullImage pulls the builder's image without creating a container,
// useful for pre-warming an image before a run.
func (b ContainerBuilder) PullImage(ctx context.Context, w internal.Writer) error {
	return b.client.PullImage(ctx, b.image(), w)
}

// Build runs the creation sequence: pull (if configured), create, start,
// inspect. Each step is gated on the previous one succeeding, and any
// failure aborts the sequence with the engine's error. No cleanup of a
// partially created container is performed: if start or inspect fails,
// the created container is left behind for the caller to inspect or
// remove. The returned Container always reflects a started container.
func (b ContainerBuilder) Build(ctx context.Context, w internal.Writer) (Container, error) {
	image := b.image()
	name := b.resolvedName()

	if b.pullOnBuild {
		err := b.client.PullImage(ctx, image, w)
		if err != nil {
			return Container{}, err
		}
	}

	id, err := b.create(ctx, image, name)
	if err != nil {
		return Container{}, err
	}

	_, err = b.client.engine.ContainerStart(ctx, id, client.ContainerStartOptions{})
	if err != nil {
		return Container{}, fmt.Errorf("failed to start container %q: %w\nContainer may be misconfigured or a published port may be in use", id, err)
	}

	details, err := b.client.engine.ContainerInspect(ctx, id, client.ContainerInspectOptions{})
	if err != nil {
		return Container{}, fmt.Errorf("failed to inspect container %q: %w\nDocker daemon may be unhealthy", id, err)
	}

	return Container{
		client:  b.client.engine,
		details: details,
	}, nil
}

func (b ContainerBuilder) create(ctx context.Context, image, name string) (string, error) {
	config := container.Config{
		Image: image,
		Cmd:   b.command,
		Env:   b.env,
	}

	if b.tty {
		config.Tty = true
		config.OpenStdin = true
		config.AttachStdin = true
		config.AttachStdout = true
		config.AttachStderr = true
	}

	hostConfig := container.HostConfig{}

	if len(b.ports) > 0 {
		exposed := network.PortSet{}
		bindings := network.PortMap{}
		for _, port := range b.ports {
			key := port.engineKey()
			exposed[key] = struct{}{}
			bindings[key] = append(bindings[key], network.PortBinding{
				HostPort: strconv.Itoa(int(port.Host)),
			})
		}
		config.ExposedPorts = exposed
		hostConfig.PortBindings = bindings
	}

	response, err := b.client.engine.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:     &config,
		HostConfig: &hostConfig,
		Name:       name,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create container from image %q: %w\nEnsure the image exists locally or use WithPull, and that the name is not already taken", image, err)
	}

	return response.ID, nil
}
